package manifest

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// bufferWriter appends little-endian primitives. The first error sticks and
// later writes are no-ops.
type bufferWriter struct {
	buf []byte
	err error
}

func newBufferWriter(sizeHint int) *bufferWriter {
	return &bufferWriter{buf: make([]byte, 0, sizeHint)}
}

func (w *bufferWriter) writeBool(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

func (w *bufferWriter) writeUint16(v uint16) {
	w.buf = binary.LittleEndian.AppendUint16(w.buf, v)
}

func (w *bufferWriter) writeUint32(v uint32) {
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
}

func (w *bufferWriter) writeInt32(v int32) {
	w.writeUint32(uint32(v))
}

func (w *bufferWriter) writeInt64(v int64) {
	w.buf = binary.LittleEndian.AppendUint64(w.buf, uint64(v))
}

func (w *bufferWriter) writeString(s string) {
	if w.err != nil {
		return
	}
	if len(s) > math.MaxUint16 {
		w.err = fmt.Errorf("string too long: %d bytes (max %d)", len(s), math.MaxUint16)
		return
	}
	if !utf8.ValidString(s) {
		w.err = fmt.Errorf("string is not valid UTF-8: %q", s)
		return
	}
	w.writeUint16(uint16(len(s)))
	w.buf = append(w.buf, s...)
}

func (w *bufferWriter) writeStringArray(values []string) {
	if w.err != nil {
		return
	}
	if len(values) > math.MaxUint16 {
		w.err = fmt.Errorf("string array too long: %d entries", len(values))
		return
	}
	w.writeUint16(uint16(len(values)))
	for _, v := range values {
		w.writeString(v)
	}
}

func (w *bufferWriter) writeInt32Array(values []int32) {
	if w.err != nil {
		return
	}
	if len(values) > math.MaxUint16 {
		w.err = fmt.Errorf("int32 array too long: %d entries", len(values))
		return
	}
	w.writeUint16(uint16(len(values)))
	for _, v := range values {
		w.writeInt32(v)
	}
}

// bufferReader consumes little-endian primitives from a byte slice it never
// modifies. Running past the end records a FormatError that sticks.
type bufferReader struct {
	data []byte
	off  int
	err  error
}

func newBufferReader(data []byte) *bufferReader {
	return &bufferReader{data: data}
}

func (r *bufferReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || len(r.data)-r.off < n {
		r.err = &FormatError{Kind: ErrTruncated, Offset: r.off}
		return nil
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b
}

func (r *bufferReader) readBool() bool {
	b := r.take(1)
	return b != nil && b[0] != 0
}

func (r *bufferReader) readUint16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *bufferReader) readUint32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *bufferReader) readInt32() int32 {
	return int32(r.readUint32())
}

func (r *bufferReader) readInt64() int64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return int64(binary.LittleEndian.Uint64(b))
}

func (r *bufferReader) readString() string {
	n := r.readUint16()
	start := r.off
	b := r.take(int(n))
	if b == nil {
		return ""
	}
	if !utf8.Valid(b) {
		r.err = &FormatError{Kind: ErrInvalidString, Offset: start}
		return ""
	}
	return string(b)
}

func (r *bufferReader) readStringArray() []string {
	n := int(r.readUint16())
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]string, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.readString())
	}
	return out
}

func (r *bufferReader) readInt32Array() []int32 {
	n := int(r.readUint16())
	if r.err != nil || n == 0 {
		return nil
	}
	out := make([]int32, 0, n)
	for i := 0; i < n && r.err == nil; i++ {
		out = append(out, r.readInt32())
	}
	return out
}

// readCount reads an i32 table length. Negative counts and counts that
// cannot fit in the remaining bytes are framing errors.
func (r *bufferReader) readCount(minRecordSize int) int {
	start := r.off
	n := r.readInt32()
	if r.err != nil {
		return 0
	}
	if n < 0 || int64(n)*int64(minRecordSize) > int64(len(r.data)-r.off) {
		r.err = &FormatError{Kind: ErrTruncated, Offset: start}
		return 0
	}
	return int(n)
}
