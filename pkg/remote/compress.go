package remote

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// readBody reads a response body of at most limit bytes, decoding zstd when
// the server announced it. The limit applies to the decoded size.
func readBody(body io.Reader, contentEncoding string, limit int64) ([]byte, error) {
	src := body
	if isZstdEncoded(contentEncoding) {
		dec, err := zstd.NewReader(body, zstd.WithDecoderMaxMemory(uint64(limit)+1))
		if err != nil {
			return nil, err
		}
		defer dec.Close()
		src = dec
	}
	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("response exceeds %d bytes", limit)
	}
	return data, nil
}

// isZstdEncoded checks if the content encoding includes zstd.
func isZstdEncoded(contentEncoding string) bool {
	return strings.Contains(contentEncoding, "zstd")
}
