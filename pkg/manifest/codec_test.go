package manifest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func sampleManifest() *Manifest {
	return &Manifest{
		FileVersion:       FormatVersion,
		EnableAddressable: true,
		IncludeAssetGUID:  true,
		OutputNameStyle:   NameStyleBundleNameHashName,
		BuildPipeline:     "ScriptableBuildPipeline",
		PackageName:       "DefaultPackage",
		PackageVersion:    "2026-10-18-1200",
		AssetList: []Asset{
			{
				Address:   "hero",
				AssetPath: "Assets/Art/hero.prefab",
				AssetGUID: "5b1e0c9a",
				AssetTags: []string{"preload", "ui"},
				BundleID:  1,
			},
			{
				Address:   "",
				AssetPath: "Assets/Art/hero.mat",
				AssetGUID: "77aa01",
				BundleID:  0,
			},
		},
		BundleList: []Bundle{
			{
				BundleName: "shared.bundle",
				UnityCRC:   0xdeadbeef,
				FileHash:   "a1b2c3",
				FileCRC:    "123456",
				FileSize:   4096,
			},
			{
				BundleName: "hero.bundle",
				UnityCRC:   7,
				FileHash:   "d4e5f6",
				FileCRC:    "654321",
				FileSize:   1 << 33,
				Encrypted:  true,
				Tags:       []string{"preload"},
				DependIDs:  []int32{0},
			},
		},
	}
}

func mustEncode(t *testing.T, m *Manifest) []byte {
	t.Helper()
	data, err := Encode(m)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orig := sampleManifest()
	data := mustEncode(t, orig)

	got, idx, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if got.BundleList[0].FileName != "shared_a1b2c3.bundle" {
		t.Errorf("FileName = %q, want %q", got.BundleList[0].FileName, "shared_a1b2c3.bundle")
	}
	for i := range got.BundleList {
		got.BundleList[i].FileName = ""
	}
	if !reflect.DeepEqual(got, orig) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, orig)
	}

	if idx.Manifest() != got {
		t.Fatalf("index does not wrap decoded manifest")
	}
	b, ok := idx.BundleByName("hero.bundle")
	if !ok || b.FileHash != "d4e5f6" {
		t.Fatalf("BundleByName(hero.bundle) = %+v, %v", b, ok)
	}
	a, ok := idx.AssetByPath("Assets/Art/hero.mat")
	if !ok || a.AssetGUID != "77aa01" {
		t.Fatalf("AssetByPath = %+v, %v", a, ok)
	}
}

func TestEncodeDeterministic(t *testing.T) {
	d1 := mustEncode(t, sampleManifest())
	d2 := mustEncode(t, sampleManifest())
	if !bytes.Equal(d1, d2) {
		t.Fatal("Encode not deterministic")
	}
}

func TestEncodeLayoutPrefix(t *testing.T) {
	data := mustEncode(t, &Manifest{PackageName: "p", PackageVersion: "v"})

	if sig := binary.LittleEndian.Uint32(data[:4]); sig != Signature {
		t.Fatalf("signature = %#x, want %#x", sig, Signature)
	}
	n := int(binary.LittleEndian.Uint16(data[4:6]))
	if got := string(data[6 : 6+n]); got != FormatVersion {
		t.Fatalf("format version = %q, want %q", got, FormatVersion)
	}
	// 3 bools + i32 style + 3 strings + 2 empty table counts.
	wantLen := 6 + n + 3 + 4 + (2 + 0) + (2 + 1) + (2 + 1) + 4 + 4
	if len(data) != wantLen {
		t.Fatalf("len = %d, want %d", len(data), wantLen)
	}
}

func TestDecodeRejectsBadSignature(t *testing.T) {
	data := mustEncode(t, sampleManifest())
	for i := 0; i < 4; i++ {
		data[i] ^= 0xff
	}

	_, _, err := Decode(data)
	if !errors.Is(err, ErrBadSignature) {
		t.Fatalf("Decode error = %v, want ErrBadSignature", err)
	}
	if !IsFormatError(err) {
		t.Fatalf("error %T is not a FormatError", err)
	}
}

func TestDecodeRejectsIncompatibleVersion(t *testing.T) {
	w := newBufferWriter(32)
	w.writeUint32(Signature)
	w.writeString("1.4.0")
	w.buf = append(w.buf, []byte("garbage that must never be read")...)

	_, _, err := Decode(w.buf)
	if !errors.Is(err, ErrIncompatibleVersion) {
		t.Fatalf("Decode error = %v, want ErrIncompatibleVersion", err)
	}
	var fe *FormatError
	if !errors.As(err, &fe) {
		t.Fatalf("error %T is not a FormatError", err)
	}
	if fe.Found != "1.4.0" || fe.Expected != FormatVersion {
		t.Fatalf("FormatError = %+v", fe)
	}
}

func TestDecodeRejectsTruncatedPayload(t *testing.T) {
	data := mustEncode(t, sampleManifest())
	for _, cut := range []int{2, 10, len(data) / 2, len(data) - 1} {
		_, _, err := Decode(data[:cut])
		if !errors.Is(err, ErrTruncated) {
			t.Errorf("Decode(data[:%d]) error = %v, want ErrTruncated", cut, err)
		}
	}
}

func TestDecodeRejectsDuplicateAssetPath(t *testing.T) {
	m := sampleManifest()
	m.AssetList[1].AssetPath = m.AssetList[0].AssetPath
	data := mustEncode(t, m)

	got, idx, err := Decode(data)
	if !errors.Is(err, ErrDuplicateAssetPath) {
		t.Fatalf("Decode error = %v, want ErrDuplicateAssetPath", err)
	}
	if !IsContentError(err) {
		t.Fatalf("error %T is not a ContentError", err)
	}
	if got != nil || idx != nil {
		t.Fatalf("partial manifest exposed on failure")
	}
}

func TestDecodeRejectsAddressableLowercase(t *testing.T) {
	m := sampleManifest()
	if _, err := Encode(&Manifest{EnableAddressable: true, LocationToLower: true}); err == nil {
		t.Fatal("Encode accepted addressable + lower-case manifest")
	}

	// Hand-build the header since Encode refuses it.
	data := mustEncode(t, m)
	off := 4 + 2 + len(FormatVersion)
	data[off+1] = 1 // LocationToLower

	_, _, err := Decode(data)
	if !errors.Is(err, ErrAddressableLowercase) {
		t.Fatalf("Decode error = %v, want ErrAddressableLowercase", err)
	}
}

func TestDecodeDoesNotMutateInput(t *testing.T) {
	data := mustEncode(t, sampleManifest())
	snapshot := append([]byte(nil), data...)
	if _, _, err := Decode(data); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !bytes.Equal(data, snapshot) {
		t.Fatal("Decode mutated its input")
	}
}

func TestEncodeRejectsOversizedString(t *testing.T) {
	m := &Manifest{PackageName: string(bytes.Repeat([]byte("x"), 1<<16))}
	if _, err := Encode(m); err == nil {
		t.Fatal("Encode accepted a string longer than 65535 bytes")
	}
}

func TestDecodeRejectsInvalidUTF8(t *testing.T) {
	data := mustEncode(t, sampleManifest())
	at := bytes.Index(data, []byte("ScriptableBuildPipeline"))
	if at < 0 {
		t.Fatal("build pipeline string not found in encoded manifest")
	}
	data[at] = 0xff

	got, idx, err := Decode(data)
	if !errors.Is(err, ErrInvalidString) {
		t.Fatalf("Decode error = %v, want ErrInvalidString", err)
	}
	var fe *FormatError
	if !errors.As(err, &fe) || fe.Offset != at {
		t.Fatalf("FormatError = %+v, want offset %d", fe, at)
	}
	if got != nil || idx != nil {
		t.Fatalf("partial manifest exposed on failure")
	}
}
