package filehash

import (
	"os"
	"path/filepath"
	"testing"
)

func TestBytesMatchesFile(t *testing.T) {
	data := []byte("bundle payload")
	path := filepath.Join(t.TempDir(), "payload")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	for _, a := range []Algorithm{BLAKE3, BLAKE2b, SHA256} {
		want, err := Bytes(a, data)
		if err != nil {
			t.Fatalf("Bytes(%s): %v", a, err)
		}
		if len(want) != 64 {
			t.Fatalf("%s digest length = %d, want 64", a, len(want))
		}
		got, err := File(a, path)
		if err != nil {
			t.Fatalf("File(%s): %v", a, err)
		}
		if got != want {
			t.Fatalf("%s: File = %s, Bytes = %s", a, got, want)
		}
	}
}

func TestSHA256KnownVector(t *testing.T) {
	got, err := Bytes(SHA256, []byte("abc"))
	if err != nil {
		t.Fatal(err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("sha256(abc) = %s, want %s", got, want)
	}
}

func TestCRC32(t *testing.T) {
	data := []byte("123456789")
	// Standard CRC-32/IEEE check value 0xCBF43926.
	if got := CRC32Bytes(data); got != "3421780262" {
		t.Fatalf("CRC32Bytes = %s, want 3421780262", got)
	}
	path := filepath.Join(t.TempDir(), "crc")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	crc, size, err := CRC32File(path)
	if err != nil {
		t.Fatal(err)
	}
	if crc != "3421780262" || size != 9 {
		t.Fatalf("CRC32File = %s, %d", crc, size)
	}
}

func TestParse(t *testing.T) {
	if a, err := Parse(""); err != nil || a != Default {
		t.Fatalf("Parse(\"\") = %s, %v", a, err)
	}
	if a, err := Parse("BLAKE2b"); err != nil || a != BLAKE2b {
		t.Fatalf("Parse(BLAKE2b) = %s, %v", a, err)
	}
	if _, err := Parse("md4"); err == nil {
		t.Fatal("Parse accepted md4")
	}
}
