// Package filehash computes the content digests recorded in manifests and
// their sidecar files.
package filehash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"hash/crc32"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/crypto/blake2b"
)

// Algorithm names a content digest.
type Algorithm string

const (
	BLAKE3  Algorithm = "blake3"
	BLAKE2b Algorithm = "blake2b"
	SHA256  Algorithm = "sha256"
)

// Default is used for manifest hash sidecars.
const Default = BLAKE3

// Parse resolves a configured algorithm name. The empty string selects
// Default.
func Parse(name string) (Algorithm, error) {
	switch a := Algorithm(strings.ToLower(strings.TrimSpace(name))); a {
	case "":
		return Default, nil
	case BLAKE3, BLAKE2b, SHA256:
		return a, nil
	default:
		return "", fmt.Errorf("unknown hash algorithm %q", name)
	}
}

// New returns a fresh hash.Hash for a.
func (a Algorithm) New() (hash.Hash, error) {
	switch a {
	case BLAKE3:
		return blake3.New(), nil
	case BLAKE2b:
		return blake2b.New256(nil)
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("unknown hash algorithm %q", string(a))
	}
}

// Bytes returns the lowercase hex digest of data.
func Bytes(a Algorithm, data []byte) (string, error) {
	h, err := a.New()
	if err != nil {
		return "", err
	}
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File returns the lowercase hex digest of the file at path.
func File(a Algorithm, path string) (string, error) {
	h, err := a.New()
	if err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// CRC32Bytes returns the IEEE CRC-32 of data as a decimal string, the form
// stored in Bundle.FileCRC.
func CRC32Bytes(data []byte) string {
	return strconv.FormatUint(uint64(crc32.ChecksumIEEE(data)), 10)
}

// CRC32File returns the decimal IEEE CRC-32 of a file along with its size.
func CRC32File(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, fmt.Errorf("crc file: %w", err)
	}
	defer f.Close()
	h := crc32.NewIEEE()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("crc file %s: %w", path, err)
	}
	return strconv.FormatUint(uint64(h.Sum32()), 10), n, nil
}
