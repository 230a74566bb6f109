// Package sandbox is the on-device persistent storage for one package: the
// writable sandbox (cached manifests, footprint, cached bundle files) and the
// read-only build-bundled ("buildin") content shipped with the application.
package sandbox

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/assetpkg/pkg/filehash"
	"github.com/odvcencio/assetpkg/pkg/manifest"
)

const (
	manifestDirName   = "ManifestFiles"
	cacheDirName      = "CacheFiles"
	footprintFileName = "ApplicationFootPrint.bytes"
	bundleDataName    = "__data"
)

var (
	ErrEmptyVersion         = errors.New("package version file is empty")
	ErrManifestHashMismatch = errors.New("manifest hash mismatch")
)

// Options configures a Store.
type Options struct {
	PackageName   string
	SandboxRoot   string // writable; per-package data lives under SandboxRoot/PackageName
	BuildinRoot   string // read-only; per-package data lives under BuildinRoot/PackageName
	HashAlgorithm filehash.Algorithm
	Logger        *slog.Logger
}

// Store is the filesystem implementation of the persistent storage
// collaborator. It holds no state besides its paths, so it is safe for
// concurrent use; callers must still keep one writer per package.
type Store struct {
	packageName string
	sandboxRoot string
	buildinRoot string
	hashAlgo    filehash.Algorithm
	logger      *slog.Logger
}

// New creates a Store. Directories are created lazily on first write.
func New(opts Options) (*Store, error) {
	name := strings.TrimSpace(opts.PackageName)
	if name == "" {
		return nil, fmt.Errorf("sandbox: package name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return nil, fmt.Errorf("sandbox: invalid package name %q", name)
	}
	if opts.SandboxRoot == "" {
		return nil, fmt.Errorf("sandbox: sandbox root is required")
	}
	algo := opts.HashAlgorithm
	if algo == "" {
		algo = filehash.Default
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		packageName: name,
		sandboxRoot: opts.SandboxRoot,
		buildinRoot: opts.BuildinRoot,
		hashAlgo:    algo,
		logger:      logger,
	}, nil
}

// PackageName returns the package this store serves.
func (s *Store) PackageName() string { return s.packageName }

// HashAlgorithm returns the digest used for manifest sidecars.
func (s *Store) HashAlgorithm() filehash.Algorithm { return s.hashAlgo }

// PackageRoot is the package's directory inside the sandbox.
func (s *Store) PackageRoot() string {
	return filepath.Join(s.sandboxRoot, s.packageName)
}

// ManifestDir holds the cached version marker, manifests and hash sidecars.
func (s *Store) ManifestDir() string {
	return filepath.Join(s.PackageRoot(), manifestDirName)
}

// FootprintPath is where the application footprint token is persisted.
func (s *Store) FootprintPath() string {
	return filepath.Join(s.PackageRoot(), footprintFileName)
}

// BuildinDir is the package's directory inside the build-bundled content.
func (s *Store) BuildinDir() string {
	return filepath.Join(s.buildinRoot, s.packageName)
}

// VersionFileName is the package version marker file name.
func (s *Store) VersionFileName() string {
	return fmt.Sprintf("PackageManifest_%s.version", s.packageName)
}

// ManifestFileName is the binary manifest file name for version.
func (s *Store) ManifestFileName(version string) string {
	return fmt.Sprintf("PackageManifest_%s_%s.bytes", s.packageName, version)
}

// HashFileName is the manifest digest sidecar file name for version.
func (s *Store) HashFileName(version string) string {
	return fmt.Sprintf("PackageManifest_%s_%s.hash", s.packageName, version)
}

// BundleCacheDir is the root of the cached bundle files.
func (s *Store) BundleCacheDir() string {
	return filepath.Join(s.PackageRoot(), cacheDirName)
}

// BundleCachePath returns the data file for a cached bundle, fanned out by
// the first two characters of its hash: CacheFiles/ab/abcdef.../__data.
func (s *Store) BundleCachePath(b *manifest.Bundle) string {
	return filepath.Join(s.bundleCacheEntryDir(b.FileHash), bundleDataName)
}

func (s *Store) bundleCacheEntryDir(fileHash string) string {
	prefix := fileHash
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(s.BundleCacheDir(), prefix, fileHash)
}

// DeleteManifestFiles removes every cached manifest file of the package.
func (s *Store) DeleteManifestFiles() error {
	if err := os.RemoveAll(s.ManifestDir()); err != nil {
		return fmt.Errorf("delete manifest files: %w", err)
	}
	s.logger.Info("deleted sandbox manifest files", "package", s.packageName, "dir", s.ManifestDir())
	return nil
}

// ReadCachedVersion returns the sandbox package version marker. A missing
// marker yields an error wrapping fs.ErrNotExist.
func (s *Store) ReadCachedVersion() (string, error) {
	return readVersionFile(filepath.Join(s.ManifestDir(), s.VersionFileName()))
}

// ReadBuildinVersion returns the build-bundled package version marker.
func (s *Store) ReadBuildinVersion() (string, error) {
	return readVersionFile(filepath.Join(s.BuildinDir(), s.VersionFileName()))
}

func readVersionFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read package version: %w", err)
	}
	version := strings.TrimSpace(string(data))
	if version == "" {
		return "", fmt.Errorf("read package version %s: %w", path, ErrEmptyVersion)
	}
	return version, nil
}

// ReadCachedManifest reads a sandbox-cached manifest and, when a hash
// sidecar exists, verifies the bytes against it.
func (s *Store) ReadCachedManifest(version string) ([]byte, error) {
	path := filepath.Join(s.ManifestDir(), s.ManifestFileName(version))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cached manifest: %w", err)
	}

	want, err := os.ReadFile(filepath.Join(s.ManifestDir(), s.HashFileName(version)))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return data, nil
		}
		return nil, fmt.Errorf("read cached manifest hash: %w", err)
	}
	got, err := filehash.Bytes(s.hashAlgo, data)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(string(want)) != got {
		return nil, fmt.Errorf("cached manifest %s: %w", version, ErrManifestHashMismatch)
	}
	return data, nil
}

// BuildinManifestExists reports whether the application ships the manifest
// for version.
func (s *Store) BuildinManifestExists(version string) bool {
	_, err := os.Stat(filepath.Join(s.BuildinDir(), s.ManifestFileName(version)))
	return err == nil
}

// ReadBuildinManifest reads the build-bundled manifest for version.
func (s *Store) ReadBuildinManifest(version string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.BuildinDir(), s.ManifestFileName(version)))
	if err != nil {
		return nil, fmt.Errorf("read buildin manifest: %w", err)
	}
	return data, nil
}

// UnpackBuildinManifest copies the build-bundled manifest for version into
// the sandbox and writes its hash sidecar. It does not touch the sandbox
// version marker.
func (s *Store) UnpackBuildinManifest(version string) error {
	data, err := s.ReadBuildinManifest(version)
	if err != nil {
		return fmt.Errorf("unpack buildin manifest: %w", err)
	}
	if err := s.writeManifestFiles(version, data); err != nil {
		return fmt.Errorf("unpack buildin manifest: %w", err)
	}
	s.logger.Info("unpacked buildin manifest", "package", s.packageName, "version", version)
	return nil
}

// SaveManifest stores manifest bytes for version in the sandbox together
// with the hash sidecar, then points the version marker at it.
func (s *Store) SaveManifest(version string, data []byte) error {
	if strings.TrimSpace(version) == "" {
		return fmt.Errorf("save manifest: version is required")
	}
	if err := s.writeManifestFiles(version, data); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	if err := WriteFileAtomic(filepath.Join(s.ManifestDir(), s.VersionFileName()), []byte(version)); err != nil {
		return fmt.Errorf("save manifest: version marker: %w", err)
	}
	s.logger.Info("saved sandbox manifest", "package", s.packageName, "version", version, "bytes", len(data))
	return nil
}

func (s *Store) writeManifestFiles(version string, data []byte) error {
	sum, err := filehash.Bytes(s.hashAlgo, data)
	if err != nil {
		return err
	}
	dir := s.ManifestDir()
	if err := WriteFileAtomic(filepath.Join(dir, s.ManifestFileName(version)), data); err != nil {
		return err
	}
	return WriteFileAtomic(filepath.Join(dir, s.HashFileName(version)), []byte(sum))
}

// WriteBundleFile stores a cached bundle payload read from r.
func (s *Store) WriteBundleFile(b *manifest.Bundle, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("write bundle %s: %w", b.BundleName, err)
	}
	return WriteFileAtomic(s.BundleCachePath(b), data)
}

// ListCachedBundles returns the file hashes of every cached bundle entry.
// A missing cache directory yields no entries.
func (s *Store) ListCachedBundles() ([]string, error) {
	prefixes, err := os.ReadDir(s.BundleCacheDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list cached bundles: %w", err)
	}
	var hashes []string
	for _, p := range prefixes {
		if !p.IsDir() {
			continue
		}
		entries, err := os.ReadDir(filepath.Join(s.BundleCacheDir(), p.Name()))
		if err != nil {
			return nil, fmt.Errorf("list cached bundles: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() {
				hashes = append(hashes, e.Name())
			}
		}
	}
	return hashes, nil
}

// RemoveCachedBundle deletes the cache entry for fileHash.
func (s *Store) RemoveCachedBundle(fileHash string) error {
	if err := os.RemoveAll(s.bundleCacheEntryDir(fileHash)); err != nil {
		return fmt.Errorf("remove cached bundle %s: %w", fileHash, err)
	}
	return nil
}

// WriteFileAtomic writes data to path via a temp file and rename, creating
// parent directories as needed.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("write %s: mkdir: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: tmpfile: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: close: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: rename: %w", path, err)
	}
	return nil
}
