package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/odvcencio/assetpkg/pkg/manifest"
	"github.com/odvcencio/assetpkg/pkg/operation"
	"github.com/odvcencio/assetpkg/pkg/remote"
	"github.com/odvcencio/assetpkg/pkg/sandbox"
)

var (
	// ErrSourceUnavailable wraps a version marker or manifest file that a
	// source could not find or reach.
	ErrSourceUnavailable = errors.New("manifest source unavailable")
	// ErrNoSource is returned when every source fell through.
	ErrNoSource = errors.New("no manifest source left")
)

// Source is one place an authoritative manifest can come from.
type Source interface {
	Name() string
	QueryVersion(ctx context.Context) operation.Task[string]
	LoadManifest(ctx context.Context, version string) operation.Task[*manifest.Index]
}

// unavailable marks err as ErrSourceUnavailable when it means the marker or
// manifest does not exist or the server could not be reached.
func unavailable(err error) error {
	if err == nil || errors.Is(err, ErrSourceUnavailable) {
		return err
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, remote.ErrNotFound) || errors.Is(err, remote.ErrTransport) {
		return fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	return err
}

func readVersion(read func() (string, error)) operation.Task[string] {
	return operation.Sync(func() (string, error) {
		v, err := read()
		return v, unavailable(err)
	})
}

// decodeStepper decodes a manifest budget records at a time.
type decodeStepper struct {
	d      *manifest.Decoder
	budget int
}

func (s *decodeStepper) Step() (bool, error) { return s.d.Step(s.budget) }
func (s *decodeStepper) Progress() float64   { return s.d.Progress() }
func (s *decodeStepper) Result() *manifest.Index {
	_, idx := s.d.Result()
	return idx
}

// decodeAfter reads manifest bytes with read and then decodes them in
// bounded steps. budget <= 0 decodes in a single step.
func decodeAfter(read operation.Task[[]byte], budget int) operation.Task[*manifest.Index] {
	return operation.Then(read, func(data []byte) operation.Task[*manifest.Index] {
		return operation.FromStepper[*manifest.Index](&decodeStepper{d: manifest.NewDecoder(data), budget: budget})
	})
}

// FileSource loads a manifest from a fixed local path. It is the simulated
// (editor) source: there is no version marker to query.
type FileSource struct {
	Path   string
	Budget int
}

func (s *FileSource) Name() string { return "simulate" }

func (s *FileSource) QueryVersion(context.Context) operation.Task[string] {
	return operation.Done("")
}

func (s *FileSource) LoadManifest(context.Context, string) operation.Task[*manifest.Index] {
	return decodeAfter(operation.Sync(func() ([]byte, error) {
		data, err := os.ReadFile(s.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: simulation manifest file not found: %s", ErrSourceUnavailable, s.Path)
			}
			return nil, fmt.Errorf("read simulation manifest: %w", err)
		}
		return data, nil
	}), s.Budget)
}

// BuildinSource decodes the manifest shipped inside the application.
type BuildinSource struct {
	Store  *sandbox.Store
	Budget int
}

func (s *BuildinSource) Name() string { return "buildin" }

func (s *BuildinSource) QueryVersion(context.Context) operation.Task[string] {
	return readVersion(s.Store.ReadBuildinVersion)
}

func (s *BuildinSource) LoadManifest(_ context.Context, version string) operation.Task[*manifest.Index] {
	return decodeAfter(operation.Sync(func() ([]byte, error) {
		return s.Store.ReadBuildinManifest(version)
	}), s.Budget)
}

// SandboxSource decodes the manifest cached in the sandbox.
type SandboxSource struct {
	Store  *sandbox.Store
	Budget int
}

func (s *SandboxSource) Name() string { return "sandbox" }

func (s *SandboxSource) QueryVersion(context.Context) operation.Task[string] {
	return readVersion(s.Store.ReadCachedVersion)
}

func (s *SandboxSource) LoadManifest(_ context.Context, version string) operation.Task[*manifest.Index] {
	return decodeAfter(operation.Sync(func() ([]byte, error) {
		return s.Store.ReadCachedManifest(version)
	}), s.Budget)
}

// BuildinUnpackSource copies the build-bundled manifest into the sandbox
// and decodes the sandbox copy.
type BuildinUnpackSource struct {
	Store  *sandbox.Store
	Budget int
}

func (s *BuildinUnpackSource) Name() string { return "buildin-unpack" }

func (s *BuildinUnpackSource) QueryVersion(context.Context) operation.Task[string] {
	return readVersion(s.Store.ReadBuildinVersion)
}

func (s *BuildinUnpackSource) LoadManifest(_ context.Context, version string) operation.Task[*manifest.Index] {
	unpack := operation.Sync(func() (string, error) {
		return version, s.Store.UnpackBuildinManifest(version)
	})
	read := operation.Then(unpack, func(v string) operation.Task[[]byte] {
		return operation.Sync(func() ([]byte, error) {
			return s.Store.ReadCachedManifest(v)
		})
	})
	return decodeAfter(read, s.Budget)
}

// WebSource queries and downloads the manifest from the hosting server.
type WebSource struct {
	Client      *remote.Client
	PackageName string
	Budget      int
}

func (s *WebSource) Name() string { return "web" }

func (s *WebSource) QueryVersion(ctx context.Context) operation.Task[string] {
	return operation.Go(ctx, func(ctx context.Context) (string, error) {
		v, err := s.Client.FetchPackageVersion(ctx, s.PackageName)
		return v, unavailable(err)
	})
}

func (s *WebSource) LoadManifest(ctx context.Context, version string) operation.Task[*manifest.Index] {
	return decodeAfter(operation.Go(ctx, func(ctx context.Context) ([]byte, error) {
		return s.Client.FetchManifest(ctx, s.PackageName, version)
	}), s.Budget)
}
