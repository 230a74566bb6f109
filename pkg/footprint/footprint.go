// Package footprint detects that the application was reinstalled or updated
// in place since the sandbox cache was written, by persisting the identifier
// of the build that produced the cache.
package footprint

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"

	"github.com/odvcencio/assetpkg/pkg/sandbox"
)

// Store locates the persisted footprint token.
type Store interface {
	FootprintPath() string
}

// Guard compares the persisted footprint with the running build.
type Guard struct {
	store     Store
	buildID   string
	footprint string
	logger    *slog.Logger
}

// New returns a Guard for the build identified by buildID.
func New(store Store, buildID string, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Guard{store: store, buildID: buildID, logger: logger}
}

// Load reads the persisted footprint. On first run, when nothing is
// persisted yet, it records the current build instead.
func (g *Guard) Load(packageName string) error {
	data, err := os.ReadFile(g.store.FootprintPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return g.Coverage(packageName)
		}
		return fmt.Errorf("load footprint: %w", err)
	}
	g.footprint = strings.TrimSpace(string(data))
	return nil
}

// IsDirty reports whether the cache was produced by a different build.
func (g *Guard) IsDirty() bool {
	return g.footprint != g.buildID
}

// Coverage overwrites the persisted footprint with the current build.
func (g *Guard) Coverage(packageName string) error {
	if err := sandbox.WriteFileAtomic(g.store.FootprintPath(), []byte(g.buildID)); err != nil {
		return fmt.Errorf("save footprint: %w", err)
	}
	g.footprint = g.buildID
	g.logger.Info("saved application footprint", "package", packageName, "footprint", g.buildID)
	return nil
}

// Value returns the loaded footprint.
func (g *Guard) Value() string { return g.footprint }

// BuildID returns the identifier of the running build.
func (g *Guard) BuildID() string { return g.buildID }

// DefaultBuildID derives a build identifier from the binary's embedded build
// info: the VCS revision (with a "-dirty" suffix for modified trees), else
// the main module version, else "devel".
func DefaultBuildID() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "devel"
	}
	var revision string
	var modified bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}
	if revision != "" {
		if modified {
			return revision + "-dirty"
		}
		return revision
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		return v
	}
	return "devel"
}
