package bootstrap

import (
	"context"
	"sync/atomic"

	"github.com/odvcencio/assetpkg/pkg/manifest"
)

// Snapshot is the manifest state a session publishes after a successful
// bootstrap.
type Snapshot struct {
	Mode           Mode
	PackageVersion string
	Index          *manifest.Index
}

// Session owns the active manifest of one package. Sessions for different
// packages are independent. Running two Initialize machines on the same
// session at once is the caller's problem: the last one to succeed wins.
type Session struct {
	packageName string
	active      atomic.Pointer[Snapshot]
}

// NewSession returns an empty session for packageName.
func NewSession(packageName string) *Session {
	return &Session{packageName: packageName}
}

func (s *Session) PackageName() string { return s.packageName }

// Initialize returns a machine for plan that publishes its manifest to the
// session when it succeeds with one. A failed machine, or one that ends
// without a manifest, leaves the current snapshot alone.
func (s *Session) Initialize(ctx context.Context, plan Plan) *Machine {
	if plan.PackageName == "" {
		plan.PackageName = s.packageName
	}
	m := NewMachine(ctx, plan)
	m.onSucceed = func(m *Machine) {
		if m.index == nil {
			return
		}
		s.active.Store(&Snapshot{
			Mode:           plan.Mode,
			PackageVersion: m.packageVersion,
			Index:          m.index,
		})
	}
	return m
}

// Snapshot returns the active manifest state, or nil before any manifest
// was resolved.
func (s *Session) Snapshot() *Snapshot {
	return s.active.Load()
}
