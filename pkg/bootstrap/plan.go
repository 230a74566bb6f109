package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/odvcencio/assetpkg/pkg/cache"
	"github.com/odvcencio/assetpkg/pkg/footprint"
	"github.com/odvcencio/assetpkg/pkg/manifest"
	"github.com/odvcencio/assetpkg/pkg/operation"
	"github.com/odvcencio/assetpkg/pkg/remote"
	"github.com/odvcencio/assetpkg/pkg/sandbox"
)

// Mode is a deployment mode. Each mode maps to a fixed source order and
// fallback policy.
type Mode string

const (
	ModeSimulate Mode = "simulate"
	ModeOffline  Mode = "offline"
	ModeHost     Mode = "host"
	ModeWeb      Mode = "web"
)

// ParseMode resolves a configured mode name.
func ParseMode(raw string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(raw))); m {
	case ModeSimulate, ModeOffline, ModeHost, ModeWeb:
		return m, nil
	default:
		return "", fmt.Errorf("unknown play mode %q (want simulate, offline, host or web)", raw)
	}
}

// Outcome decides what a source failure does to the machine.
type Outcome int

const (
	// Fatal ends the machine in failure with the source's error.
	Fatal Outcome = iota
	// NextSource moves on to the following source.
	NextSource
	// SkipToCaching ends the search with no manifest; the caching pass
	// still runs when configured and the machine succeeds.
	SkipToCaching
)

func (o Outcome) String() string {
	switch o {
	case Fatal:
		return "fatal"
	case NextSource:
		return "next-source"
	case SkipToCaching:
		return "skip-to-caching"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// SourceRule pairs a source with its failure policy.
type SourceRule struct {
	Source Source
	// OnUnavailable applies when QueryVersion fails.
	OnUnavailable Outcome
	// OnLoadFailure applies when LoadManifest fails.
	OnLoadFailure Outcome
}

// Cache reconciles cached bundle files against the resolved manifest. idx
// is nil when no manifest was resolved.
type Cache interface {
	Validate(ctx context.Context, idx *manifest.Index) operation.Task[cache.Report]
}

// Purger deletes the sandboxed manifest files of a package.
type Purger interface {
	DeleteManifestFiles() error
}

// Plan is everything a Machine needs to resolve one package.
type Plan struct {
	Mode        Mode
	PackageName string

	// Footprint and Purger are both set or both nil. When set, a dirty
	// footprint purges the sandboxed manifests before any source runs.
	Footprint *footprint.Guard
	Purger    Purger

	Sources []SourceRule
	Cache   Cache

	// Immediate lets the first Update advance through every step that
	// can already be resolved.
	Immediate bool
	Logger    *slog.Logger
}

// Deps are the collaborators NewPlan wires into a mode's plan.
type Deps struct {
	PackageName string
	Store       *sandbox.Store
	Remote      *remote.Client
	Cache       Cache
	BuildID     string

	// SimulateManifestPath is the manifest decoded in ModeSimulate.
	SimulateManifestPath string

	Immediate bool
	// DecodeBudget bounds the manifest records decoded per poll
	// (default 2048). Immediate plans decode in one poll.
	DecodeBudget int
	Logger       *slog.Logger
}

// NewPlan builds the plan for mode:
//
//   - simulate: decode SimulateManifestPath; any failure is fatal.
//   - offline:  buildin manifest, then the caching pass; any failure is fatal.
//   - host:     footprint check; sandbox cache, falling back to unpacking the
//     buildin manifest; a missing buildin marker is not an error (packages
//     registered at runtime have none); then the caching pass.
//   - web:      hosted manifest; an unreachable or missing version marker
//     ends in success with no manifest.
func NewPlan(mode Mode, deps Deps) (Plan, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	budget := deps.DecodeBudget
	if budget <= 0 {
		budget = 2048
	}
	if deps.Immediate {
		budget = 0
	}

	plan := Plan{
		Mode:        mode,
		PackageName: deps.PackageName,
		Immediate:   deps.Immediate,
		Logger:      logger.With("package", deps.PackageName, "mode", string(mode)),
	}

	switch mode {
	case ModeSimulate:
		if deps.SimulateManifestPath == "" {
			return Plan{}, fmt.Errorf("simulate mode: manifest path is required")
		}
		plan.Sources = []SourceRule{
			{Source: &FileSource{Path: deps.SimulateManifestPath, Budget: budget}, OnUnavailable: Fatal, OnLoadFailure: Fatal},
		}

	case ModeOffline:
		if deps.Store == nil {
			return Plan{}, fmt.Errorf("offline mode: sandbox store is required")
		}
		plan.Sources = []SourceRule{
			{Source: &BuildinSource{Store: deps.Store, Budget: budget}, OnUnavailable: Fatal, OnLoadFailure: Fatal},
		}
		plan.Cache = deps.Cache

	case ModeHost:
		if deps.Store == nil {
			return Plan{}, fmt.Errorf("host mode: sandbox store is required")
		}
		if deps.BuildID == "" {
			return Plan{}, fmt.Errorf("host mode: build id is required")
		}
		plan.Footprint = footprint.New(deps.Store, deps.BuildID, logger)
		plan.Purger = deps.Store
		plan.Sources = []SourceRule{
			{Source: &SandboxSource{Store: deps.Store, Budget: budget}, OnUnavailable: NextSource, OnLoadFailure: NextSource},
			{Source: &BuildinUnpackSource{Store: deps.Store, Budget: budget}, OnUnavailable: SkipToCaching, OnLoadFailure: Fatal},
		}
		plan.Cache = deps.Cache

	case ModeWeb:
		if deps.Remote == nil {
			return Plan{}, fmt.Errorf("web mode: remote client is required")
		}
		plan.Sources = []SourceRule{
			{Source: &WebSource{Client: deps.Remote, PackageName: deps.PackageName, Budget: budget}, OnUnavailable: SkipToCaching, OnLoadFailure: Fatal},
		}

	default:
		return Plan{}, fmt.Errorf("unknown play mode %q", string(mode))
	}
	return plan, nil
}
