// Package bootstrap resolves the authoritative manifest of a package from
// the sources its deployment mode allows, falling back between them as the
// mode's plan dictates.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/odvcencio/assetpkg/pkg/cache"
	"github.com/odvcencio/assetpkg/pkg/manifest"
	"github.com/odvcencio/assetpkg/pkg/operation"
)

type step int

const (
	stepNone step = iota
	stepCheckFootprint
	stepQueryVersion
	stepLoadManifest
	stepPackageCaching
	stepDone
)

func (s step) String() string {
	switch s {
	case stepNone:
		return "none"
	case stepCheckFootprint:
		return "check-footprint"
	case stepQueryVersion:
		return "query-version"
	case stepLoadManifest:
		return "load-manifest"
	case stepPackageCaching:
		return "package-caching"
	case stepDone:
		return "done"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Progress bands per step.
var stepBands = map[step][2]float64{
	stepCheckFootprint: {0, 0.05},
	stepQueryVersion:   {0.05, 0.15},
	stepLoadManifest:   {0.15, 0.85},
	stepPackageCaching: {0.85, 1},
}

// Machine is a poll-driven bootstrap of one package. It implements
// operation.Operation.
type Machine struct {
	ctx  context.Context
	plan Plan
	log  *slog.Logger

	step      step
	status    operation.Status
	err       error
	progress  float64
	sourceIdx int
	polled    bool

	version     string
	versionTask operation.Task[string]
	loadTask    operation.Task[*manifest.Index]
	cacheTask   operation.Task[cache.Report]

	index          *manifest.Index
	packageVersion string
	cacheReport    cache.Report

	onSucceed func(*Machine)
}

var _ operation.Operation = (*Machine)(nil)

// NewMachine returns a machine for plan. ctx bounds the I/O started by its
// sources and the caching pass.
func NewMachine(ctx context.Context, plan Plan) *Machine {
	logger := plan.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Machine{ctx: ctx, plan: plan, log: logger}
}

// Start moves the machine out of StatusNone. Update calls it implicitly.
func (m *Machine) Start() {
	if m.status != operation.StatusNone {
		return
	}
	m.status = operation.StatusProcessing
	m.step = stepCheckFootprint
	m.log.Debug("bootstrap started", "sources", len(m.plan.Sources))
}

// Update advances the machine. In normal mode it makes at most one step
// transition; an immediate plan drains every transition it can resolve on
// its first Update.
func (m *Machine) Update() {
	if m.IsDone() {
		return
	}
	m.Start()
	if m.plan.Immediate && !m.polled {
		m.polled = true
		for !m.IsDone() && m.advance() {
		}
		return
	}
	m.polled = true
	m.advance()
}

func (m *Machine) IsDone() bool {
	return m.status == operation.StatusSucceed || m.status == operation.StatusFailed
}

func (m *Machine) Status() operation.Status { return m.status }

// Err returns the fatal error once the machine has failed.
func (m *Machine) Err() error { return m.err }

// Progress is monotonic and reaches 1 on success.
func (m *Machine) Progress() float64 { return m.progress }

// Index returns the resolved manifest index, or nil when no manifest was
// resolved.
func (m *Machine) Index() *manifest.Index {
	if m.status != operation.StatusSucceed {
		return nil
	}
	return m.index
}

// Manifest returns the resolved manifest, or nil.
func (m *Machine) Manifest() *manifest.Manifest {
	if idx := m.Index(); idx != nil {
		return idx.Manifest()
	}
	return nil
}

// PackageVersion returns the version of the resolved manifest, or "".
func (m *Machine) PackageVersion() string {
	if m.Index() == nil {
		return ""
	}
	return m.packageVersion
}

// CacheReport returns the outcome of the caching pass, when one ran.
func (m *Machine) CacheReport() cache.Report { return m.cacheReport }

// advance performs the work of the current step and reports whether the
// machine moved to another step or finished. The context only bounds the
// I/O of sources and the caching pass; its errors reach the machine through
// them and are routed like any other source failure.
func (m *Machine) advance() bool {
	switch m.step {
	case stepCheckFootprint:
		return m.checkFootprint()
	case stepQueryVersion:
		return m.queryVersion()
	case stepLoadManifest:
		return m.loadManifest()
	case stepPackageCaching:
		return m.packageCaching()
	default:
		return false
	}
}

func (m *Machine) checkFootprint() bool {
	g := m.plan.Footprint
	if g == nil {
		return m.moveTo(stepQueryVersion)
	}
	loadErr := g.Load(m.plan.PackageName)
	if loadErr != nil {
		m.log.Warn("failed to load application footprint", "error", loadErr)
	}
	if loadErr != nil || g.IsDirty() {
		m.log.Info("delete manifest files when application footprint dirty",
			"footprint", g.Value(), "build", g.BuildID())
		if m.plan.Purger != nil {
			if err := m.plan.Purger.DeleteManifestFiles(); err != nil {
				m.fail(fmt.Errorf("purge stale manifests: %w", err))
				return true
			}
		}
		if err := g.Coverage(m.plan.PackageName); err != nil {
			m.fail(err)
			return true
		}
	}
	return m.moveTo(stepQueryVersion)
}

func (m *Machine) queryVersion() bool {
	if m.sourceIdx >= len(m.plan.Sources) {
		m.fail(ErrNoSource)
		return true
	}
	rule := m.plan.Sources[m.sourceIdx]
	if m.versionTask == nil {
		m.versionTask = rule.Source.QueryVersion(m.ctx)
	}
	m.versionTask.Update()
	m.report(m.versionTask.Progress())
	if !m.versionTask.IsDone() {
		return false
	}
	task := m.versionTask
	m.versionTask = nil
	if task.Status() != operation.StatusSucceed {
		return m.apply(rule, rule.OnUnavailable, task.Err())
	}
	m.version = task.Result()
	m.log.Debug("queried package version", "source", rule.Source.Name(), "version", m.version)
	return m.moveTo(stepLoadManifest)
}

func (m *Machine) loadManifest() bool {
	rule := m.plan.Sources[m.sourceIdx]
	if m.loadTask == nil {
		m.loadTask = rule.Source.LoadManifest(m.ctx, m.version)
	}
	m.loadTask.Update()
	m.report(m.loadTask.Progress())
	if !m.loadTask.IsDone() {
		return false
	}
	task := m.loadTask
	m.loadTask = nil
	if task.Status() != operation.StatusSucceed {
		return m.apply(rule, rule.OnLoadFailure, task.Err())
	}
	m.index = task.Result()
	m.packageVersion = m.index.Manifest().PackageVersion
	m.log.Info("loaded package manifest", "source", rule.Source.Name(), "version", m.packageVersion)
	return m.moveTo(stepPackageCaching)
}

func (m *Machine) packageCaching() bool {
	if m.plan.Cache == nil {
		m.succeed()
		return true
	}
	if m.cacheTask == nil {
		m.cacheTask = m.plan.Cache.Validate(m.ctx, m.index)
	}
	m.cacheTask.Update()
	m.report(m.cacheTask.Progress())
	if !m.cacheTask.IsDone() {
		return false
	}
	m.cacheReport = m.cacheTask.Result()
	if m.cacheTask.Status() != operation.StatusSucceed {
		m.log.Warn("package caching pass failed", "error", m.cacheTask.Err())
	}
	m.cacheTask = nil
	m.succeed()
	return true
}

// apply routes a source failure through the rule's outcome.
func (m *Machine) apply(rule SourceRule, outcome Outcome, cause error) bool {
	name := rule.Source.Name()
	switch outcome {
	case NextSource:
		m.log.Warn("manifest source failed, trying next", "source", name, "error", cause)
		m.sourceIdx++
		if m.sourceIdx >= len(m.plan.Sources) {
			m.fail(fmt.Errorf("%w: %s: %w", ErrNoSource, name, cause))
			return true
		}
		return m.moveTo(stepQueryVersion)
	case SkipToCaching:
		if errors.Is(cause, ErrSourceUnavailable) {
			m.log.Info("no manifest available, continuing without one", "source", name, "error", cause)
		} else {
			m.log.Warn("manifest source failed, continuing without a manifest", "source", name, "error", cause)
		}
		m.index = nil
		return m.moveTo(stepPackageCaching)
	default:
		m.fail(fmt.Errorf("%s: %w", name, cause))
		return true
	}
}

func (m *Machine) moveTo(next step) bool {
	m.report(1)
	m.log.Debug("bootstrap step", "from", m.step.String(), "to", next.String())
	m.step = next
	return true
}

// report records sub-task progress p in [0,1] within the current step's band.
func (m *Machine) report(p float64) {
	band, ok := stepBands[m.step]
	if !ok {
		return
	}
	if v := band[0] + (band[1]-band[0])*p; v > m.progress {
		m.progress = v
	}
}

func (m *Machine) succeed() {
	m.step = stepDone
	m.status = operation.StatusSucceed
	m.progress = 1
	m.log.Info("bootstrap succeeded", "version", m.packageVersion, "manifest", m.index != nil)
	if m.onSucceed != nil {
		m.onSucceed(m)
	}
}

func (m *Machine) fail(err error) {
	m.step = stepDone
	m.status = operation.StatusFailed
	m.err = err
	m.log.Error("bootstrap failed", "error", err)
}
