// Package cache reconciles the sandbox bundle cache against an active
// manifest: entries whose size, CRC or content hash no longer match are
// removed, as are entries no bundle of the manifest refers to.
package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/odvcencio/assetpkg/pkg/filehash"
	"github.com/odvcencio/assetpkg/pkg/manifest"
	"github.com/odvcencio/assetpkg/pkg/operation"
)

// Store is the bundle cache the verifier inspects.
type Store interface {
	BundleCachePath(b *manifest.Bundle) string
	ListCachedBundles() ([]string, error)
	RemoveCachedBundle(fileHash string) error
}

// Options configures a Verifier.
type Options struct {
	// VerifyHash recomputes FileHash for each cached bundle with
	// HashAlgorithm. Size and CRC are always checked.
	VerifyHash    bool
	HashAlgorithm filehash.Algorithm
	// BatchSize bounds how many bundles one Update verifies (default 32).
	BatchSize int
	// KeepOrphans leaves entries that no manifest bundle refers to.
	KeepOrphans bool
	Logger      *slog.Logger
}

// Report summarizes one reconcile pass.
type Report struct {
	Verified   int
	Missing    int
	Mismatched int
	Orphans    int
}

// Verifier starts reconcile passes over one package's bundle cache.
type Verifier struct {
	store Store
	opts  Options
}

// New returns a Verifier for store.
func New(store Store, opts Options) *Verifier {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 32
	}
	if opts.HashAlgorithm == "" {
		opts.HashAlgorithm = filehash.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Verifier{store: store, opts: opts}
}

// Validate starts a reconcile pass against idx. A nil idx (no active
// manifest) completes immediately and leaves the cache untouched.
func (v *Verifier) Validate(ctx context.Context, idx *manifest.Index) operation.Task[Report] {
	return &pass{v: v, ctx: ctx, idx: idx}
}

type pass struct {
	v   *Verifier
	ctx context.Context
	idx *manifest.Index

	started bool
	cached  map[string]bool
	next    int
	report  Report

	status   operation.Status
	err      error
	progress float64
}

func (p *pass) IsDone() bool {
	return p.status == operation.StatusSucceed || p.status == operation.StatusFailed
}
func (p *pass) Status() operation.Status { return p.status }
func (p *pass) Err() error               { return p.err }
func (p *pass) Progress() float64        { return p.progress }
func (p *pass) Result() Report           { return p.report }

func (p *pass) Update() {
	if p.IsDone() {
		return
	}
	if !p.started {
		p.started = true
		p.status = operation.StatusProcessing
		if p.idx == nil {
			p.finish()
			return
		}
		hashes, err := p.v.store.ListCachedBundles()
		if err != nil {
			p.status = operation.StatusFailed
			p.err = fmt.Errorf("reconcile cache: %w", err)
			return
		}
		p.cached = make(map[string]bool, len(hashes))
		for _, h := range hashes {
			p.cached[h] = true
		}
	}
	if err := p.ctx.Err(); err != nil {
		p.status = operation.StatusFailed
		p.err = fmt.Errorf("reconcile cache: %w", err)
		return
	}

	bundles := p.idx.Manifest().BundleList
	for n := 0; n < p.v.opts.BatchSize && p.next < len(bundles); n++ {
		p.verify(&bundles[p.next])
		p.next++
	}
	if len(bundles) > 0 {
		p.progress = float64(p.next) / float64(len(bundles))
	}
	if p.next < len(bundles) {
		return
	}

	if !p.v.opts.KeepOrphans {
		refs := p.referenced()
		for h := range p.cached {
			if _, referenced := refs[h]; referenced {
				continue
			}
			p.report.Orphans++
			if err := p.v.store.RemoveCachedBundle(h); err != nil {
				p.v.opts.Logger.Warn("failed to remove orphan bundle", "hash", h, "error", err)
			}
		}
	}
	p.finish()
}

func (p *pass) finish() {
	p.progress = 1
	p.status = operation.StatusSucceed
	p.v.opts.Logger.Info("bundle cache reconciled",
		"verified", p.report.Verified,
		"missing", p.report.Missing,
		"mismatched", p.report.Mismatched,
		"orphans", p.report.Orphans,
	)
}

func (p *pass) referenced() map[string]struct{} {
	bundles := p.idx.Manifest().BundleList
	out := make(map[string]struct{}, len(bundles))
	for i := range bundles {
		out[bundles[i].FileHash] = struct{}{}
	}
	return out
}

func (p *pass) verify(b *manifest.Bundle) {
	if !p.cached[b.FileHash] {
		p.report.Missing++
		return
	}
	if err := p.check(b); err != nil {
		p.report.Mismatched++
		p.v.opts.Logger.Warn("removing invalid cached bundle", "bundle", b.BundleName, "hash", b.FileHash, "error", err)
		if err := p.v.store.RemoveCachedBundle(b.FileHash); err != nil {
			p.v.opts.Logger.Warn("failed to remove cached bundle", "bundle", b.BundleName, "error", err)
		}
		delete(p.cached, b.FileHash)
		return
	}
	p.report.Verified++
}

var errMismatch = errors.New("cached bundle mismatch")

func (p *pass) check(b *manifest.Bundle) error {
	path := p.v.store.BundleCachePath(b)
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.Size() != b.FileSize {
		return fmt.Errorf("%w: size %d, want %d", errMismatch, info.Size(), b.FileSize)
	}
	if b.FileCRC != "" {
		crc, _, err := filehash.CRC32File(path)
		if err != nil {
			return err
		}
		if crc != b.FileCRC {
			return fmt.Errorf("%w: crc %s, want %s", errMismatch, crc, b.FileCRC)
		}
	}
	if p.v.opts.VerifyHash && b.FileHash != "" {
		sum, err := filehash.File(p.v.opts.HashAlgorithm, path)
		if err != nil {
			return err
		}
		if sum != b.FileHash {
			return fmt.Errorf("%w: hash %s", errMismatch, sum)
		}
	}
	return nil
}
