package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/odvcencio/assetpkg/pkg/cache"
	"github.com/odvcencio/assetpkg/pkg/config"
	"github.com/odvcencio/assetpkg/pkg/filehash"
	"github.com/odvcencio/assetpkg/pkg/footprint"
	"github.com/odvcencio/assetpkg/pkg/remote"
	"github.com/odvcencio/assetpkg/pkg/sandbox"
)

// app carries the global flags and the configuration they resolve to.
type app struct {
	configPath  string
	packageName string
	sandboxRoot string
	buildinRoot string
	remoteURL   string
	verbose     bool

	cfg    *config.Config
	logger *slog.Logger
}

func (a *app) bindFlags(root *cobra.Command) {
	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", config.DefaultFileName, "config file (TOML)")
	f.StringVarP(&a.packageName, "package", "p", "", "package name (overrides config)")
	f.StringVar(&a.sandboxRoot, "sandbox", "", "sandbox root directory (overrides config)")
	f.StringVar(&a.buildinRoot, "buildin", "", "build-bundled content directory (overrides config)")
	f.StringVar(&a.remoteURL, "remote", "", "hosting server URL (overrides config)")
	f.BoolVarP(&a.verbose, "verbose", "v", false, "log debug output to stderr")
}

// load resolves configuration for cmd: file, environment, then flags.
func (a *app) load(cmd *cobra.Command) error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.packageName != "" {
		cfg.PackageName = a.packageName
	}
	if a.sandboxRoot != "" {
		cfg.SandboxRoot = a.sandboxRoot
	}
	if a.buildinRoot != "" {
		cfg.BuildinRoot = a.buildinRoot
	}
	if a.remoteURL != "" {
		cfg.Remote.URL = a.remoteURL
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func (a *app) hashAlgorithm() filehash.Algorithm {
	algo, _ := filehash.Parse(a.cfg.HashAlgorithm)
	return algo
}

func (a *app) store() (*sandbox.Store, error) {
	return sandbox.New(sandbox.Options{
		PackageName:   a.cfg.PackageName,
		SandboxRoot:   a.cfg.SandboxRoot,
		BuildinRoot:   a.cfg.BuildinRoot,
		HashAlgorithm: a.hashAlgorithm(),
		Logger:        a.logger,
	})
}

func (a *app) remote() (*remote.Client, error) {
	if a.cfg.Remote.URL == "" {
		return nil, fmt.Errorf("remote URL is not configured (set remote.url, ASSETPKG_REMOTE_URL or --remote)")
	}
	return remote.NewClient(a.cfg.Remote.URL, remote.ClientOptions{
		Timeout:     a.cfg.Remote.Timeout,
		MaxAttempts: a.cfg.Remote.MaxAttempts,
		Backoff:     a.cfg.Remote.Backoff,
		FallbackURL: a.cfg.Remote.FallbackURL,
		Logger:      a.logger,
	})
}

func (a *app) verifier(store *sandbox.Store) *cache.Verifier {
	return cache.New(store, cache.Options{
		VerifyHash:    a.cfg.Cache.VerifyHash,
		HashAlgorithm: a.hashAlgorithm(),
		BatchSize:     a.cfg.Cache.BatchSize,
		KeepOrphans:   a.cfg.Cache.KeepOrphans,
		Logger:        a.logger,
	})
}

func (a *app) buildID() string {
	if a.cfg.BuildID != "" {
		return a.cfg.BuildID
	}
	return footprint.DefaultBuildID()
}
