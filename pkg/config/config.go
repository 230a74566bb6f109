// Package config loads assetpkg settings: defaults, then an optional TOML
// file, then ASSETPKG_* environment variables. Command-line flags are
// applied on top by the CLI.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/odvcencio/assetpkg/pkg/bootstrap"
	"github.com/odvcencio/assetpkg/pkg/filehash"
	"github.com/odvcencio/assetpkg/pkg/sandbox"
)

// DefaultFileName is the config file looked up in the working directory.
const DefaultFileName = "assetpkg.toml"

// Config stores the settings for one package.
type Config struct {
	PackageName string `toml:"package_name" env:"ASSETPKG_PACKAGE"`
	Mode        string `toml:"mode" env:"ASSETPKG_MODE"`
	// BuildID identifies the running application build for the footprint
	// check. Empty uses the binary's VCS revision.
	BuildID string `toml:"build_id" env:"ASSETPKG_BUILD_ID"`

	SandboxRoot      string `toml:"sandbox_root" env:"ASSETPKG_SANDBOX_ROOT"`
	BuildinRoot      string `toml:"buildin_root" env:"ASSETPKG_BUILDIN_ROOT"`
	SimulateManifest string `toml:"simulate_manifest" env:"ASSETPKG_SIMULATE_MANIFEST"`
	HashAlgorithm    string `toml:"hash_algorithm" env:"ASSETPKG_HASH_ALGORITHM"`

	Immediate    bool `toml:"immediate" env:"ASSETPKG_IMMEDIATE"`
	DecodeBudget int  `toml:"decode_budget" env:"ASSETPKG_DECODE_BUDGET"`

	Remote Remote `toml:"remote"`
	Cache  Cache  `toml:"cache"`
}

// Remote configures the hosting server used in web mode and by fetch.
type Remote struct {
	URL         string        `toml:"url" env:"ASSETPKG_REMOTE_URL"`
	FallbackURL string        `toml:"fallback_url" env:"ASSETPKG_REMOTE_FALLBACK_URL"`
	Timeout     time.Duration `toml:"timeout" env:"ASSETPKG_REMOTE_TIMEOUT"`
	MaxAttempts int           `toml:"max_attempts" env:"ASSETPKG_REMOTE_MAX_ATTEMPTS"`
	Backoff     time.Duration `toml:"backoff" env:"ASSETPKG_REMOTE_BACKOFF"`
}

// Cache configures the bundle cache reconcile pass.
type Cache struct {
	VerifyHash  bool `toml:"verify_hash" env:"ASSETPKG_CACHE_VERIFY_HASH"`
	BatchSize   int  `toml:"batch_size" env:"ASSETPKG_CACHE_BATCH_SIZE"`
	KeepOrphans bool `toml:"keep_orphans" env:"ASSETPKG_CACHE_KEEP_ORPHANS"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		PackageName:   "DefaultPackage",
		Mode:          string(bootstrap.ModeHost),
		SandboxRoot:   "Sandbox",
		BuildinRoot:   "StreamingAssets",
		HashAlgorithm: string(filehash.Default),
		DecodeBudget:  2048,
		Remote: Remote{
			Timeout:     60 * time.Second,
			MaxAttempts: 3,
			Backoff:     time.Second,
		},
		Cache: Cache{BatchSize: 32},
	}
}

// Load reads path over the defaults and applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if _, err := toml.Decode(string(data), cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that every command depends on.
func (c *Config) Validate() error {
	c.PackageName = strings.TrimSpace(c.PackageName)
	if c.PackageName == "" {
		return fmt.Errorf("config: package_name is required")
	}
	if _, err := bootstrap.ParseMode(c.Mode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := filehash.Parse(c.HashAlgorithm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.DecodeBudget < 0 {
		return fmt.Errorf("config: decode_budget must not be negative")
	}
	return nil
}

// Write atomically stores cfg as TOML at path.
func Write(path string, cfg *Config) error {
	if cfg == nil {
		cfg = Default()
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("write config: encode: %w", err)
	}
	if err := sandbox.WriteFileAtomic(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
