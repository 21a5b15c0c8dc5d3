// Package config loads the embedding application's static configuration:
// per-chain RPC endpoints, the timelock and mixing-delay distribution
// parameters, and the watchdog's polling cadence. It follows the
// teacher's app-config pattern (internal/app/config.go: a single typed
// struct with defaults, loaded then overridden) but sources from YAML
// on disk rather than an encrypted on-USB blob, since this module's
// config carries no secret material — key material stays with the
// embedding application's Signer implementations.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/cryptoutil"
	"github.com/swapcore/swapcore/internal/domain"
)

// Config is the top-level application configuration.
type Config struct {
	Chains   map[domain.Chain]ChainConfig `yaml:"chains"`
	Timelock TimelockConfig               `yaml:"timelock"`
	Watchdog WatchdogConfig               `yaml:"watchdog"`
	LogLevel string                       `yaml:"log_level"`
}

// LegConfig mirrors one leg's cryptoutil.LogNormalParams (spec.md §4.5:
// the source and destination legs use distinct distributions, not a
// shared gap split in two).
type LegConfig struct {
	Min    float64 `yaml:"min_seconds"`
	Median float64 `yaml:"median_seconds"`
	Max    float64 `yaml:"max_seconds"`
	Sigma  float64 `yaml:"sigma"`
}

func (l LegConfig) toLogNormalParams(granularity float64) cryptoutil.LogNormalParams {
	return cryptoutil.LogNormalParams{Min: l.Min, Median: l.Median, Max: l.Max, Sigma: l.Sigma, Granularity: granularity}
}

// ChainConfig is the YAML-facing mirror of chainadapter.Config.
type ChainConfig struct {
	RPCURL     string        `yaml:"rpc_url"`
	APIKey     string        `yaml:"api_key"`
	NetworkTag string        `yaml:"network"`
	Timeout    time.Duration `yaml:"timeout"`
}

func (c ChainConfig) ToAdapterConfig() chainadapter.Config {
	return chainadapter.Config{RPCURL: c.RPCURL, APIKey: c.APIKey, NetworkTag: c.NetworkTag, Timeout: c.Timeout}
}

// TimelockConfig holds the two per-leg log-normal distributions spec.md
// §4.5 names plus the shared rounding granularity and minimum inter-leg
// buffer: Source is the wider user-leg spread, Dest the narrower
// solver-leg spread.
type TimelockConfig struct {
	Source      LegConfig     `yaml:"source"`
	Dest        LegConfig     `yaml:"dest"`
	Granularity float64       `yaml:"granularity_seconds"`
	Buffer      time.Duration `yaml:"buffer"`
}

func (t TimelockConfig) ToLogNormalParams() (source, dest cryptoutil.LogNormalParams) {
	return t.Source.toLogNormalParams(t.Granularity), t.Dest.toLogNormalParams(t.Granularity)
}

// WatchdogConfig controls the refund watchdog's scan cadence,
// concurrency, and the grace period it waits past a timelock's expiry
// before treating a refund as due (spec.md §4.7).
type WatchdogConfig struct {
	ScanInterval    time.Duration `yaml:"scan_interval"`
	MaxConcurrent   int           `yaml:"max_concurrent"`
	MaxAttempts     int           `yaml:"max_attempts"`
	RefundBuffer    time.Duration `yaml:"refund_buffer"`
	ConfirmTimeout  time.Duration `yaml:"confirm_timeout"`
	PersistencePath string        `yaml:"persistence_path"`
}

// Default returns a configuration with the defaults spec.md §4.5 and §4.7
// name: per-leg spreads wide enough to defeat naive timing correlation,
// and a watchdog that scans every minute with five retries, a 300s
// refund buffer, and a 120s confirmation timeout.
func Default() Config {
	return Config{
		Timelock: TimelockConfig{
			Source:      LegConfig{Min: 1800, Median: 5400, Max: 14400, Sigma: 0.45},
			Dest:        LegConfig{Min: 900, Median: 2700, Max: 5400, Sigma: 0.35},
			Granularity: 900,
			Buffer:      30 * time.Minute,
		},
		Watchdog: WatchdogConfig{
			ScanInterval: time.Minute, MaxConcurrent: 4, MaxAttempts: 5,
			RefundBuffer: 5 * time.Minute, ConfirmTimeout: 2 * time.Minute,
		},
		LogLevel: "info",
	}
}

// Load reads YAML from path and overlays a small set of environment
// variables (SWAPCORE_LOG_LEVEL and SWAPCORE_<CHAIN>_RPC_URL) on top —
// the same "file, then env override" precedence the teacher's provider
// config store applies to API keys (src/chainadapter/provider/config.go).
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	if lvl := os.Getenv("SWAPCORE_LOG_LEVEL"); lvl != "" {
		cfg.LogLevel = lvl
	}
	if cfg.Chains == nil {
		cfg.Chains = make(map[domain.Chain]ChainConfig)
	}
	for _, chain := range domain.AllChains() {
		envVar := "SWAPCORE_" + string(chain) + "_RPC_URL"
		if url := os.Getenv(envVar); url != "" {
			cc := cfg.Chains[chain]
			cc.RPCURL = url
			cfg.Chains[chain] = cc
		}
	}
	return cfg, nil
}

// Validate rejects a configuration the timelock/watchdog generators
// would otherwise fail on only at first use.
func (c Config) Validate() error {
	source, dest := c.Timelock.ToLogNormalParams()
	if err := source.Validate(); err != nil {
		return fmt.Errorf("config: timelock.source: %w", err)
	}
	if err := dest.Validate(); err != nil {
		return fmt.Errorf("config: timelock.dest: %w", err)
	}
	if c.Timelock.Buffer <= 0 {
		return fmt.Errorf("config: timelock.buffer must be > 0")
	}
	if c.Watchdog.MaxConcurrent <= 0 {
		return fmt.Errorf("config: watchdog.max_concurrent must be > 0")
	}
	if c.Watchdog.MaxAttempts <= 0 {
		return fmt.Errorf("config: watchdog.max_attempts must be > 0")
	}
	if c.Watchdog.RefundBuffer < 0 {
		return fmt.Errorf("config: watchdog.refund_buffer must be >= 0")
	}
	if c.Watchdog.ConfirmTimeout <= 0 {
		return fmt.Errorf("config: watchdog.confirm_timeout must be > 0")
	}
	return nil
}
