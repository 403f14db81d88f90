// Package config loads the satobs YAML configuration and applies
// environment overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/satobs/core"
	"github.com/signalsfoundry/satobs/internal/logging"
	"github.com/signalsfoundry/satobs/internal/observability"
	"github.com/signalsfoundry/satobs/timectrl"
)

// Config is the top-level satobs configuration.
type Config struct {
	Log         LogConfig         `yaml:"log"`
	Propagator  PropagatorConfig  `yaml:"propagator"`
	LeapSeconds LeapSecondsConfig `yaml:"leap_seconds"`
	Catalog     CatalogConfig     `yaml:"catalog"`
	Tracker     TrackerConfig     `yaml:"tracker"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

// LogConfig mirrors logging.Config.
type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// PropagatorConfig selects the SGP4 gravity model and operation mode.
type PropagatorConfig struct {
	Gravity string `yaml:"gravity"` // wgs72old | wgs72 | wgs84
	Mode    string `yaml:"mode"`    // improved | afspc
}

// LeapSecondsConfig points at an optional replacement leap-second table.
type LeapSecondsConfig struct {
	File string `yaml:"file"`
}

// CatalogConfig locates the SQLite catalog database.
type CatalogConfig struct {
	DB string `yaml:"db"`
}

// TrackerConfig drives the track command's time controller.
type TrackerConfig struct {
	Tick time.Duration `yaml:"tick"`
	Mode string        `yaml:"mode"` // realtime | accelerated
}

// MetricsConfig controls the Prometheus listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// TracingConfig mirrors observability.TracingConfig.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	ServiceName string  `yaml:"service_name"`
	Exporter    string  `yaml:"exporter"`
	Endpoint    string  `yaml:"endpoint"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default returns the built-in configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	tracing := observability.DefaultTracingConfig()

	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Propagator: PropagatorConfig{
			Gravity: string(core.GravityWGS72),
			Mode:    core.OpsImproved.String(),
		},
		Catalog: CatalogConfig{
			DB: filepath.Join(homeDir, ".satobs", "catalog.db"),
		},
		Tracker: TrackerConfig{
			Tick: time.Second,
			Mode: timectrl.RealTime.String(),
		},
		Tracing: TracingConfig{
			ServiceName: tracing.ServiceName,
			Exporter:    tracing.Exporter,
			SampleRatio: tracing.SampleRatio,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path or a missing file yields the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("config: decode %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	lc := logging.ConfigFromEnv(logging.Config{Level: c.Log.Level, Format: c.Log.Format})
	c.Log.Level, c.Log.Format = lc.Level, lc.Format

	if v := os.Getenv("SATOBS_GRAVITY"); v != "" {
		c.Propagator.Gravity = v
	}
	if v := os.Getenv("SATOBS_LEAP_SECONDS"); v != "" {
		c.LeapSeconds.File = v
	}
	if v := os.Getenv("SATOBS_CATALOG_DB"); v != "" {
		c.Catalog.DB = v
	}
	if v := os.Getenv("SATOBS_METRICS_ADDR"); v != "" {
		c.Metrics.Addr = v
	}

	tc := observability.TracingConfigFromEnv(c.TracingConfig())
	c.Tracing = TracingConfig{
		Enabled:     tc.Enabled,
		ServiceName: tc.ServiceName,
		Exporter:    tc.Exporter,
		Endpoint:    tc.Endpoint,
		SampleRatio: tc.SampleRatio,
	}
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	if _, err := core.ParseGravity(c.Propagator.Gravity); err != nil {
		return fmt.Errorf("config: propagator.gravity: %w", err)
	}
	if _, err := core.ParseOpsMode(c.Propagator.Mode); err != nil {
		return fmt.Errorf("config: propagator.mode: %w", err)
	}
	if _, ok := timectrl.ParseMode(c.Tracker.Mode); !ok {
		return fmt.Errorf("config: tracker.mode: unknown mode %q", c.Tracker.Mode)
	}
	if c.Tracker.Tick <= 0 {
		return fmt.Errorf("config: tracker.tick must be positive, got %s", c.Tracker.Tick)
	}
	return nil
}

// LoggingConfig converts the log section for logging.New.
func (c *Config) LoggingConfig() logging.Config {
	return logging.Config{
		Level:     c.Log.Level,
		Format:    c.Log.Format,
		AddSource: c.Log.AddSource,
	}
}

// TracingConfig converts the tracing section for observability.InitTracing.
func (c *Config) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:     c.Tracing.Enabled,
		ServiceName: c.Tracing.ServiceName,
		Exporter:    c.Tracing.Exporter,
		Endpoint:    c.Tracing.Endpoint,
		SampleRatio: c.Tracing.SampleRatio,
	}
}

// LoadLeapSeconds installs the leap-second table named by the config, if
// any, as the process-wide table.
func (c *Config) LoadLeapSeconds() error {
	if c.LeapSeconds.File == "" {
		return nil
	}
	f, err := os.Open(c.LeapSeconds.File)
	if err != nil {
		return fmt.Errorf("config: leap seconds: %w", err)
	}
	defer f.Close()

	table, err := core.ParseLeapSecondTable(f)
	if err != nil {
		return fmt.Errorf("config: leap seconds %s: %w", c.LeapSeconds.File, err)
	}
	core.InstallLeapSeconds(table)
	return nil
}
