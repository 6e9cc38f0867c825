package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration for the investigation store service.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// StoreConfig configures the investigation log store.
type StoreConfig struct {
	// Enabled is the persisted feature flag. Nil means the key was absent
	// and defaults to true; only an explicit false disables the store. The
	// effective state also honors the GANYMEDE_STORE_ENABLED runtime
	// override, which wins.
	Enabled *bool `yaml:"enabled"`

	// Path is the active NDJSON segment.
	Path string `yaml:"path"`

	// MaxEntries caps the live index; oldest records are evicted first.
	MaxEntries int `yaml:"max_entries"`

	// RetentionDays bounds the age of returned records.
	RetentionDays int `yaml:"retention_days"`

	// MaxFileBytes triggers segment rotation.
	MaxFileBytes int64 `yaml:"max_file_bytes"`

	// CatalogPath is the SQLite segment catalog. Defaults to segments.db
	// next to the active segment.
	CatalogPath string `yaml:"catalog_path"`

	// SweepSchedule is the cron expression for scheduled retention sweeps.
	// Empty disables the scheduler; lazy enforcement still applies.
	SweepSchedule string `yaml:"sweep_schedule"`
}

// IsEnabled resolves the persisted flag, treating an absent key as true.
func (s *StoreConfig) IsEnabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddress string `yaml:"listen_address"`

	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is zero by default: exports stream for as long as the
	// result set requires.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	IdleTimeout time.Duration `yaml:"idle_timeout"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelemetryConfig configures logging and metrics.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`

	// Format is json or text.
	Format string `yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// DefaultConfig returns the configuration used when no file is supplied.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Telemetry.Metrics.Enabled = true
	return cfg
}

// ApplyDefaults fills unset fields. Store.Enabled distinguishes "absent"
// from an explicit false: a file that never mentions the key must not come
// up with persistence silently off.
func ApplyDefaults(cfg *Config) {
	if cfg.Store.Enabled == nil {
		enabled := true
		cfg.Store.Enabled = &enabled
	}
	if cfg.Store.Path == "" {
		cfg.Store.Path = "data/investigations.ndjson"
	}
	if cfg.Store.MaxEntries == 0 {
		cfg.Store.MaxEntries = 10000
	}
	if cfg.Store.RetentionDays == 0 {
		cfg.Store.RetentionDays = 30
	}
	if cfg.Store.MaxFileBytes == 0 {
		cfg.Store.MaxFileBytes = 5_000_000
	}
	if cfg.Store.SweepSchedule == "" {
		cfg.Store.SweepSchedule = "0 3 * * *"
	}
	if cfg.Store.CatalogPath == "" {
		cfg.Store.CatalogPath = filepath.Join(filepath.Dir(cfg.Store.Path), "segments.db")
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 120 * time.Second
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "json"
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = "/metrics"
	}
}
