package config

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json": true,
	"text": true,
}

// Validate checks a fully assembled configuration.
func Validate(cfg *Config) error {
	if cfg.Store.Path == "" {
		return fmt.Errorf("store.path must not be empty")
	}
	if cfg.Store.MaxEntries < 0 {
		return fmt.Errorf("store.max_entries must be >= 0, got %d", cfg.Store.MaxEntries)
	}
	if cfg.Store.RetentionDays < 0 {
		return fmt.Errorf("store.retention_days must be >= 0, got %d", cfg.Store.RetentionDays)
	}
	if cfg.Store.MaxFileBytes < 0 {
		return fmt.Errorf("store.max_file_bytes must be >= 0, got %d", cfg.Store.MaxFileBytes)
	}
	if cfg.Store.SweepSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Store.SweepSchedule); err != nil {
			return fmt.Errorf("store.sweep_schedule %q is not a valid cron expression: %w",
				cfg.Store.SweepSchedule, err)
		}
	}

	if cfg.Server.ListenAddress == "" {
		return fmt.Errorf("server.listen_address must not be empty")
	}
	if cfg.Server.ReadTimeout < 0 || cfg.Server.WriteTimeout < 0 ||
		cfg.Server.IdleTimeout < 0 || cfg.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server timeouts must be >= 0")
	}

	if !validLogLevels[cfg.Telemetry.Logging.Level] {
		return fmt.Errorf("telemetry.logging.level %q is not one of debug, info, warn, error",
			cfg.Telemetry.Logging.Level)
	}
	if !validLogFormats[cfg.Telemetry.Logging.Format] {
		return fmt.Errorf("telemetry.logging.format %q is not one of json, text",
			cfg.Telemetry.Logging.Format)
	}

	return nil
}
