// Package config handles environment-based configuration loading for the
// logging engine. An optional YAML file supplies defaults; environment
// variables take precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config holds all engine settings (not hot-updatable).
type Config struct {
	// BaseDir is the root under which the store directory DB/Log lives.
	BaseDir string `yaml:"base_dir"`

	// Pacer knobs. Zero values are replaced by defaults.
	PacerBurstDepth    int      `yaml:"pacer_burst_depth"`
	PacerHighDepth     int      `yaml:"pacer_high_depth"`
	PacerHighWait      Duration `yaml:"pacer_high_wait"`
	PacerMaxWait       Duration `yaml:"pacer_max_wait"`
	PacerPollEvery     Duration `yaml:"pacer_poll_every"`
	SatelliteCacheSize int      `yaml:"satellite_cache_size"`

	// MaintenanceSchedule is a standard cron expression for the daily
	// WAL checkpoint and day-file inventory pass. Empty disables it.
	MaintenanceSchedule string `yaml:"maintenance_schedule"`
}

// Defaults mirror the engine's documented pacing behavior.
const (
	DefaultPacerBurstDepth     = 2000
	DefaultPacerHighDepth      = 1000
	DefaultPacerHighWait       = Duration(2500 * time.Millisecond)
	DefaultPacerMaxWait        = Duration(5 * time.Second)
	DefaultPacerPollEvery      = Duration(100 * time.Millisecond)
	DefaultSatelliteCacheSize  = 16384
	DefaultMaintenanceSchedule = "0 3 * * *"
)

// Defaults returns a Config with every knob at its default value.
func Defaults() *Config {
	return &Config{
		BaseDir:             ".",
		PacerBurstDepth:     DefaultPacerBurstDepth,
		PacerHighDepth:      DefaultPacerHighDepth,
		PacerHighWait:       DefaultPacerHighWait,
		PacerMaxWait:        DefaultPacerMaxWait,
		PacerPollEvery:      DefaultPacerPollEvery,
		SatelliteCacheSize:  DefaultSatelliteCacheSize,
		MaintenanceSchedule: DefaultMaintenanceSchedule,
	}
}

// StoreDir returns the directory containing the per-day store files.
func (c *Config) StoreDir() string {
	return filepath.Join(c.BaseDir, "DB", "Log")
}

// Load reads TICKLOG_CONFIG_FILE (if set) and then environment variables,
// returning a validated Config. Environment variables override file values.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("TICKLOG_CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	var errs []string

	if v := envStr("TICKLOG_BASE_DIR", ""); v != "" {
		cfg.BaseDir = v
	}
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	cfg.PacerBurstDepth = envInt("TICKLOG_PACER_BURST_DEPTH", cfg.PacerBurstDepth, &errs)
	cfg.PacerHighDepth = envInt("TICKLOG_PACER_HIGH_DEPTH", cfg.PacerHighDepth, &errs)
	cfg.PacerHighWait = envDuration("TICKLOG_PACER_HIGH_WAIT", cfg.PacerHighWait, &errs)
	cfg.PacerMaxWait = envDuration("TICKLOG_PACER_MAX_WAIT", cfg.PacerMaxWait, &errs)
	cfg.PacerPollEvery = envDuration("TICKLOG_PACER_POLL_EVERY", cfg.PacerPollEvery, &errs)
	cfg.SatelliteCacheSize = envInt("TICKLOG_SATELLITE_CACHE_SIZE", cfg.SatelliteCacheSize, &errs)
	if v, ok := os.LookupEnv("TICKLOG_MAINTENANCE_SCHEDULE"); ok {
		cfg.MaintenanceSchedule = v
	}

	// --- Validation ---
	validatePositive("TICKLOG_PACER_BURST_DEPTH", cfg.PacerBurstDepth, &errs)
	validatePositive("TICKLOG_PACER_HIGH_DEPTH", cfg.PacerHighDepth, &errs)
	validatePositive("TICKLOG_SATELLITE_CACHE_SIZE", cfg.SatelliteCacheSize, &errs)
	if cfg.PacerHighDepth > cfg.PacerBurstDepth {
		errs = append(errs, "TICKLOG_PACER_HIGH_DEPTH must be less than or equal to TICKLOG_PACER_BURST_DEPTH")
	}
	if cfg.PacerHighWait <= 0 {
		errs = append(errs, "TICKLOG_PACER_HIGH_WAIT must be positive")
	}
	if cfg.PacerMaxWait < cfg.PacerHighWait {
		errs = append(errs, "TICKLOG_PACER_MAX_WAIT must be at least TICKLOG_PACER_HIGH_WAIT")
	}
	if cfg.PacerPollEvery <= 0 {
		errs = append(errs, "TICKLOG_PACER_POLL_EVERY must be positive")
	}
	if cfg.MaintenanceSchedule != "" {
		if _, err := cron.ParseStandard(cfg.MaintenanceSchedule); err != nil {
			errs = append(errs, fmt.Sprintf("TICKLOG_MAINTENANCE_SCHEDULE: invalid cron expression %q: %v", cfg.MaintenanceSchedule, err))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("config validation failed:\n  %s", strings.Join(errs, "\n  "))
	}
	return cfg, nil
}

// --- helpers ---

func envStr(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int, errs *[]string) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid integer %q", key, v))
		return defaultVal
	}
	return n
}

func envDuration(key string, defaultVal Duration, errs *[]string) Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Sprintf("%s: invalid duration %q", key, v))
		return defaultVal
	}
	return Duration(d)
}

func validatePositive(name string, value int, errs *[]string) {
	if value <= 0 {
		*errs = append(*errs, fmt.Sprintf("%s: must be positive, got %d", name, value))
	}
}
