package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.PacerBurstDepth != DefaultPacerBurstDepth {
		t.Fatalf("burst depth: got %d, want %d", cfg.PacerBurstDepth, DefaultPacerBurstDepth)
	}
	if cfg.PacerMaxWait != DefaultPacerMaxWait {
		t.Fatalf("max wait: got %v, want %v", cfg.PacerMaxWait, DefaultPacerMaxWait)
	}
	if cfg.MaintenanceSchedule != DefaultMaintenanceSchedule {
		t.Fatalf("schedule: got %q, want %q", cfg.MaintenanceSchedule, DefaultMaintenanceSchedule)
	}
	if cfg.BaseDir == "" {
		t.Fatalf("base dir empty")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TICKLOG_BASE_DIR", "/var/lib/ticklog")
	t.Setenv("TICKLOG_PACER_BURST_DEPTH", "5000")
	t.Setenv("TICKLOG_PACER_HIGH_DEPTH", "2500")
	t.Setenv("TICKLOG_PACER_HIGH_WAIT", "1s")
	t.Setenv("TICKLOG_PACER_MAX_WAIT", "8s")
	t.Setenv("TICKLOG_MAINTENANCE_SCHEDULE", "30 4 * * *")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseDir != "/var/lib/ticklog" {
		t.Fatalf("base dir: got %q", cfg.BaseDir)
	}
	if cfg.PacerBurstDepth != 5000 || cfg.PacerHighDepth != 2500 {
		t.Fatalf("depths: got %d/%d", cfg.PacerBurstDepth, cfg.PacerHighDepth)
	}
	if cfg.PacerHighWait.Std() != time.Second || cfg.PacerMaxWait.Std() != 8*time.Second {
		t.Fatalf("waits: got %v/%v", cfg.PacerHighWait, cfg.PacerMaxWait)
	}
	if cfg.MaintenanceSchedule != "30 4 * * *" {
		t.Fatalf("schedule: got %q", cfg.MaintenanceSchedule)
	}
	want := filepath.Join("/var/lib/ticklog", "DB", "Log")
	if cfg.StoreDir() != want {
		t.Fatalf("store dir: got %q, want %q", cfg.StoreDir(), want)
	}
}

func TestLoad_YamlFileWithEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ticklog.yaml")
	body := "base_dir: /from/file\npacer_burst_depth: 3000\npacer_high_wait: 1500ms\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("TICKLOG_CONFIG_FILE", path)
	t.Setenv("TICKLOG_BASE_DIR", "/from/env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseDir != "/from/env" {
		t.Fatalf("env precedence: got %q, want /from/env", cfg.BaseDir)
	}
	if cfg.PacerBurstDepth != 3000 {
		t.Fatalf("file value: got %d, want 3000", cfg.PacerBurstDepth)
	}
	if cfg.PacerHighWait.Std() != 1500*time.Millisecond {
		t.Fatalf("file duration: got %v, want 1.5s", cfg.PacerHighWait)
	}
}

func TestDuration_RoundTrips(t *testing.T) {
	d := Duration(2500 * time.Millisecond)

	j, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(j) != `"2.5s"` {
		t.Fatalf("json form: got %s", j)
	}
	var back Duration
	if err := back.UnmarshalJSON(j); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if back != d {
		t.Fatalf("json round trip: got %v, want %v", back, d)
	}

	if err := back.UnmarshalJSON([]byte(`"not a duration"`)); err == nil {
		t.Fatalf("expected error for invalid duration string")
	}
}

func TestLoad_ValidationAccumulates(t *testing.T) {
	t.Setenv("TICKLOG_PACER_BURST_DEPTH", "-1")
	t.Setenv("TICKLOG_PACER_POLL_EVERY", "-100ms")
	t.Setenv("TICKLOG_MAINTENANCE_SCHEDULE", "not a cron expr")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{
		"TICKLOG_PACER_BURST_DEPTH",
		"TICKLOG_PACER_POLL_EVERY",
		"TICKLOG_MAINTENANCE_SCHEDULE",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error missing %s: %s", want, msg)
		}
	}
}

func TestLoad_HighDepthAboveBurstRejected(t *testing.T) {
	t.Setenv("TICKLOG_PACER_BURST_DEPTH", "100")
	t.Setenv("TICKLOG_PACER_HIGH_DEPTH", "200")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for high depth above burst depth")
	}
}

func TestLoad_EmptyScheduleDisablesMaintenance(t *testing.T) {
	t.Setenv("TICKLOG_MAINTENANCE_SCHEDULE", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaintenanceSchedule != "" {
		t.Fatalf("schedule: got %q, want empty", cfg.MaintenanceSchedule)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.PacerHighWait != DefaultPacerHighWait || cfg.SatelliteCacheSize != DefaultSatelliteCacheSize {
		t.Fatalf("Defaults mismatch: %+v", cfg)
	}
}
