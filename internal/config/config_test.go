package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("Expected default log level 'info', got %q", cfg.Logging.Level)
	}
	if cfg.Storage.Path != "./writeback.db" {
		t.Errorf("Expected default storage path, got %q", cfg.Storage.Path)
	}
	if cfg.Flush.DelayMS != 500 {
		t.Errorf("Expected default flush delay 500, got %d", cfg.Flush.DelayMS)
	}
	if cfg.Drafts.TTLHours != 24 || cfg.Drafts.SweepBatch != 100 || cfg.Drafts.SweepIntervalMinutes != 15 {
		t.Errorf("Unexpected draft defaults: %+v", cfg.Drafts)
	}
	if cfg.Media.Enabled {
		t.Error("Expected media to be disabled by default")
	}
	if cfg.Media.Region != "auto" {
		t.Errorf("Expected default media region 'auto', got %q", cfg.Media.Region)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
storage:
  path: /var/lib/writeback/data.db
flush:
  delay_ms: 250
drafts:
  ttl_hours: 48
media:
  enabled: true
  endpoint: https://objects.example.com
  bucket: drafts
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected log level 'debug', got %q", cfg.Logging.Level)
	}
	if cfg.Storage.Path != "/var/lib/writeback/data.db" {
		t.Errorf("Unexpected storage path: %q", cfg.Storage.Path)
	}
	if cfg.Flush.DelayMS != 250 {
		t.Errorf("Expected flush delay 250, got %d", cfg.Flush.DelayMS)
	}
	if cfg.Drafts.TTLHours != 48 {
		t.Errorf("Expected TTL 48h, got %d", cfg.Drafts.TTLHours)
	}

	// Fields the file does not mention keep their defaults.
	if cfg.Drafts.SweepBatch != 100 {
		t.Errorf("Expected default sweep batch, got %d", cfg.Drafts.SweepBatch)
	}
	if cfg.Media.Region != "auto" {
		t.Errorf("Expected default media region, got %q", cfg.Media.Region)
	}

	if !cfg.Media.Enabled || cfg.Media.Bucket != "drafts" {
		t.Errorf("Unexpected media config: %+v", cfg.Media)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("logging: [not: valid"), 0o644); err != nil {
		t.Fatalf("Failed writing config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected parse error for invalid YAML")
	}
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := &Config{
		Flush:  FlushConfig{DelayMS: 750},
		Drafts: DraftsConfig{TTLHours: 12, SweepIntervalMinutes: 5},
	}

	if cfg.FlushDelay() != 750*time.Millisecond {
		t.Errorf("Expected 750ms flush delay, got %v", cfg.FlushDelay())
	}
	if cfg.DraftTTL() != 12*time.Hour {
		t.Errorf("Expected 12h TTL, got %v", cfg.DraftTTL())
	}
	if cfg.SweepInterval() != 5*time.Minute {
		t.Errorf("Expected 5m sweep interval, got %v", cfg.SweepInterval())
	}
}
