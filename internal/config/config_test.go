package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
target:
  url: https://example.com
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Target.Timeout != DefaultTimeout {
		t.Errorf("Timeout = %v, want default %v", cfg.Target.Timeout, DefaultTimeout)
	}
	if cfg.Window.Size != DefaultWindowSize {
		t.Errorf("Window.Size = %d, want %d", cfg.Window.Size, DefaultWindowSize)
	}
	if cfg.Window.Retention != DefaultRetention {
		t.Errorf("Retention = %d, want %d", cfg.Window.Retention, DefaultRetention)
	}
	if cfg.Output.JSONName != DefaultJSONName {
		t.Errorf("JSONName = %q", cfg.Output.JSONName)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
target:
  url: https://example.com
  timeout: 5s
  probe_interval: 10
thresholds:
  latency: 1.5
  error_rate: 10
  deviation: 0.8
storage:
  sqlite_path: /var/lib/sitegauge/history.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Target.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Target.Timeout)
	}
	if cfg.Target.ProbeInterval != 10 {
		t.Errorf("ProbeInterval = %d, want 10", cfg.Target.ProbeInterval)
	}
	if cfg.Thresholds.Latency != 1.5 {
		t.Errorf("Latency threshold = %v, want 1.5", cfg.Thresholds.Latency)
	}
	if cfg.Storage.Backend() != BackendSQLite {
		t.Errorf("Backend = %q, want sqlite", cfg.Storage.Backend())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad scheme", func(c *Config) { c.Target.URL = "ftp://example.com" }},
		{"zero timeout", func(c *Config) { c.Target.Timeout = 0 }},
		{"interval too small", func(c *Config) { c.Target.ProbeInterval = 0 }},
		{"interval too large", func(c *Config) { c.Target.ProbeInterval = 61 }},
		{"negative latency threshold", func(c *Config) { c.Thresholds.Latency = -1 }},
		{"negative error rate threshold", func(c *Config) { c.Thresholds.ErrorRate = -1 }},
		{"negative deviation threshold", func(c *Config) { c.Thresholds.Deviation = -0.1 }},
		{"window too small", func(c *Config) { c.Window.Size = 1 }},
		{"zero retention", func(c *Config) { c.Window.Retention = 0 }},
		{"dynamo without region", func(c *Config) { c.Storage.DynamoTable = "health" }},
		{"missing artifact name", func(c *Config) { c.Output.JSONName = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestValidate_IntervalBounds(t *testing.T) {
	for _, interval := range []int{1, 30, 60} {
		cfg := Default()
		cfg.Target.ProbeInterval = interval
		if err := cfg.Validate(); err != nil {
			t.Errorf("interval %d rejected: %v", interval, err)
		}
	}
}

func TestStorageConfig_BackendSelection(t *testing.T) {
	tests := []struct {
		name    string
		storage StorageConfig
		want    string
	}{
		{"nothing set", StorageConfig{}, BackendFile},
		{"sqlite", StorageConfig{SQLitePath: "x.db"}, BackendSQLite},
		{"dynamo", StorageConfig{DynamoTable: "t", AWSRegion: "eu-west-1"}, BackendDynamo},
		{"dynamo beats sqlite", StorageConfig{DynamoTable: "t", AWSRegion: "eu-west-1", SQLitePath: "x.db"}, BackendDynamo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.storage.Backend(); got != tt.want {
				t.Errorf("Backend = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOutputConfig_HistoryFile(t *testing.T) {
	o := OutputConfig{HTMLName: "status.html"}
	if got := o.HistoryFile(); got != "status-history.json" {
		t.Errorf("HistoryFile = %q, want status-history.json", got)
	}
}
