package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/wearlink/types"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wearlink.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	t.Setenv("WEBHOOK_TOKEN", "token123")
	path := writeTemp(t, `device:
  id: pixel-8
  name: Pixel 8
  role: phone
  model: Pixel 8
  sdk_int: 34
  app_version: 1.2.0
  charging: true

transport:
  type: tcp
  dial: watch.local:7480

store:
  backend: sqlite
  path: /var/lib/wearlink/state.db

autosync:
  enabled: true
  interval: 2h
  backoff_base: 45s
  max_items: 60
  battery_saver: true

archive:
  backend: s3
  path: archive-bucket/wearlink
  region: eu-west-1
  endpoint: http://minio:9000
  s3_path_style: true

adapter:
  type: webhook
  url: https://hooks.example.com/wearlink
  headers:
    Authorization: Bearer ${WEBHOOK_TOKEN}
  timeout: 10s
  retries: 2

library:
  seed: ./library.yaml

metrics_path: /tmp/wearlink-metrics.json
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Role() != types.RolePhone || cfg.Device.SDKInt != 34 || !cfg.Device.Charging {
		t.Errorf("device = %+v", cfg.Device)
	}
	if cfg.Transport.Type != TransportTCP || cfg.Transport.Dial != "watch.local:7480" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	if cfg.Store.Backend != StoreSQLite {
		t.Errorf("store = %+v", cfg.Store)
	}
	if cfg.AutoSync.Interval.Duration != 2*time.Hour || cfg.AutoSync.BackoffBase.Duration != 45*time.Second {
		t.Errorf("autosync durations = %v %v", cfg.AutoSync.Interval, cfg.AutoSync.BackoffBase)
	}
	if cfg.AutoSync.MaxItems != 60 || !cfg.AutoSync.BatterySaver || cfg.AutoSync.UnmeteredOnly {
		t.Errorf("autosync = %+v", cfg.AutoSync)
	}
	if cfg.Archive.Backend != ArchiveS3 || !cfg.Archive.S3PathStyle || cfg.Archive.Region != "eu-west-1" {
		t.Errorf("archive = %+v", cfg.Archive)
	}
	if cfg.Adapter.Headers["Authorization"] != "Bearer token123" {
		t.Errorf("adapter headers = %v", cfg.Adapter.Headers)
	}
	if cfg.Adapter.Retries == nil || *cfg.Adapter.Retries != 2 {
		t.Errorf("adapter retries = %v", cfg.Adapter.Retries)
	}
	if cfg.Adapter.Timeout.Duration != 10*time.Second {
		t.Errorf("adapter timeout = %v", cfg.Adapter.Timeout)
	}
	if cfg.Library.Seed != "./library.yaml" || cfg.MetricsPath == "" {
		t.Errorf("library/metrics = %+v %q", cfg.Library, cfg.MetricsPath)
	}
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("device:\n  id: watch-2\n"), "inline")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Device.ID != "watch-2" {
		t.Errorf("device.id = %q", cfg.Device.ID)
	}
	if cfg.Device.Role != string(types.RoleWatch) {
		t.Errorf("role default lost: %q", cfg.Device.Role)
	}
	if cfg.Transport.Type != TransportMemory || cfg.Store.Backend != StoreMemory {
		t.Errorf("defaults lost: %+v %+v", cfg.Transport, cfg.Store)
	}
	if cfg.AutoSync.Interval.Duration != 6*time.Hour {
		t.Errorf("interval = %v", cfg.AutoSync.Interval)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil ||
		!strings.Contains(err.Error(), "not found") {
		t.Errorf("missing file err = %v", err)
	}
	if _, err := Load(writeTemp(t, "device: [unclosed")); err == nil ||
		!strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("bad yaml err = %v", err)
	}
	if _, err := Load(writeTemp(t, "autosync:\n  interval: soon\n")); err == nil ||
		!strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("bad duration err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	negative := -1
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"missing id", func(c *Config) { c.Device.ID = " " }, "device.id"},
		{"bad role", func(c *Config) { c.Device.Role = "tablet" }, "device.role"},
		{"bad transport", func(c *Config) { c.Transport.Type = "bluetooth" }, "transport.type"},
		{"tcp without address", func(c *Config) { c.Transport.Type = TransportTCP }, "listen or dial"},
		{"ws listen ok", func(c *Config) {
			c.Transport.Type = TransportWS
			c.Transport.Listen = ":7481"
		}, ""},
		{"redis without url", func(c *Config) { c.Store.Backend = StoreRedis }, "store redis"},
		{"sqlite without path", func(c *Config) { c.Store.Backend = StoreSQLite }, "store sqlite"},
		{"bad store", func(c *Config) { c.Store.Backend = "etcd" }, "store.backend"},
		{"negative max items", func(c *Config) { c.AutoSync.MaxItems = -5 }, "max_items"},
		{"negative interval", func(c *Config) { c.AutoSync.Interval = Duration{-time.Second} }, "durations"},
		{"fs archive without path", func(c *Config) { c.Archive.Backend = ArchiveFS }, "archive fs"},
		{"bad archive", func(c *Config) { c.Archive.Backend = "gcs" }, "archive.backend"},
		{"webhook without url", func(c *Config) { c.Adapter.Type = AdapterWebhook }, "adapter webhook"},
		{"negative retries", func(c *Config) {
			c.Adapter.Type = AdapterRedis
			c.Adapter.URL = "redis://localhost:6379"
			c.Adapter.Retries = &negative
		}, "adapter.retries"},
		{"bad adapter", func(c *Config) { c.Adapter.Type = "kafka" }, "adapter.type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("Validate = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := Default()
	cfg.Device.Role = "tablet"
	cfg.Store.Backend = "etcd"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"device.role", "store.backend"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
}

func TestDuration_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(struct {
		Interval Duration `yaml:"interval"`
	}{Duration{90 * time.Second}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.TrimSpace(string(out)) != "interval: 1m30s" {
		t.Errorf("yaml = %q", out)
	}
}
