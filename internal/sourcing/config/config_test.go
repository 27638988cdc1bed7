package config

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/build-flow-labs/vendorscore/schema"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendorscore.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(NewViper(), "")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	w, want := cfg.Weights.ToWeights(), schema.DefaultWeights()
	for _, p := range schema.Pillars {
		if math.Abs(w.Get(p)-want.Get(p)) > 1e-9 {
			t.Errorf("%s weight = %v, want %v", p, w.Get(p), want.Get(p))
		}
	}
	if cfg.Thresholds.StaleDays != 120 || cfg.Thresholds.OceanTransitHighDays != 35 {
		t.Errorf("thresholds = %+v, want defaults", cfg.Thresholds)
	}
	if cfg.Source.Notion.MinInterval != 350*time.Millisecond {
		t.Errorf("notion min interval = %v, want 350ms", cfg.Source.Notion.MinInterval)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr = %q, want :8080", cfg.Server.Addr)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
weights:
  total_cost: 2
  total_time: 1
  maturity: 1
  capacity: 0
thresholds:
  stale_days: 90
source:
  kind: github
  github:
    owner: acme
    repo: sourcing
    path: data/vendors.yaml
history:
  dsn: "file::memory:"
log:
  level: debug
  format: json
`)

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	w := cfg.Weights.ToWeights()
	if w.Cost != 0.5 || w.Capacity != 0 {
		t.Errorf("weights = %+v, want cost 0.5 capacity 0", w)
	}
	if cfg.Thresholds.StaleDays != 90 {
		t.Errorf("stale_days = %d, want 90", cfg.Thresholds.StaleDays)
	}
	// Unset keys keep their defaults.
	if cfg.Thresholds.StaleHighDays != 180 {
		t.Errorf("stale_high_days = %d, want 180", cfg.Thresholds.StaleHighDays)
	}
	if cfg.Source.GitHub.Ref != "main" {
		t.Errorf("github ref = %q, want main", cfg.Source.GitHub.Ref)
	}
	if cfg.History.DSN != "file::memory:" {
		t.Errorf("history dsn = %q", cfg.History.DSN)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "source:\n  kind: file\n  file:\n    path: a.yaml\n")
	t.Setenv("VENDORSCORE_SOURCE_FILE_PATH", "b.yaml")
	t.Setenv("VENDORSCORE_THRESHOLDS_MIN_CAPACITY", "8000")
	t.Setenv("VENDORSCORE_SOURCE_NOTION_MIN_INTERVAL", "1s")

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.File.Path != "b.yaml" {
		t.Errorf("file path = %q, want b.yaml", cfg.Source.File.Path)
	}
	if cfg.Thresholds.MinCapacity != 8000 {
		t.Errorf("min_capacity = %d, want 8000", cfg.Thresholds.MinCapacity)
	}
	if cfg.Source.Notion.MinInterval != time.Second {
		t.Errorf("min_interval = %v, want 1s", cfg.Source.Notion.MinInterval)
	}
}

func TestLoadTokenFallback(t *testing.T) {
	path := writeConfig(t, "source:\n  kind: notion\n  notion:\n    vendors_database: v\n    parts_database: p\n")
	t.Setenv("NOTION_TOKEN", "secret")

	cfg, err := Load(NewViper(), path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Notion.Token != "secret" {
		t.Errorf("notion token = %q, want secret", cfg.Source.Notion.Token)
	}
}

func TestBindFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("addr", ":8080", "")
	if err := fs.Parse([]string{"--addr", ":9999"}); err != nil {
		t.Fatal(err)
	}

	v := NewViper()
	if err := BindFlags(v, fs, map[string]string{"server.addr": "addr", "log.level": "missing"}); err != nil {
		t.Fatal(err)
	}
	t.Chdir(t.TempDir())
	cfg, err := Load(v, "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("server addr = %q, want :9999", cfg.Server.Addr)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults ok", func(*Config) {}, ""},
		{"unknown kind", func(c *Config) { c.Source.Kind = "ftp" }, "unknown source.kind"},
		{"notion without token", func(c *Config) {
			c.Source.Kind = SourceNotion
			c.Source.Notion.VendorsDatabase, c.Source.Notion.PartsDatabase = "v", "p"
		}, "source.notion.token"},
		{"github without repo", func(c *Config) { c.Source.Kind = SourceGitHub }, "owner and repo"},
		{"negative weight", func(c *Config) { c.Weights.Capacity = -1 }, "must not be negative"},
		{"inverted stale bounds", func(c *Config) { c.Thresholds.StaleHighDays = 10 }, "stale_high_days"},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "warn", Format: "json"}.Logger(&buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "vendor", "acme")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record written at warn level")
	}
	if !strings.Contains(out, `"vendor":"acme"`) {
		t.Errorf("output = %q, want JSON attrs", out)
	}
}
