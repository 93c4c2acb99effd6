package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Serve.Addr != DefaultAddr {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, DefaultAddr)
	}
	if cfg.List.Tag != DefaultTag {
		t.Errorf("List.Tag = %q, want %q", cfg.List.Tag, DefaultTag)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	_, err := Load(tmpDir)
	if err == nil {
		t.Fatal("Expected error for missing config")
	}
	if !strings.Contains(err.Error(), "C003") {
		t.Errorf("Expected C003 error, got: %v", err)
	}

	configJSON := `{
  "log": {"level": "debug", "format": "json"},
  "list": {"maxRetained": 64},
  "serve": {"addr": "0.0.0.0:9000", "tick": "2s"},
  "bench": {"items": 10}
}
`
	if err := os.WriteFile(filepath.Join(tmpDir, ConfigFileName), []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
	if cfg.List.MaxRetained != 64 {
		t.Errorf("List.MaxRetained = %d, want %d", cfg.List.MaxRetained, 64)
	}
	if cfg.Serve.Addr != "0.0.0.0:9000" {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, "0.0.0.0:9000")
	}
	if cfg.TickInterval() != 2*time.Second {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval(), 2*time.Second)
	}
	if cfg.Bench.Items != 10 {
		t.Errorf("Bench.Items = %d, want %d", cfg.Bench.Items, 10)
	}
	if cfg.Bench.Rounds != 200 {
		t.Errorf("Bench.Rounds = %d, want default %d", cfg.Bench.Rounds, 200)
	}
	if cfg.List.Tag != DefaultTag {
		t.Errorf("List.Tag = %q, want default %q", cfg.List.Tag, DefaultTag)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "C001") {
		t.Errorf("Expected C001 error, got: %v", err)
	}
}

func TestLoadFile_InvalidValue(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)
	if err := os.WriteFile(configPath, []byte(`{"serve": {"tick": "soon"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil || !strings.Contains(err.Error(), "C002") {
		t.Errorf("Expected C002 error, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"level", func(c *Config) { c.Log.Level = "loud" }},
		{"format", func(c *Config) { c.Log.Format = "xml" }},
		{"polls", func(c *Config) { c.Executor.MaxPollsPerTick = -1 }},
		{"retained", func(c *Config) { c.List.MaxRetained = -1 }},
		{"tick", func(c *Config) { c.Serve.Tick = "-1s" }},
		{"rounds", func(c *Config) { c.Bench.Rounds = -3 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.modify(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LIVEUI_ADDR", ":7000")
	t.Setenv("LIVEUI_LOG_LEVEL", "warn")
	t.Setenv("LIVEUI_TICK", "1s")

	cfg := New()
	cfg.ApplyEnv()

	if cfg.Serve.Addr != ":7000" {
		t.Errorf("Serve.Addr = %q, want %q", cfg.Serve.Addr, ":7000")
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}
	if cfg.TickInterval() != time.Second {
		t.Errorf("TickInterval = %v, want %v", cfg.TickInterval(), time.Second)
	}
}

func TestSaveTo(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), ConfigFileName)

	cfg := New()
	cfg.Serve.Items = 3
	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}
	if cfg.Path() != configPath {
		t.Errorf("Path = %q, want %q", cfg.Path(), configPath)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Serve.Items != 3 {
		t.Errorf("Serve.Items = %d, want %d", loaded.Serve.Items, 3)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := New()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	logger := cfg.NewLogger(&buf)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info record should be filtered at warn level")
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"app":"liveui"`) {
		t.Errorf("unexpected output: %s", out)
	}
}
