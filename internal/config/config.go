package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vango-dev/liveui/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "liveui.json"

	// DefaultAddr is the default listen address of the serve command.
	DefaultAddr = "localhost:8080"

	// DefaultTick is the default interval between list edits in serve.
	DefaultTick = "500ms"

	// DefaultTag is the default element tag of list items.
	DefaultTag = "li"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "liveui"
)

// Config represents liveui.json.
type Config struct {
	// Name labels logs and metrics.
	Name string `json:"name,omitempty"`

	// Log contains logger configuration.
	Log LogConfig `json:"log,omitempty"`

	// Executor contains executor configuration.
	Executor ExecutorConfig `json:"executor,omitempty"`

	// List contains list and reconciler configuration.
	List ListConfig `json:"list,omitempty"`

	// Serve contains configuration of the serve command.
	Serve ServeConfig `json:"serve,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Bench contains defaults of the bench command.
	Bench BenchConfig `json:"bench,omitempty"`

	configPath string
}

// LogConfig configures the logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	// MaxPollsPerTick bounds one run of the executor. 0 means no bound.
	MaxPollsPerTick int `json:"maxPollsPerTick,omitempty"`
}

// ListConfig configures lists and reconcilers.
type ListConfig struct {
	// Tag is the element tag of list items.
	Tag string `json:"tag,omitempty"`

	// MaxRetained caps the change log. 0 means no cap.
	MaxRetained int `json:"maxRetained,omitempty"`
}

// ServeConfig configures the serve command.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// Tick is the interval between list edits (e.g., "500ms").
	Tick string `json:"tick,omitempty"`

	// Items is the number of items the served list starts with.
	Items int `json:"items,omitempty"`
}

// MetricsConfig configures Prometheus collectors.
type MetricsConfig struct {
	// Enabled exposes /metrics in serve.
	Enabled bool `json:"enabled,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// BenchConfig contains defaults of the bench command.
type BenchConfig struct {
	Items  int `json:"items,omitempty"`
	Rounds int `json:"rounds,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	return &Config{
		Name: "liveui",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		List: ListConfig{
			Tag: DefaultTag,
		},
		Serve: ServeConfig{
			Addr:  DefaultAddr,
			Tick:  DefaultTick,
			Items: 8,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
		Bench: BenchConfig{
			Items:  1000,
			Rounds: 200,
		},
	}
}

// Load loads liveui.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads a configuration file, applies defaults and environment
// overrides, and validates the result.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C003").
				WithDetail("No liveui.json found in " + filepath.Dir(path)).
				WithSuggestion("Create liveui.json or run without --config to use defaults")
		}
		return nil, errors.New("C001").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C001").
			WithDetail("Failed to parse liveui.json: " + err.Error()).
			WithSuggestion("Check that liveui.json is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C001").Wrap(err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C001").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path the configuration was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "liveui"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.List.Tag == "" {
		c.List.Tag = DefaultTag
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.Tick == "" {
		c.Serve.Tick = DefaultTick
	}
	if c.Serve.Items == 0 {
		c.Serve.Items = 8
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Bench.Items == 0 {
		c.Bench.Items = 1000
	}
	if c.Bench.Rounds == 0 {
		c.Bench.Rounds = 200
	}
}

// ApplyEnv applies LIVEUI_* environment overrides.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LIVEUI_ADDR"); v != "" {
		c.Serve.Addr = v
	}
	if v := os.Getenv("LIVEUI_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LIVEUI_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("LIVEUI_TICK"); v != "" {
		c.Serve.Tick = v
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("C002").
			WithDetail("log.level must be debug, info, warn or error, got " + c.Log.Level)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("C002").
			WithDetail("log.format must be text or json, got " + c.Log.Format)
	}
	if c.Executor.MaxPollsPerTick < 0 {
		return errors.New("C002").
			WithDetail("executor.maxPollsPerTick must not be negative")
	}
	if c.List.MaxRetained < 0 {
		return errors.New("C002").
			WithDetail("list.maxRetained must not be negative")
	}
	if d, err := time.ParseDuration(c.Serve.Tick); err != nil || d <= 0 {
		return errors.New("C002").
			WithDetail("serve.tick must be a positive duration, got " + c.Serve.Tick)
	}
	if c.Serve.Items < 0 || c.Bench.Items < 0 || c.Bench.Rounds < 0 {
		return errors.New("C002").
			WithDetail("item and round counts must not be negative")
	}
	return nil
}

// TickInterval returns Serve.Tick as a duration.
func (c *Config) TickInterval() time.Duration {
	d, err := time.ParseDuration(c.Serve.Tick)
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(DefaultTick)
	}
	return d
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// NewLogger builds the logger described by Log, writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(c.Log.Level)
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if c.Log.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h).With("app", c.Name)
}
