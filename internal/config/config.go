package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/alexanderramin/weekplan/internal/llm"
)

const (
	fileName   = "config.yaml"
	defaultDir = ".weekplan"
	redacted   = "********"
)

// Config holds all weekplan configuration.
type Config struct {
	// Home is the state directory holding config.yaml and logs/. It comes
	// from WEEKPLAN_HOME, never from the file itself.
	Home string `yaml:"-"`

	Debug   bool          `yaml:"debug"`
	Logging LoggingConfig `yaml:"logging"`
	Tracing TracingConfig `yaml:"tracing"`
	Batch   BatchConfig   `yaml:"batch"`
	LLM     llm.LLMConfig `yaml:"llm"`
}

// LoggingConfig configures the rotating log file.
type LoggingConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// TracingConfig configures OpenTelemetry export. Tracing is off while
// Endpoint is empty.
type TracingConfig struct {
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// BatchConfig configures the batch command.
type BatchConfig struct {
	Workers int `yaml:"workers"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Home:  DefaultHome(),
		Debug: false,
		Logging: LoggingConfig{
			Level:      "warn",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
			Compress:   true,
		},
		Tracing: TracingConfig{
			ServiceName: "weekplan",
			SampleRatio: 1.0,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		LLM: llm.DefaultConfig(),
	}
}

// DefaultHome returns $WEEKPLAN_HOME, or ~/.weekplan.
func DefaultHome() string {
	if v := strings.TrimSpace(os.Getenv("WEEKPLAN_HOME")); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultDir
	}
	return filepath.Join(home, defaultDir)
}

// DefaultPath returns the config file location inside home.
func DefaultPath(home string) string {
	return filepath.Join(home, fileName)
}

// Load reads configuration from a YAML file. An empty path means the
// default location. A missing file yields defaults. Environment variables
// override file values.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultPath(cfg.Home)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("WEEKPLAN_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
	if v := os.Getenv("WEEKPLAN_OTEL_ENDPOINT"); v != "" {
		c.Tracing.Endpoint = v
	}
	if v := os.Getenv("WEEKPLAN_OTEL_SAMPLE_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			c.Tracing.SampleRatio = f
		}
	}
	if v := os.Getenv("WEEKPLAN_BATCH_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Batch.Workers = n
		}
	}

	llm.ApplyEnv(&c.LLM)
}

// Validate checks values a file can get wrong.
func (c *Config) Validate() error {
	switch c.LLM.Backend {
	case llm.BackendOllama, llm.BackendGemini:
	default:
		return fmt.Errorf("llm.backend must be %q or %q, got %q", llm.BackendOllama, llm.BackendGemini, c.LLM.Backend)
	}
	if c.LLM.TimeoutMs <= 0 {
		return fmt.Errorf("llm.timeout_ms must be positive")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.max_retries must not be negative")
	}
	if c.Batch.Workers <= 0 {
		return fmt.Errorf("batch.workers must be positive")
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0,1]")
	}
	return nil
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	out := *c
	if out.LLM.APIKey != "" {
		out.LLM.APIKey = redacted
	}
	return &out
}

// LogDir is where the rotating log file lives.
func (c *Config) LogDir() string {
	return filepath.Join(c.Home, "logs")
}
