package llm

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// TaskType identifies the kind of LLM task being performed.
type TaskType string

const (
	TaskWeeklyPlan TaskType = "weekly_plan"
)

// Backend selects the Generator implementation.
type Backend string

const (
	BackendOllama Backend = "ollama"
	BackendGemini Backend = "gemini"
)

// LLMConfig holds all configuration for the LLM subsystem.
type LLMConfig struct {
	Backend     Backend `yaml:"backend"`
	LogCalls    bool    `yaml:"log_calls"`
	Endpoint    string  `yaml:"endpoint"`
	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key,omitempty"`
	TimeoutMs   int     `yaml:"timeout_ms"`
	MaxRetries  int     `yaml:"max_retries"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// DefaultConfig returns an LLMConfig with sensible defaults.
// Generation is attempted once; retries are opt-in.
func DefaultConfig() LLMConfig {
	return LLMConfig{
		Backend:     BackendOllama,
		LogCalls:    false,
		Endpoint:    "http://localhost:11434",
		Model:       "gemma2:2b",
		TimeoutMs:   120000,
		MaxRetries:  0,
		Temperature: 0.2,
		TopP:        0.9,
		MaxTokens:   400,
	}
}

// LoadConfig reads LLM configuration from environment variables,
// falling back to defaults for any unset values.
func LoadConfig() LLMConfig {
	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	return cfg
}

// ApplyEnv overrides cfg with any WEEKPLAN_LLM_* variables that are set.
// Invalid values are ignored.
func ApplyEnv(cfg *LLMConfig) {
	if v := os.Getenv("WEEKPLAN_LLM_BACKEND"); v != "" {
		cfg.Backend = Backend(strings.ToLower(strings.TrimSpace(v)))
	}
	if v := os.Getenv("WEEKPLAN_LLM_LOG_CALLS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.LogCalls = b
		}
	}
	if v := os.Getenv("WEEKPLAN_LLM_ENDPOINT"); v != "" {
		cfg.Endpoint = v
	}
	if v := os.Getenv("HF_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("WEEKPLAN_LLM_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("WEEKPLAN_LLM_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("WEEKPLAN_LLM_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeoutMs = n
		}
	}
	if v := os.Getenv("WEEKPLAN_LLM_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.MaxRetries = n
		}
	}
	if v := os.Getenv("WEEKPLAN_LLM_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 2 {
			cfg.Temperature = f
		}
	}
	if v := os.Getenv("WEEKPLAN_LLM_TOP_P"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 && f <= 1 {
			cfg.TopP = f
		}
	}
	if v := os.Getenv("WEEKPLAN_LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTokens = n
		}
	}
}

// Timeout returns the per-attempt timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// resolve fills the unset fields of req from the config.
func (c LLMConfig) resolve(req GenerateRequest) (model string, temp, topP float64, maxTok int) {
	model = c.Model
	if req.Model != "" {
		model = req.Model
	}
	temp = c.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	topP = c.TopP
	if req.TopP != nil {
		topP = *req.TopP
	}
	maxTok = c.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}
	return model, temp, topP, maxTok
}
