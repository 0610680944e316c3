// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jonathan/resume-builder/internal/llm"
)

// Defaults applied to unset fields.
const (
	DefaultPort                     = 8080
	DefaultMaxConcurrentGenerations = 4
	DefaultFetchTimeout             = 15 * time.Second
	DefaultGenerationTimeout        = 60 * time.Second
	DefaultLogLevel                 = "info"
	DefaultLogFormat                = "text"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; environment variables and CLI flags override file values.
type Config struct {
	// Text generation
	Provider        string  `json:"provider,omitempty"`          // "gemini" or "openai"
	Model           string  `json:"model,omitempty"`             // Model name for bullet generation
	BaseURL         string  `json:"base_url,omitempty"`          // OpenAI-compatible endpoint override
	APIKey          string  `json:"api_key,omitempty"`           // Provider API key
	MaxOutputTokens int32   `json:"max_output_tokens,omitempty"` // Generated token budget
	TopK            int32   `json:"top_k,omitempty"`
	TopP            float32 `json:"top_p,omitempty"`
	Temperature     float32 `json:"temperature,omitempty"`

	// Server
	Port                     int `json:"port,omitempty"`
	MaxConcurrentGenerations int `json:"max_concurrent_generations,omitempty"` // Model calls in flight at once

	// Behavior
	UseBrowser               bool `json:"use_browser,omitempty"`                // Re-render short job pages in headless Chrome
	FetchTimeoutSeconds      int  `json:"fetch_timeout_seconds,omitempty"`      // Job posting download timeout
	GenerationTimeoutSeconds int  `json:"generation_timeout_seconds,omitempty"` // Whole-request budget for a model call

	// Logging
	LogLevel  string `json:"log_level,omitempty"`  // debug, info, warn, error
	LogFormat string `json:"log_format,omitempty"` // text, json, console
}

// Default returns a Config with every field at its default.
func Default() Config {
	sampling := llm.DefaultSampling()
	return Config{
		Provider:                 string(llm.ProviderGemini),
		MaxOutputTokens:          sampling.MaxOutputTokens,
		TopK:                     sampling.TopK,
		TopP:                     sampling.TopP,
		Temperature:              sampling.Temperature,
		Port:                     DefaultPort,
		MaxConcurrentGenerations: DefaultMaxConcurrentGenerations,
		FetchTimeoutSeconds:      int(DefaultFetchTimeout / time.Second),
		GenerationTimeoutSeconds: int(DefaultGenerationTimeout / time.Second),
		LogLevel:                 DefaultLogLevel,
		LogFormat:                DefaultLogFormat,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load builds the effective configuration: defaults, then the optional file at path,
// then environment overrides. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg.MergeWithDefaults(cfg)
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
// The API key falls back to GEMINI_API_KEY or OPENAI_API_KEY depending on the provider.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %s must be an integer: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("RESUME_PROVIDER", &c.Provider)
	setString("RESUME_MODEL", &c.Model)
	setString("RESUME_BASE_URL", &c.BaseURL)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)

	if err := setInt("PORT", &c.Port); err != nil {
		return err
	}
	if err := setInt("RESUME_MAX_CONCURRENT", &c.MaxConcurrentGenerations); err != nil {
		return err
	}

	if v := strings.TrimSpace(getenv("RESUME_USE_BROWSER")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config error: RESUME_USE_BROWSER must be a boolean: %w", err)
		}
		c.UseBrowser = b
	}

	if c.APIKey == "" {
		switch llm.Provider(c.Provider) {
		case llm.ProviderOpenAI:
			c.APIKey = getenv("OPENAI_API_KEY")
		default:
			c.APIKey = getenv("GEMINI_API_KEY")
		}
	}
	return nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for an API key since the OpenAI provider can run
// keyless against a local BaseURL, and generation falls back without a model.
func (c *Config) Validate() error {
	switch llm.Provider(c.Provider) {
	case llm.ProviderGemini, llm.ProviderOpenAI:
	default:
		return fmt.Errorf("config error: unknown provider %q (want gemini or openai)", c.Provider)
	}

	if c.MaxOutputTokens <= 0 {
		return fmt.Errorf("config error: 'max_output_tokens' must be positive")
	}
	if c.TopK < 0 {
		return fmt.Errorf("config error: 'top_k' must be non-negative")
	}
	if c.TopP <= 0 || c.TopP > 1 {
		return fmt.Errorf("config error: 'top_p' must be in (0, 1]")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("config error: 'temperature' must be in [0, 2]")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 1 and 65535")
	}
	if c.MaxConcurrentGenerations <= 0 {
		return fmt.Errorf("config error: 'max_concurrent_generations' must be positive")
	}
	if c.FetchTimeoutSeconds < 0 || c.GenerationTimeoutSeconds < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}

	switch c.LogFormat {
	case "text", "json", "console":
	default:
		return fmt.Errorf("config error: unknown log format %q", c.LogFormat)
	}

	return nil
}

// MergeWithDefaults returns a new Config with unset fields filled from defaults.
// This is used to apply built-in defaults beneath config file values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	if result.Provider == "" {
		result.Provider = defaults.Provider
	}
	if result.Model == "" {
		result.Model = defaults.Model
	}
	if result.BaseURL == "" {
		result.BaseURL = defaults.BaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}

	// Numeric fields: use default if zero
	if result.MaxOutputTokens == 0 {
		result.MaxOutputTokens = defaults.MaxOutputTokens
	}
	if result.TopK == 0 {
		result.TopK = defaults.TopK
	}
	if result.TopP == 0 {
		result.TopP = defaults.TopP
	}
	if result.Temperature == 0 {
		result.Temperature = defaults.Temperature
	}
	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.MaxConcurrentGenerations == 0 {
		result.MaxConcurrentGenerations = defaults.MaxConcurrentGenerations
	}
	if result.FetchTimeoutSeconds == 0 {
		result.FetchTimeoutSeconds = defaults.FetchTimeoutSeconds
	}
	if result.GenerationTimeoutSeconds == 0 {
		result.GenerationTimeoutSeconds = defaults.GenerationTimeoutSeconds
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags and env should always win for bools)

	return result
}

// LLMConfig returns the model configuration for the selected provider.
func (c *Config) LLMConfig() *llm.Config {
	cfg := llm.ConfigFor(llm.Provider(c.Provider))
	cfg.BaseURL = c.BaseURL
	if c.Model != "" {
		cfg = cfg.WithModel(llm.TierLite, c.Model)
	}
	return cfg.WithSampling(llm.Sampling{
		MaxOutputTokens: c.MaxOutputTokens,
		TopK:            c.TopK,
		TopP:            c.TopP,
		Temperature:     c.Temperature,
		CandidateCount:  1,
	})
}

// FetchTimeout is the job posting download timeout.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

// GenerationTimeout bounds one generation request; zero means no limit.
func (c *Config) GenerationTimeout() time.Duration {
	return time.Duration(c.GenerationTimeoutSeconds) * time.Second
}
