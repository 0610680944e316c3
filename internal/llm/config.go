// Package llm provides centralized LLM configuration and client abstractions.
// This package enables easy switching between model tiers and providers.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: short free-text completions such as resume bullets
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is any OpenAI-compatible chat completion endpoint
	ProviderOpenAI Provider = "openai"
)

// Sampling holds the decoding parameters sent with every generation request.
type Sampling struct {
	MaxOutputTokens int32   // Upper bound on generated tokens
	TopK            int32   // Vocabulary breadth per step; 0 leaves the provider default
	TopP            float32 // Nucleus (cumulative-probability) truncation
	Temperature     float32
	CandidateCount  int32 // Number of continuations requested
}

// DefaultSampling returns the sampling used for bullet generation.
func DefaultSampling() Sampling {
	return Sampling{
		MaxOutputTokens: 180,
		TopK:            50,
		TopP:            0.9,
		Temperature:     1.0,
		CandidateCount:  1,
	}
}

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	BaseURL  string // Optional endpoint override (OpenAI-compatible servers)
	Sampling Sampling
}

// DefaultConfig returns the default configuration (currently Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
		Sampling: DefaultSampling(),
	}
}

// DefaultOpenAIConfig returns the default OpenAI-compatible configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o-mini",
			TierAdvanced: "gpt-4o",
		},
		Sampling: DefaultSampling(),
	}
}

// ConfigFor returns the default configuration for a provider.
// Unknown providers get the Gemini defaults.
func ConfigFor(provider Provider) *Config {
	if provider == ProviderOpenAI {
		return DefaultOpenAIConfig()
	}
	return DefaultGeminiConfig()
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := c.clone()
	newConfig.Models[tier] = model
	return newConfig
}

// WithSampling returns a new Config with the given sampling parameters
func (c *Config) WithSampling(sampling Sampling) *Config {
	newConfig := c.clone()
	newConfig.Sampling = sampling
	return newConfig
}

func (c *Config) clone() *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)),
		BaseURL:  c.BaseURL,
		Sampling: c.Sampling,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	return newConfig
}
