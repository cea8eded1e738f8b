// Package llm provides centralized LLM configuration and client abstractions.
// Field extractors that delegate to a reasoning service depend only on Client.
package llm

import "time"

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for short lookups: phone, contact details
	TierLite ModelTier = "lite"
	// TierStandard is for list extraction: skills, education, experience
	TierStandard ModelTier = "standard"
	// TierAdvanced is reserved for long or ambiguous documents
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI chat completions provider
	ProviderOpenAI Provider = "openai"
)

// Config holds the model configuration for a client
type Config struct {
	Provider    Provider
	Models      map[ModelTier]string
	Temperature float32

	// HTTP providers only
	BaseURL     string
	HTTPTimeout time.Duration
	MaxRetries  int
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
		Temperature: 0.1,
	}
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o-mini",
			TierAdvanced: "gpt-4o",
		},
		Temperature: 0,
		BaseURL:     "https://api.openai.com/v1",
		HTTPTimeout: 60 * time.Second,
		MaxRetries:  2,
	}
}

// ConfigFor returns the default configuration for a provider name.
// Unknown names return nil.
func ConfigFor(provider string) *Config {
	switch Provider(provider) {
	case ProviderGemini:
		return DefaultGeminiConfig()
	case ProviderOpenAI:
		return DefaultOpenAIConfig()
	default:
		return nil
	}
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
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}

// WithAllModels returns a new Config using one model for every tier
func (c *Config) WithAllModels(model string) *Config {
	out := c
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		out = out.WithModel(tier, model)
	}
	return out
}
