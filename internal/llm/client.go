package llm

import (
	"context"
	"errors"
	"fmt"
)

// systemPrompt frames every delegated extraction call
const systemPrompt = "You are an expert technical recruiter who extracts structured data from resumes. Reply with raw JSON only."

// Client is what field extractors need from a reasoning service.
//
// GenerateJSON returns text expected to hold exactly one JSON value, with any
// markdown fences removed. Callers still parse and validate it.
type Client interface {
	GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	GetModel(tier ModelTier) string
	Close() error
}

// ErrMissingAPIKey is returned when a client is constructed without credentials
var ErrMissingAPIKey = errors.New("API key is required")

// NewClient builds the client for config.Provider. A nil config means the
// Gemini defaults. It fails immediately when apiKey is empty.
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini:
		c, err := NewGeminiClient(ctx, config, apiKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	case ProviderOpenAI:
		c, err := NewOpenAIClient(config, apiKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}
