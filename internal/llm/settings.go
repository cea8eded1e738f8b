package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/resume-parser/internal/config"
)

// ConfigFromSettings turns the loaded LLM settings into a client Config.
// A configured model applies to every tier. A zero temperature keeps the
// provider default.
func ConfigFromSettings(s config.LLMConfig) (*Config, error) {
	provider := strings.ToLower(strings.TrimSpace(s.Provider))
	if provider == "" {
		provider = string(ProviderGemini)
	}
	cfg := ConfigFor(provider)
	if cfg == nil {
		return nil, fmt.Errorf("unsupported LLM provider %q", s.Provider)
	}

	if s.Model != "" {
		cfg = cfg.WithAllModels(s.Model)
	}
	if s.Temperature > 0 {
		cfg.Temperature = float32(s.Temperature)
	}
	if cfg.Provider == ProviderOpenAI {
		if s.BaseURL != "" {
			cfg.BaseURL = strings.TrimRight(s.BaseURL, "/")
		}
		if s.Timeout > 0 {
			cfg.HTTPTimeout = s.Timeout.Std()
		}
		cfg.MaxRetries = s.MaxRetries
	}
	return cfg, nil
}

// NewClientFromSettings builds a Client from loaded settings
func NewClientFromSettings(ctx context.Context, s config.LLMConfig) (Client, error) {
	cfg, err := ConfigFromSettings(s)
	if err != nil {
		return nil, err
	}
	return NewClient(ctx, cfg, s.APIKey())
}
