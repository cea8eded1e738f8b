package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jonathan/resume-parser/internal/logger"
)

// OpenAIClient implements Client over the chat completions HTTP API
type OpenAIClient struct {
	httpClient *http.Client
	config     *Config
	apiKey     string
	logger     zerolog.Logger
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if config.BaseURL == "" {
		return nil, fmt.Errorf("openai: base URL is required")
	}

	timeout := config.HTTPTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
		apiKey:     apiKey,
		logger:     logger.For("llm"),
	}, nil
}

// GenerateContent sends prompt as a single user message
func (c *OpenAIClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	req := chatRequest{
		Model: modelName,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: c.config.Temperature,
	}
	headers := map[string]string{"Authorization": "Bearer " + c.apiKey}
	retry := DefaultRetryConfig()
	retry.MaxAttempts = c.config.MaxRetries + 1

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	raw, err := SendJSON(ctx, c.httpClient, url, req, headers, retry, c.logger)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	var resp chatResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response")
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("empty message content in response")
	}
	return content, nil
}

// GenerateJSON is GenerateContent with markdown fences stripped.
// The payload may be an array, so JSON response mode is not forced.
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	text, err := c.GenerateContent(ctx, prompt, tier)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases idle connections
func (c *OpenAIClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
