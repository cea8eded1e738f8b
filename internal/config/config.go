// Package config provides configuration loading and validation for the parser.
//
// Values come from three layers applied in order: built-in defaults, an optional
// JSON file, and RESUME_PARSER_* environment variables.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/jonathan/resume-parser/internal/logger"
)

// MIME types accepted by default
const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// MimeText and MimeHTML are routed by default but not allow-listed.
	// Add them to Files.AllowedTypes (or RESUME_PARSER_ALLOWED_MIME_TYPES) to
	// accept .txt, .md, .html and .htm uploads.
	MimeText = "text/plain"
	MimeHTML = "text/html"
)

// Config is the full parser configuration, read once at startup.
type Config struct {
	Files      FilesConfig      `json:"files"`
	Timeouts   TimeoutsConfig   `json:"timeouts"`
	Extraction ExtractionConfig `json:"extraction"`
	LLM        LLMConfig        `json:"llm"`
	Server     ServerConfig     `json:"server"`
	RateLimit  RateLimitConfig  `json:"rate_limit"`
	Log        logger.Config    `json:"log"`
}

// FilesConfig bounds accepted input files
type FilesConfig struct {
	MaxSize      int64    `json:"max_size,omitempty"`      // bytes
	AllowedTypes []string `json:"allowed_types,omitempty"` // detected MIME types
}

// TimeoutsConfig holds per-stage deadlines
type TimeoutsConfig struct {
	Parse      Duration `json:"parse,omitempty"`      // text extraction
	Extraction Duration `json:"extraction,omitempty"` // each delegated field request
}

// ExtractionConfig tunes the field extraction stage
type ExtractionConfig struct {
	Concurrency int            `json:"concurrency,omitempty"`
	Truncation  map[string]int `json:"truncation,omitempty"` // field -> max prompt input runes, 0 = unbounded
}

// LLMConfig selects and configures the delegated reasoning provider
type LLMConfig struct {
	Provider     string   `json:"provider,omitempty"` // gemini or openai
	Model        string   `json:"model,omitempty"`
	Temperature  float64  `json:"temperature,omitempty"`
	BaseURL      string   `json:"base_url,omitempty"`
	Timeout      Duration `json:"timeout,omitempty"`
	MaxRetries   int      `json:"max_retries,omitempty"`
	GeminiAPIKey string   `json:"-"`
	OpenAIAPIKey string   `json:"-"`
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// RateLimitConfig configures the token bucket guarding the parse endpoint
type RateLimitConfig struct {
	Enabled   bool     `json:"enabled"`
	Limit     int      `json:"limit,omitempty"`
	Window    Duration `json:"window,omitempty"`
	Burst     int      `json:"burst,omitempty"`
	Allowlist []string `json:"allowlist,omitempty"` // client IPs never limited
	Denylist  []string `json:"denylist,omitempty"`  // client IPs always rejected
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Files: FilesConfig{
			MaxSize:      10 * 1024 * 1024,
			AllowedTypes: []string{MimePDF, MimeDOCX},
		},
		Timeouts: TimeoutsConfig{
			Parse:      Duration(30 * time.Second),
			Extraction: Duration(30 * time.Second),
		},
		Extraction: ExtractionConfig{
			Concurrency: 4,
			Truncation: map[string]int{
				"name":       500,
				"email":      1000,
				"phone":      1000,
				"skills":     3000,
				"education":  8000,
				"experience": 8000,
			},
		},
		LLM: LLMConfig{
			Provider:   "gemini",
			BaseURL:    "https://api.openai.com/v1",
			Timeout:    Duration(60 * time.Second),
			MaxRetries: 2,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		RateLimit: RateLimitConfig{
			Enabled: true,
			Limit:   30,
			Window:  Duration(time.Minute),
			Burst:   5,
		},
		Log: logger.Config{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadFile reads a JSON configuration file and fills unset values from Default.
func LoadFile(path string) (*Config, error) {
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

	// rate_limit.enabled keeps its default when the file omits it
	cfg := Default()
	cfg.Extraction.Truncation = nil
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	merged := cfg.MergeWithDefaults(Default())
	return &merged, nil
}

// Load builds the configuration from defaults, an optional file, and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = *fileCfg
	}

	if err := ApplyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has usable values.
func (c *Config) Validate() error {
	if c.Files.MaxSize <= 0 {
		return fmt.Errorf("config error: 'files.max_size' must be positive")
	}
	if len(c.Files.AllowedTypes) == 0 {
		return fmt.Errorf("config error: 'files.allowed_types' must not be empty")
	}
	if c.Timeouts.Parse < 0 || c.Timeouts.Extraction < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}
	if c.Extraction.Concurrency < 1 {
		return fmt.Errorf("config error: 'extraction.concurrency' must be at least 1")
	}
	for field, n := range c.Extraction.Truncation {
		if n < 0 {
			return fmt.Errorf("config error: truncation for %q must be non-negative", field)
		}
	}
	if !slices.Contains([]string{"gemini", "openai"}, c.LLM.Provider) {
		return fmt.Errorf("config error: unsupported llm provider %q (use gemini or openai)", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("config error: 'llm.temperature' must be between 0 and 2")
	}
	if c.LLM.MaxRetries < 0 {
		return fmt.Errorf("config error: 'llm.max_retries' must be non-negative")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' must be between 1 and 65535")
	}
	if c.Log.Format != "" && c.Log.Format != "json" && c.Log.Format != "pretty" {
		return fmt.Errorf("config error: 'log.format' must be json or pretty")
	}
	return nil
}

// MergeWithDefaults returns a copy with zero-valued fields filled from defaults.
// Booleans and temperature are taken as-is since zero is a meaningful value.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Files.MaxSize == 0 {
		result.Files.MaxSize = defaults.Files.MaxSize
	}
	if len(result.Files.AllowedTypes) == 0 {
		result.Files.AllowedTypes = slices.Clone(defaults.Files.AllowedTypes)
	}
	if result.Timeouts.Parse == 0 {
		result.Timeouts.Parse = defaults.Timeouts.Parse
	}
	if result.Timeouts.Extraction == 0 {
		result.Timeouts.Extraction = defaults.Timeouts.Extraction
	}
	if result.Extraction.Concurrency == 0 {
		result.Extraction.Concurrency = defaults.Extraction.Concurrency
	}

	truncation := make(map[string]int, len(defaults.Extraction.Truncation))
	for field, n := range defaults.Extraction.Truncation {
		truncation[field] = n
	}
	for field, n := range result.Extraction.Truncation {
		truncation[field] = n
	}
	result.Extraction.Truncation = truncation

	if result.LLM.Provider == "" {
		result.LLM.Provider = defaults.LLM.Provider
	}
	if result.LLM.BaseURL == "" {
		result.LLM.BaseURL = defaults.LLM.BaseURL
	}
	if result.LLM.Timeout == 0 {
		result.LLM.Timeout = defaults.LLM.Timeout
	}
	if result.LLM.MaxRetries == 0 {
		result.LLM.MaxRetries = defaults.LLM.MaxRetries
	}
	if result.Server.Host == "" {
		result.Server.Host = defaults.Server.Host
	}
	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if result.RateLimit.Limit == 0 {
		result.RateLimit.Limit = defaults.RateLimit.Limit
	}
	if result.RateLimit.Window == 0 {
		result.RateLimit.Window = defaults.RateLimit.Window
	}
	if result.RateLimit.Burst == 0 {
		result.RateLimit.Burst = defaults.RateLimit.Burst
	}
	if result.Log.Level == "" {
		result.Log.Level = defaults.Log.Level
	}
	if result.Log.Format == "" {
		result.Log.Format = defaults.Log.Format
	}

	return result
}

// TruncationFor returns the prompt input limit for a field (0 = unbounded).
func (e ExtractionConfig) TruncationFor(field string) int {
	return e.Truncation[field]
}

// APIKey returns the credential for the configured provider.
func (l LLMConfig) APIKey() string {
	if strings.EqualFold(l.Provider, "openai") {
		return l.OpenAIAPIKey
	}
	return l.GeminiAPIKey
}

// Addr returns host:port for the HTTP listener
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
