package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// EnvPrefix is prepended to every parser-specific environment variable.
const EnvPrefix = "RESUME_PARSER_"

// ApplyEnv overlays environment variables onto cfg. Unset variables leave the
// current value untouched; malformed values are reported.
//
// Provider credentials use their conventional unprefixed names (GEMINI_API_KEY,
// OPENAI_API_KEY, OPENAI_MODEL, OPENAI_TEMPERATURE).
func ApplyEnv(cfg *Config) error {
	var errs []string
	fail := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s: %v", key, err))
	}

	if v, ok := lookup("MAX_FILE_SIZE"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			fail(EnvPrefix+"MAX_FILE_SIZE", err)
		} else {
			cfg.Files.MaxSize = n
		}
	}
	if v, ok := lookup("ALLOWED_MIME_TYPES"); ok {
		cfg.Files.AllowedTypes = splitList(v)
	}
	durationVar(&cfg.Timeouts.Parse, "PARSING_TIMEOUT", fail)
	durationVar(&cfg.Timeouts.Extraction, "EXTRACTION_TIMEOUT", fail)
	intVar(&cfg.Extraction.Concurrency, "EXTRACTION_CONCURRENCY", fail)

	for _, field := range []string{"name", "email", "phone", "skills", "education", "experience"} {
		key := "TRUNCATE_" + strings.ToUpper(field)
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				fail(EnvPrefix+key, err)
				continue
			}
			if cfg.Extraction.Truncation == nil {
				cfg.Extraction.Truncation = make(map[string]int)
			}
			cfg.Extraction.Truncation[field] = n
		}
	}

	if v, ok := lookup("LLM_PROVIDER"); ok {
		cfg.LLM.Provider = strings.ToLower(v)
	}
	if v, ok := lookup("LLM_MODEL"); ok {
		cfg.LLM.Model = v
	}
	if v, ok := lookup("LLM_BASE_URL"); ok {
		cfg.LLM.BaseURL = v
	}
	durationVar(&cfg.LLM.Timeout, "LLM_TIMEOUT", fail)
	intVar(&cfg.LLM.MaxRetries, "LLM_MAX_RETRIES", fail)

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.GeminiAPIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.LLM.OpenAIAPIKey = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" && cfg.LLM.Provider == "openai" && cfg.LLM.Model == "" {
		cfg.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_TEMPERATURE"); v != "" {
		t, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fail("OPENAI_TEMPERATURE", err)
		} else {
			cfg.LLM.Temperature = t
		}
	}

	if v, ok := lookup("API_HOST"); ok {
		cfg.Server.Host = v
	}
	intVar(&cfg.Server.Port, "API_PORT", fail)

	if v, ok := lookup("RATE_LIMIT_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			fail(EnvPrefix+"RATE_LIMIT_ENABLED", err)
		} else {
			cfg.RateLimit.Enabled = b
		}
	}
	intVar(&cfg.RateLimit.Limit, "RATE_LIMIT_LIMIT", fail)
	intVar(&cfg.RateLimit.Burst, "RATE_LIMIT_BURST", fail)
	durationVar(&cfg.RateLimit.Window, "RATE_LIMIT_WINDOW", fail)
	if v, ok := lookup("RATE_LIMIT_ALLOWLIST"); ok {
		cfg.RateLimit.Allowlist = splitList(v)
	}
	if v, ok := lookup("RATE_LIMIT_DENYLIST"); ok {
		cfg.RateLimit.Denylist = splitList(v)
	}

	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.Log.Level = strings.ToLower(v)
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.Log.Format = strings.ToLower(v)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config error: invalid environment: %s", strings.Join(errs, "; "))
	}
	return nil
}

// lookup reads RESUME_PARSER_<key>, treating empty values as unset.
func lookup(key string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(EnvPrefix + key))
	return v, v != ""
}

func intVar(dst *int, key string, fail func(string, error)) {
	if v, ok := lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			fail(EnvPrefix+key, err)
			return
		}
		*dst = n
	}
}

func durationVar(dst *Duration, key string, fail func(string, error)) {
	if v, ok := lookup(key); ok {
		d, err := ParseDuration(v)
		if err != nil {
			fail(EnvPrefix+key, err)
			return
		}
		*dst = d
	}
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
