package ratelimit

import (
	"net/http"
	"time"

	"github.com/jonathan/resume-parser/internal/config"
)

// ParsePath is the upload endpoint guarded by the configured limit
const ParsePath = "/parse-resume"

// Fallback budget for endpoints without their own rule
const (
	defaultLimit           = 600
	defaultWindow          = time.Minute
	defaultCleanupInterval = 5 * time.Minute
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // exact path, or a prefix when it ends with "/"
	Method string        // HTTP method
	Limit  int           // requests per window, 0 = unlimited
	Window time.Duration // refill window
	Burst  int           // bucket capacity, defaults to Limit
}

// FromSettings builds a limiter Config from the loaded rate limit settings.
// The configured limit applies to parse uploads; everything else shares a
// lenient default.
func FromSettings(s config.RateLimitConfig) *Config {
	if !s.Enabled {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    defaultLimit,
		DefaultWindow:   defaultWindow,
		CleanupInterval: defaultCleanupInterval,
		Allowlist:       toSet(s.Allowlist),
		Denylist:        toSet(s.Denylist),
		EndpointConfigs: ParseEndpointConfigs(s.Limit, s.Window.Std(), s.Burst),
	}
}

// ParseEndpointConfigs returns the rules for the parse endpoints
func ParseEndpointConfigs(limit int, window time.Duration, burst int) []EndpointConfig {
	return []EndpointConfig{
		{Path: ParsePath, Method: http.MethodPost, Limit: limit, Window: window, Burst: burst},
		{Path: ParsePath + "/stream", Method: http.MethodPost, Limit: limit, Window: window, Burst: burst},
	}
}

func toSet(ips []string) map[string]bool {
	set := make(map[string]bool, len(ips))
	for _, ip := range ips {
		if ip != "" {
			set[ip] = true
		}
	}
	return set
}
