package ratelimit

import (
	"net/http"
	"strings"
)

// HealthPath is never rate limited
const HealthPath = "/health"

var unlimited = EndpointConfig{}

// MatchEndpoint returns the rule for path and method, or nil when none applies.
// Exact rules win over prefix rules.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if path == HealthPath && method == http.MethodGet {
		return &unlimited
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}
