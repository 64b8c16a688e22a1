package ratelimit

import (
	"path"
)

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Returns the matching EndpointConfig or nil if no match is found.
func MatchEndpoint(requestPath string, method string, configs []EndpointConfig) *EndpointConfig {
	// Health checks are never limited.
	if requestPath == "/health" && method == "GET" {
		return &EndpointConfig{Path: "/health", Method: method}
	}

	for i := range configs {
		config := &configs[i]
		if config.Method != method {
			continue
		}
		if ok, err := path.Match(config.Path, requestPath); err == nil && ok {
			return config
		}
	}
	return nil
}
