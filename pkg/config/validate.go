package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported at once, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be within 1-65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be > 0, got %s", c.Server.ShutdownTimeout))
	}

	errs = append(errs, c.Backend.validate()...)

	if c.Cache.MaxSize < 0 {
		errs = append(errs, fmt.Errorf("cache.max_size must be >= 0, got %d", c.Cache.MaxSize))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be >= 0, got %s", c.Cache.TTL))
	}

	errs = append(errs, c.Auth.validate()...)

	if c.MCP.Enabled && !strings.HasPrefix(c.MCP.Path, "/") {
		errs = append(errs, fmt.Errorf("mcp.path must start with \"/\", got %q", c.MCP.Path))
	}
	if c.MCP.Enabled && (c.MCP.Path == "/qa" || c.MCP.Path == "/healthz") {
		errs = append(errs, fmt.Errorf("mcp.path %q collides with a built-in endpoint", c.MCP.Path))
	}

	if m := c.Observability.Metrics; m.Enabled {
		if m.Port <= 0 || m.Port > 65535 {
			errs = append(errs, fmt.Errorf("observability.metrics.port must be within 1-65535, got %d", m.Port))
		}
		if m.Port == c.Server.Port && m.Host == c.Server.Host {
			errs = append(errs, fmt.Errorf("observability.metrics.port must differ from server.port (%d)", m.Port))
		}
		if !strings.HasPrefix(m.Path, "/") {
			errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", m.Path))
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json", "":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

func (b BackendConfig) validate() []error {
	var errs []error

	switch b.Type {
	case BackendHuggingFace, BackendTransformers:
		if b.URL == "" {
			errs = append(errs, fmt.Errorf("backend.url is required for backend.type %q", b.Type))
		}
	case BackendOpenAI:
		if b.Model == "" {
			errs = append(errs, fmt.Errorf("backend.model is required for backend.type %q", b.Type))
		}
	case BackendGemini:
		if b.Model == "" {
			errs = append(errs, fmt.Errorf("backend.model is required for backend.type %q", b.Type))
		}
		if b.APIKey == "" {
			errs = append(errs, fmt.Errorf("backend.api_key or backend.api_key_file is required for backend.type %q", b.Type))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.type must be one of %q, %q, %q, %q, got %q",
			BackendHuggingFace, BackendTransformers, BackendOpenAI, BackendGemini, b.Type))
	}

	if b.URL != "" {
		if u, err := url.Parse(b.URL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("backend.url must be an absolute URL, got %q", b.URL))
		}
	}
	if b.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must be > 0, got %s", b.Timeout))
	}

	return errs
}

func (a AuthConfig) validate() []error {
	var errs []error

	switch a.Type {
	case "none":
	case "apikey":
		if len(a.APIKeys) == 0 {
			errs = append(errs, errors.New("auth.api_keys must not be empty when auth.type is \"apikey\""))
		}
		for i, k := range a.APIKeys {
			if k.Key == "" {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key or key_file is required", i))
			}
		}
	case "jwt":
		if a.JWT.JWKSURL == "" {
			errs = append(errs, errors.New("auth.jwt.jwks_url is required when auth.type is \"jwt\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", a.Type))
	}

	if a.RateLimit.DefaultRPM < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.default_rpm must be >= 0, got %d", a.RateLimit.DefaultRPM))
	}
	for tier, rpm := range a.RateLimit.Tiers {
		if rpm < 0 {
			errs = append(errs, fmt.Errorf("auth.rate_limit.tiers.%s must be >= 0, got %d", tier, rpm))
		}
	}

	return errs
}
