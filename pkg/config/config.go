// Package config provides unified configuration for the qaserve service.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (QASERVE_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Derived defaults that depend on the backend type
//  6. Validation
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all configuration for the qaserve service.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Backend       BackendConfig       `yaml:"backend"`
	Cache         CacheConfig         `yaml:"cache"`
	Auth          AuthConfig          `yaml:"auth"`
	MCP           MCPConfig           `yaml:"mcp"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds settings of the API listener.
type ServerConfig struct {
	Host               string        `yaml:"host"`                 // default: "0.0.0.0"
	Port               int           `yaml:"port"`                 // default: 8080
	ReadTimeout        time.Duration `yaml:"read_timeout"`         // default: 30s
	WriteTimeout       time.Duration `yaml:"write_timeout"`        // default: 180s
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`     // default: 30s
	MaxBodySize        int64         `yaml:"max_body_size"`        // default: 10 MiB
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"` // empty disables CORS
}

// Addr returns the listen address of the API listener.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Backend types.
const (
	BackendHuggingFace  = "huggingface"
	BackendTransformers = "transformers"
	BackendOpenAI       = "openai"
	BackendGemini       = "gemini"
)

// DefaultBackendURL is used by the HTTP backends when no URL is configured.
// It matches the listen address of cmd/mock-backend.
const DefaultBackendURL = "http://localhost:8081"

// BackendConfig selects and configures the question answering backend.
type BackendConfig struct {
	Type         string        `yaml:"type"`           // huggingface, transformers, openai, gemini; default: huggingface
	URL          string        `yaml:"url"`            // inference endpoint or OpenAI base URL
	APIKey       string        `yaml:"api_key"`        // optional for huggingface/openai, required for gemini
	APIKeyFile   string        `yaml:"api_key_file"`   // _file variant for api_key
	Model        string        `yaml:"model"`          // required for openai and gemini
	Timeout      time.Duration `yaml:"timeout"`        // default: 120s
	WaitForModel bool          `yaml:"wait_for_model"` // huggingface: block while the model loads
}

// CacheConfig holds answer cache settings.
type CacheConfig struct {
	MaxSize int           `yaml:"max_size"` // 0 disables the cache
	TTL     time.Duration `yaml:"ttl"`      // 0 means entries never expire
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"`     // "none", "apikey", "jwt"; default: "none"
	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // entries for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`      // settings for type=jwt
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key" json:"key"`
	KeyFile     string `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string `yaml:"subject" json:"subject"`
	ServiceTier string `yaml:"service_tier" json:"service_tier"`
}

// JWTConfig holds settings for JWT bearer authentication.
type JWTConfig struct {
	Issuer      string        `yaml:"issuer"`
	Audience    string        `yaml:"audience"`
	JWKSURL     string        `yaml:"jwks_url"`
	UserClaim   string        `yaml:"user_claim"`   // default: "sub"
	TierClaim   string        `yaml:"tier_claim"`   // default: "tier"
	ScopesClaim string        `yaml:"scopes_claim"` // default: "scope"
	CacheTTL    time.Duration `yaml:"cache_ttl"`    // default: 1h
	Leeway      time.Duration `yaml:"leeway"`
}

// RateLimitConfig holds per-tier request limits. Zero means unlimited.
type RateLimitConfig struct {
	DefaultRPM int            `yaml:"default_rpm"`
	Tiers      map[string]int `yaml:"tiers"` // tier name -> requests per minute
}

// MCPConfig holds settings of the MCP tool surface.
type MCPConfig struct {
	Enabled bool   `yaml:"enabled"` // default: false
	Path    string `yaml:"path"`    // default: "/mcp"
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds settings of the separate Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Host    string `yaml:"host"`    // default: "0.0.0.0"
	Port    int    `yaml:"port"`    // default: 8000
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Addr returns the listen address of the metrics listener, or "" when
// metrics are disabled.
func (m MetricsConfig) Addr() string {
	if !m.Enabled {
		return ""
	}
	return net.JoinHostPort(m.Host, strconv.Itoa(m.Port))
}

// LoggingConfig holds log settings. QASERVE_DEBUG and QASERVE_LOG_LEVEL
// take precedence, see pkg/debug.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // ERROR, WARN, INFO, DEBUG, TRACE; default: INFO
	Debug  string `yaml:"debug"`  // comma separated debug categories, "all" for every category
	Format string `yaml:"format"` // "text" or "json"; default: "text"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    180 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			MaxBodySize:     10 << 20,
		},
		Backend: BackendConfig{
			Type:    BackendHuggingFace,
			Timeout: 120 * time.Second,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		MCP: MCPConfig{
			Path: "/mcp",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Host:    "0.0.0.0",
				Port:    8000,
				Path:    "/metrics",
			},
		},
		Logging: LoggingConfig{
			Level:  "INFO",
			Format: "text",
		},
	}
}
