package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of all environment variables read by Load.
const EnvPrefix = "QASERVE_"

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, QASERVE_CONFIG env, ./config.yaml, /etc/qaserve/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Derived defaults
//  6. Validation
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	if filePath := discoverConfigFile(configPath); filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment overrides: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	applyDerivedDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. QASERVE_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/qaserve/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	if configPath != "" {
		return configPath
	}
	if envPath := os.Getenv(EnvPrefix + "CONFIG"); envPath != "" {
		return envPath
	}

	for _, path := range []string{"config.yaml", "/etc/qaserve/config.yaml"} {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
// Unknown keys are rejected so typos do not go unnoticed.
func loadYAMLFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// envSetter parses an environment value into a config field.
type envSetter func(cfg *Config, v string) error

// envOverrides maps variable names (without prefix) to config fields.
var envOverrides = map[string]envSetter{
	"HOST":                 func(c *Config, v string) error { c.Server.Host = v; return nil },
	"PORT":                 intVar(func(c *Config) *int { return &c.Server.Port }),
	"MAX_BODY_SIZE":        int64Var(func(c *Config) *int64 { return &c.Server.MaxBodySize }),
	"SHUTDOWN_TIMEOUT":     durationVar(func(c *Config) *time.Duration { return &c.Server.ShutdownTimeout }),
	"CORS_ALLOWED_ORIGINS": func(c *Config, v string) error { c.Server.CORSAllowedOrigins = splitList(v); return nil },

	"BACKEND_TYPE":           func(c *Config, v string) error { c.Backend.Type = v; return nil },
	"BACKEND_URL":            func(c *Config, v string) error { c.Backend.URL = v; return nil },
	"BACKEND_API_KEY":        func(c *Config, v string) error { c.Backend.APIKey = v; return nil },
	"BACKEND_API_KEY_FILE":   func(c *Config, v string) error { c.Backend.APIKeyFile = v; return nil },
	"BACKEND_MODEL":          func(c *Config, v string) error { c.Backend.Model = v; return nil },
	"BACKEND_TIMEOUT":        durationVar(func(c *Config) *time.Duration { return &c.Backend.Timeout }),
	"BACKEND_WAIT_FOR_MODEL": boolVar(func(c *Config) *bool { return &c.Backend.WaitForModel }),

	"CACHE_MAX_SIZE": intVar(func(c *Config) *int { return &c.Cache.MaxSize }),
	"CACHE_TTL":      durationVar(func(c *Config) *time.Duration { return &c.Cache.TTL }),

	"AUTH_TYPE":          func(c *Config, v string) error { c.Auth.Type = v; return nil },
	"API_KEYS":           apiKeysVar,
	"JWT_ISSUER":         func(c *Config, v string) error { c.Auth.JWT.Issuer = v; return nil },
	"JWT_AUDIENCE":       func(c *Config, v string) error { c.Auth.JWT.Audience = v; return nil },
	"JWT_JWKS_URL":       func(c *Config, v string) error { c.Auth.JWT.JWKSURL = v; return nil },
	"RATE_LIMIT_DEFAULT": intVar(func(c *Config) *int { return &c.Auth.RateLimit.DefaultRPM }),

	"MCP_ENABLED": boolVar(func(c *Config) *bool { return &c.MCP.Enabled }),
	"MCP_PATH":    func(c *Config, v string) error { c.MCP.Path = v; return nil },

	"METRICS_ENABLED": boolVar(func(c *Config) *bool { return &c.Observability.Metrics.Enabled }),
	"METRICS_HOST":    func(c *Config, v string) error { c.Observability.Metrics.Host = v; return nil },
	"METRICS_PORT":    intVar(func(c *Config) *int { return &c.Observability.Metrics.Port }),
	"METRICS_PATH":    func(c *Config, v string) error { c.Observability.Metrics.Path = v; return nil },

	"LOG_LEVEL":  func(c *Config, v string) error { c.Logging.Level = v; return nil },
	"LOG_FORMAT": func(c *Config, v string) error { c.Logging.Format = v; return nil },
	"DEBUG":      func(c *Config, v string) error { c.Logging.Debug = v; return nil },
}

// applyEnvOverrides applies every QASERVE_* variable that is set and
// non-empty. Malformed values are reported together.
func applyEnvOverrides(cfg *Config) error {
	var errs []error
	for name, set := range envOverrides {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			continue
		}
		if err := set(cfg, v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
		}
	}
	return errors.Join(errs...)
}

func intVar(field func(*Config) *int) envSetter {
	return func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func int64Var(field func(*Config) *int64) envSetter {
	return func(c *Config, v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return err
		}
		*field(c) = n
		return nil
	}
}

func boolVar(field func(*Config) *bool) envSetter {
	return func(c *Config, v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*field(c) = b
		return nil
	}
}

func durationVar(field func(*Config) *time.Duration) envSetter {
	return func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*field(c) = d
		return nil
	}
}

// apiKeysVar parses QASERVE_API_KEYS, a JSON array of API key entries.
func apiKeysVar(c *Config, v string) error {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(v), &keys); err != nil {
		return fmt.Errorf("parsing API keys JSON: %w", err)
	}
	c.Auth.APIKeys = keys
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	if cfg.Backend.APIKeyFile != "" && cfg.Backend.APIKey == "" {
		val, err := readSecretFile(cfg.Backend.APIKeyFile)
		if err != nil {
			return fmt.Errorf("backend.api_key_file: %w", err)
		}
		cfg.Backend.APIKey = val
	}

	for i := range cfg.Auth.APIKeys {
		k := &cfg.Auth.APIKeys[i]
		if k.KeyFile != "" && k.Key == "" {
			val, err := readSecretFile(k.KeyFile)
			if err != nil {
				return fmt.Errorf("auth.api_keys[%d].key_file: %w", i, err)
			}
			k.Key = val
		}
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// applyDerivedDefaults fills settings whose default depends on other fields.
func applyDerivedDefaults(cfg *Config) {
	switch cfg.Backend.Type {
	case BackendHuggingFace, BackendTransformers:
		if cfg.Backend.URL == "" {
			cfg.Backend.URL = DefaultBackendURL
		}
	}
	if cfg.MCP.Path == "" {
		cfg.MCP.Path = "/mcp"
	}
	for i := range cfg.Auth.APIKeys {
		if cfg.Auth.APIKeys[i].Subject == "" {
			cfg.Auth.APIKeys[i].Subject = fmt.Sprintf("key-%d", i)
		}
	}
}
