// Package config provides configuration loading and validation.
// Configuration is read once at startup and immutable afterwards.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig   `yaml:"server"`
	API        APIConfig      `yaml:"api"`
	Cache      CacheConfig    `yaml:"cache"`
	Identity   IdentityConfig `yaml:"identity"`
	Workers    WorkersConfig  `yaml:"workers"`
	Database   DatabaseConfig `yaml:"database"`
	Logging    LoggingConfig  `yaml:"logging"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Extensions []string       `yaml:"extensions"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// APIConfig configures the public API surface.
type APIConfig struct {
	// BaseURL is the externally visible root used in generated links.
	BaseURL string `yaml:"base_url"`

	// Prefix mounts all routes under a path prefix. Empty mounts at /.
	Prefix string `yaml:"prefix"`

	// Title and Description appear on the landing page.
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// CacheConfig configures response cache directives.
type CacheConfig struct {
	// SharedDirective is the Cache-Control value for cacheable
	// responses, e.g. "public, max-age=60".
	SharedDirective string `yaml:"shared_directive"`

	// Catalogs lists catalog identifiers whose root documents may be
	// served with the shared directive.
	Catalogs []string `yaml:"catalogs"`
}

// IdentityConfig configures the token exchange provider.
type IdentityConfig struct {
	BaseURL      string        `yaml:"base_url"`
	Realm        string        `yaml:"realm"`
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	Timeout      time.Duration `yaml:"timeout"`
}

// WorkersConfig sizes the blocking-handler pool.
type WorkersConfig struct {
	Count     int `yaml:"count"`
	QueueSize int `yaml:"queue_size"`
}

// DatabaseConfig configures the database.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite"
	DSN    string `yaml:"dsn"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // Enable /metrics endpoint
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(&cfg)

	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv creates configuration entirely from environment variables.
// Useful for container deployments where no config file is mounted.
//
// Environment variables:
//
//	STACGATE_API_BASE_URL           - External base URL (required)
//	STACGATE_API_PREFIX             - Route path prefix
//	STACGATE_SERVER_HOST            - Server host (default: 0.0.0.0)
//	STACGATE_SERVER_PORT            - Server port (default: 8080)
//	STACGATE_IDENTITY_BASE_URL      - Identity provider URL
//	STACGATE_IDENTITY_REALM         - Identity realm
//	STACGATE_IDENTITY_CLIENT_ID     - OAuth client id
//	STACGATE_IDENTITY_CLIENT_SECRET - OAuth client secret
//	STACGATE_DATABASE_DSN           - Database path (default: stacgate.db)
//	STACGATE_WORKERS_COUNT          - Worker pool size (default: 8)
//	STACGATE_LOG_LEVEL              - Log level (default: info)
//	STACGATE_LOG_FORMAT             - Log format: json or console (default: json)
//	STACGATE_METRICS_ENABLED        - Enable /metrics endpoint (default: true)
//	STACGATE_EXTENSIONS             - Comma separated extension list
func LoadFromEnv() (*Config, error) {
	var cfg Config

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback tries to load from file, falls back to environment
// variables.
func LoadWithFallback(path string) (*Config, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}

	if os.Getenv("STACGATE_API_BASE_URL") != "" {
		return LoadFromEnv()
	}

	return nil, fmt.Errorf("no configuration found: provide config file or set STACGATE_API_BASE_URL")
}

// applyEnvOverrides applies STACGATE_* environment variables to the
// config. Environment variables always override file-based values.
func applyEnvOverrides(cfg *Config) {
	// Server configuration
	if v := os.Getenv("STACGATE_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("STACGATE_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("STACGATE_SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ReadTimeout = d
		}
	}
	if v := os.Getenv("STACGATE_SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.WriteTimeout = d
		}
	}

	// API configuration
	if v := os.Getenv("STACGATE_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("STACGATE_API_PREFIX"); v != "" {
		cfg.API.Prefix = v
	}

	// Cache configuration
	if v := os.Getenv("STACGATE_CACHE_SHARED_DIRECTIVE"); v != "" {
		cfg.Cache.SharedDirective = v
	}
	if v := os.Getenv("STACGATE_CACHE_CATALOGS"); v != "" {
		cfg.Cache.Catalogs = splitList(v)
	}

	// Identity configuration
	if v := os.Getenv("STACGATE_IDENTITY_BASE_URL"); v != "" {
		cfg.Identity.BaseURL = v
	}
	if v := os.Getenv("STACGATE_IDENTITY_REALM"); v != "" {
		cfg.Identity.Realm = v
	}
	if v := os.Getenv("STACGATE_IDENTITY_CLIENT_ID"); v != "" {
		cfg.Identity.ClientID = v
	}
	if v := os.Getenv("STACGATE_IDENTITY_CLIENT_SECRET"); v != "" {
		cfg.Identity.ClientSecret = v
	}
	if v := os.Getenv("STACGATE_IDENTITY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Identity.Timeout = d
		}
	}

	// Workers configuration
	if v := os.Getenv("STACGATE_WORKERS_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers.Count = n
		}
	}
	if v := os.Getenv("STACGATE_WORKERS_QUEUE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers.QueueSize = n
		}
	}

	// Database configuration
	if v := os.Getenv("STACGATE_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("STACGATE_DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}

	// Logging configuration
	if v := os.Getenv("STACGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("STACGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}

	// Metrics configuration
	if v := os.Getenv("STACGATE_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}

	// Extensions
	if v := os.Getenv("STACGATE_EXTENSIONS"); v != "" {
		cfg.Extensions = splitList(v)
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "true" || v == "1" || v == "yes" || v == "on"
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}

	if cfg.API.Title == "" {
		cfg.API.Title = "stacgate"
	}
	if cfg.API.Description == "" {
		cfg.API.Description = "Catalog API"
	}

	if cfg.Cache.SharedDirective == "" {
		cfg.Cache.SharedDirective = "public, max-age=60"
	}

	if cfg.Identity.Timeout == 0 {
		cfg.Identity.Timeout = 10 * time.Second
	}

	if cfg.Workers.Count == 0 {
		cfg.Workers.Count = 8
	}
	if cfg.Workers.QueueSize == 0 {
		cfg.Workers.QueueSize = 64
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "stacgate.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}

	// Default extension set if none configured
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = []string{
			"core",
			"transaction",
			"collection-search",
			"discovery-search",
			"pagination.token",
		}
	}
}

func validate(cfg *Config) error {
	if cfg.API.BaseURL == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if u, err := url.Parse(cfg.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", cfg.API.BaseURL)
	}
	if cfg.API.Prefix != "" && !strings.HasPrefix(cfg.API.Prefix, "/") {
		return fmt.Errorf("api.prefix must start with '/', got %q", cfg.API.Prefix)
	}

	if cfg.Identity.BaseURL != "" {
		if cfg.Identity.Realm == "" {
			return fmt.Errorf("identity.realm is required when identity.base_url is set")
		}
		if cfg.Identity.ClientID == "" {
			return fmt.Errorf("identity.client_id is required when identity.base_url is set")
		}
	}

	if cfg.Database.Driver != "sqlite" {
		return fmt.Errorf("database.driver must be 'sqlite', got %q", cfg.Database.Driver)
	}

	if cfg.Workers.Count < 1 {
		return fmt.Errorf("workers.count must be at least 1")
	}

	seen := make(map[string]bool, len(cfg.Extensions))
	for _, name := range cfg.Extensions {
		if seen[name] {
			return fmt.Errorf("extension %q listed more than once", name)
		}
		seen[name] = true
	}
	if !seen["core"] {
		return fmt.Errorf("extension list must include \"core\"")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	if cfg.Logging.Format != "json" && cfg.Logging.Format != "console" {
		return fmt.Errorf("logging.format must be 'json' or 'console', got %q", cfg.Logging.Format)
	}

	return nil
}
