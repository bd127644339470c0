// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) initializer to build a Config with defaults.
// - Load layers .env, YAML and PELADA_* environment variables on top.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Status override store kinds.
const (
	StoreSQLite  = "sqlite"
	StoreMemory  = "memory"
	StoreBackend = "backend"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// BackendURL is the base URL of the results backend.
	BackendURL string `koanf:"backend_url"`

	// BackendToken is sent as a bearer token when set.
	BackendToken string `koanf:"backend_token"`

	// BackendTenant is sent in the X-Tenant header when set.
	BackendTenant string `koanf:"backend_tenant"`

	// BackendTimeoutMS bounds a single backend request.
	BackendTimeoutMS int `koanf:"backend_timeout_ms"`

	// BackendRateLimit caps backend requests per second; BackendBurst is the bucket size.
	BackendRateLimit float64 `koanf:"backend_rate_limit"`
	BackendBurst     int     `koanf:"backend_burst"`

	// AutosaveDebounceMS is the quiet window before a silent save.
	AutosaveDebounceMS int `koanf:"autosave_debounce_ms"`

	// StatusStore selects where status overrides live: sqlite, memory or backend.
	StatusStore string `koanf:"status_store"`

	// StatusStorePath is the SQLite database file.
	StatusStorePath string `koanf:"status_store_path"`

	// CORSAllowedOrigins is a comma-separated origin list; empty allows any.
	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		BackendURL:         "http://localhost:8081/api",
		BackendTimeoutMS:   10_000,
		BackendRateLimit:   10,
		BackendBurst:       10,
		AutosaveDebounceMS: 1000,
		StatusStore:        StoreSQLite,
		StatusStorePath:    "data/status_overrides.db",
	}
}

// BackendTimeout returns BackendTimeoutMS as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutMS) * time.Millisecond
}

// AutosaveDebounce returns AutosaveDebounceMS as a duration.
func (c *Config) AutosaveDebounce() time.Duration {
	return time.Duration(c.AutosaveDebounceMS) * time.Millisecond
}

// AllowedOrigins splits CORSAllowedOrigins.
func (c *Config) AllowedOrigins() []string {
	var out []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.AutosaveDebounceMS <= 0:
		return fmt.Errorf("%w: autosave_debounce_ms must be positive", ErrInvalidConfig)
	case c.BackendTimeoutMS <= 0:
		return fmt.Errorf("%w: backend_timeout_ms must be positive", ErrInvalidConfig)
	case c.BackendRateLimit < 0 || c.BackendBurst < 0:
		return fmt.Errorf("%w: backend rate limit must not be negative", ErrInvalidConfig)
	}
	if u, err := url.Parse(c.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: backend_url %q is not an absolute url", ErrInvalidConfig, c.BackendURL)
	}
	switch c.StatusStore {
	case StoreMemory, StoreBackend:
	case StoreSQLite:
		if c.StatusStorePath == "" {
			return fmt.Errorf("%w: status_store_path required for sqlite", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown status_store %q", ErrInvalidConfig, c.StatusStore)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
