package config

import "time"

// Config represents the complete gateway configuration. Values come from
// viper's merged view of config file, environment variables (EVENTSAR_*
// prefix plus the legacy API_BASE_URL / CSRF_ALLOWED_ORIGINS aliases), and
// flags.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Session   SessionConfig   `mapstructure:"session"`
	CSRF      CSRFConfig      `mapstructure:"csrf"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Health    HealthConfig    `mapstructure:"health"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// UpstreamConfig locates the backend API that owns all business data.
type UpstreamConfig struct {
	// BaseURL is the backend origin, e.g. https://api.eventsar.example.
	BaseURL string `mapstructure:"base_url"`

	// Timeout bounds each outbound call. Zero disables the client-side
	// deadline, preserving the console's historical behavior of trusting
	// the backend to answer.
	Timeout time.Duration `mapstructure:"timeout"`
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName string `mapstructure:"cookie_name"`

	// Secure marks the cookie HTTPS-only. Keep false only for local
	// development over plain HTTP.
	Secure bool `mapstructure:"secure"`
}

// CSRFConfig holds the same-origin allow-list for state-mutating requests.
type CSRFConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig configures login throttling.
type RateLimitConfig struct {
	LoginWindow time.Duration `mapstructure:"login_window"`
	LoginMax    int           `mapstructure:"login_max"`

	// Store selects "memory" (per-instance, default) or "redis" (shared
	// across instances).
	Store         string `mapstructure:"store"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

// UploadConfig bounds multipart upload forwarding.
type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

// LoggingConfig contains logging configuration.
// Profiles follow the gofulmen logging standard:
// - SIMPLE: Console output only (CLI commands)
// - STRUCTURED: Structured sinks, correlation IDs (the server)
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	// Metrics are also proxied at /metrics on the main HTTP port
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	// Enabled controls whether health endpoints are exposed
	Enabled bool `mapstructure:"enabled"`
}
