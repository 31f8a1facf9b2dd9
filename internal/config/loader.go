// Package config provides centralized configuration management for the
// gateway. Values are layered by viper: built-in defaults, an optional
// config file, then EVENTSAR_* environment variables. The two environment
// names the admin console has always shipped with, API_BASE_URL and
// CSRF_ALLOWED_ORIGINS, remain bound as aliases.
package config

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

var (
	// appConfig holds the current application configuration
	appConfig *Config
	configMu  sync.RWMutex
)

// Load decodes viper's merged settings into a typed Config. Safe to call
// multiple times (e.g. on SIGHUP reload).
func Load(ctx context.Context) (*Config, error) {
	bindEnvAliases()

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(viper.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setConfig(cfg)

	return cfg, nil
}

// Validate checks the settings the server cannot run without. Called by the
// serve and check commands, not by Load, so CLI commands that do not talk to
// the backend still work with a bare environment.
func (c *Config) Validate() error {
	base := strings.TrimSpace(c.Upstream.BaseURL)
	if base == "" {
		return fmt.Errorf("upstream.base_url is required (set EVENTSAR_UPSTREAM_BASE_URL or API_BASE_URL)")
	}

	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.base_url %q is not an absolute URL", base)
	}

	// The gateway proxying to itself would loop forever.
	self := fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
	if u.Host == self {
		return fmt.Errorf("upstream.base_url %q points at the gateway itself", base)
	}

	if c.RateLimit.Store == "redis" && strings.TrimSpace(c.RateLimit.RedisAddr) == "" {
		return fmt.Errorf("ratelimit.redis_addr is required when ratelimit.store is redis")
	}

	if c.RateLimit.LoginMax <= 0 || c.RateLimit.LoginWindow <= 0 {
		return fmt.Errorf("ratelimit.login_max and ratelimit.login_window must be positive")
	}

	return nil
}

// bindEnvAliases wires the legacy environment names the deployment manifests
// still use. Viper's AutomaticEnv only covers the EVENTSAR_ prefix.
func bindEnvAliases() {
	_ = viper.BindEnv("upstream.base_url", "EVENTSAR_UPSTREAM_BASE_URL", "API_BASE_URL")
	_ = viper.BindEnv("csrf.allowed_origins", "EVENTSAR_CSRF_ALLOWED_ORIGINS", "CSRF_ALLOWED_ORIGINS")
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// setConfig updates the current configuration (thread-safe)
func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}
