package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventsar/admin-gateway/internal/config"
	"github.com/eventsar/admin-gateway/internal/observability"
	"github.com/eventsar/admin-gateway/internal/security"
	"github.com/fulmenhq/gofulmen/crucible"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== Gateway Environment Information ===")
		observability.CLILogger.Info("")

		// Application Info
		identity := GetAppIdentity()
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + identity.BinaryName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("")

		// SSOT Info
		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		// Runtime Info
		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		observability.CLILogger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		observability.CLILogger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		observability.CLILogger.Info("")

		// Upstream backend
		observability.CLILogger.Info("Upstream:")
		baseURL := strings.TrimSpace(cfg.Upstream.BaseURL)
		if baseURL == "" {
			baseURL = "(not set)"
		}
		observability.CLILogger.Info("  Base URL:       "+baseURL, zap.String("upstream_base_url", baseURL))
		if cfg.Upstream.Timeout > 0 {
			observability.CLILogger.Info("  Timeout:        " + cfg.Upstream.Timeout.String())
		} else {
			observability.CLILogger.Info("  Timeout:        (disabled)")
		}
		observability.CLILogger.Info("")

		// Session / CSRF
		observability.CLILogger.Info("Session:")
		observability.CLILogger.Info("  Cookie Name:    " + cfg.Session.CookieName)
		observability.CLILogger.Info(fmt.Sprintf("  Secure Cookie:  %t", cfg.Session.Secure), zap.Bool("cookie_secure", cfg.Session.Secure))
		origins := cfg.CSRF.AllowedOrigins
		if len(origins) == 0 {
			origins = security.DefaultAllowedOrigins
			observability.CLILogger.Info("  CSRF Origins:   (defaults) " + strings.Join(origins, ", "))
		} else {
			observability.CLILogger.Info("  CSRF Origins:   " + strings.Join(origins, ", "))
		}
		observability.CLILogger.Info("")

		// Rate limiting
		observability.CLILogger.Info("Rate Limit:")
		observability.CLILogger.Info("  Store:          "+cfg.RateLimit.Store, zap.String("ratelimit_store", cfg.RateLimit.Store))
		observability.CLILogger.Info("  Login Window:   " + cfg.RateLimit.LoginWindow.String())
		observability.CLILogger.Info(fmt.Sprintf("  Login Max:      %d", cfg.RateLimit.LoginMax))
		if cfg.RateLimit.Store == "redis" {
			observability.CLILogger.Info("  Redis Addr:     " + cfg.RateLimit.RedisAddr)
		}
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
