package cmd

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eventsar/admin-gateway/internal/config"
	"github.com/eventsar/admin-gateway/internal/observability"
	"github.com/eventsar/admin-gateway/internal/output"
	"github.com/eventsar/admin-gateway/internal/ratelimit"
	"github.com/eventsar/admin-gateway/internal/upstream"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Diagnose connectivity to the backend API",
	Long: `Run connectivity diagnostics against the configured backend: DNS
resolution, the public meta endpoint, the health endpoint, and the Redis
rate-limit store when one is configured.`,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().String("output", "table", "Output format: table, json, markdown")
	checkCmd.Flags().Duration("timeout", 10*time.Second, "Per-check timeout")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	format, err := output.ParseFormat(formatValue)
	if err != nil {
		return err
	}

	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return err
	}

	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration invalid", err)
	}

	report := &output.Report{Target: cfg.Upstream.BaseURL}

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	report.Checks = append(report.Checks, checkDNS(ctx, cfg.Upstream.BaseURL))

	client := upstream.New(cfg.Upstream.BaseURL, timeout)
	report.Checks = append(report.Checks, checkMeta(ctx, client))
	report.Checks = append(report.Checks, checkBackendHealth(ctx, client))

	if cfg.RateLimit.Store == "redis" {
		report.Checks = append(report.Checks, checkRedis(ctx, cfg))
	}

	report.Finalize()

	formatter := output.NewFormatter(format)
	rendered, err := formatter.FormatReport(report)
	if err != nil {
		return err
	}
	fmt.Println(rendered)

	if !report.Healthy {
		observability.CLILogger.Warn("Backend diagnostics reported failures",
			zap.String("target", report.Target))
		ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Backend diagnostics failed", nil)
	}

	return nil
}

func checkDNS(ctx context.Context, baseURL string) output.CheckResult {
	result := output.CheckResult{Name: "dns"}

	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		result.Status = output.StatusFail
		result.Detail = "base URL is not parseable"
		return result
	}

	start := time.Now()
	addrs, err := net.DefaultResolver.LookupHost(ctx, u.Hostname())
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = output.StatusFail
		result.Detail = err.Error()
		return result
	}

	result.Status = output.StatusPass
	result.Detail = fmt.Sprintf("%d address(es)", len(addrs))
	return result
}

func checkMeta(ctx context.Context, client *upstream.Client) output.CheckResult {
	result := output.CheckResult{Name: "meta endpoint"}

	start := time.Now()
	resp, err := client.Do(ctx, upstream.Request{Method: "GET", Path: "/api/meta"})
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = output.StatusFail
		result.Detail = err.Error()
		return result
	}

	if !resp.OK() {
		result.Status = output.StatusWarn
		result.Detail = fmt.Sprintf("status %d", resp.Status)
		return result
	}

	result.Status = output.StatusPass
	result.Detail = fmt.Sprintf("status %d", resp.Status)
	return result
}

func checkBackendHealth(ctx context.Context, client *upstream.Client) output.CheckResult {
	result := output.CheckResult{Name: "backend health"}

	start := time.Now()
	err := client.CheckHealth(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = output.StatusFail
		result.Detail = err.Error()
		return result
	}

	result.Status = output.StatusPass
	return result
}

func checkRedis(ctx context.Context, cfg *config.Config) output.CheckResult {
	result := output.CheckResult{Name: "ratelimit redis"}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RateLimit.RedisAddr,
		Password: cfg.RateLimit.RedisPassword,
		DB:       cfg.RateLimit.RedisDB,
	})
	defer func() { _ = client.Close() }()

	store := ratelimit.NewRedisStore(client)

	start := time.Now()
	err := store.Ping(ctx)
	result.Latency = time.Since(start)
	if err != nil {
		result.Status = output.StatusFail
		result.Detail = err.Error()
		return result
	}

	result.Status = output.StatusPass
	return result
}
