package metrics

import (
	"strconv"
	"time"

	"github.com/eventsar/admin-gateway/internal/observability"
)

// Gateway-level metrics following Prometheus conventions
var (
	// Login flow metrics
	LoginAttemptsTotal     = "gateway_login_attempts_total"
	RateLimitRejectedTotal = "gateway_ratelimit_rejected_total"

	// Upstream proxy metrics
	UpstreamRequestsTotal   = "gateway_upstream_requests_total"
	UpstreamRequestDuration = "gateway_upstream_request_duration_ms"

	// Health check metrics
	HealthCheckTotal    = "gateway_health_check_total"
	HealthCheckDuration = "gateway_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "gateway_server_start_time_seconds"
)

// RecordLoginAttempt records a login attempt with its outcome
// (success, invalid_credentials, rate_limited, upstream_error, bad_request).
func RecordLoginAttempt(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			LoginAttemptsTotal,
			1,
			map[string]string{
				"outcome": outcome,
			},
		)
	}
}

// RecordRateLimitRejection records a request rejected by the rate limiter.
func RecordRateLimitRejection(scope string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RateLimitRejectedTotal,
			1,
			map[string]string{
				"scope": scope,
			},
		)
	}
}

// RecordUpstreamRequest records one proxied backend call.
func RecordUpstreamRequest(method string, status int, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		labels := map[string]string{
			"method": method,
			"status": strconv.Itoa(status),
		}

		_ = observability.TelemetrySystem.Counter(
			UpstreamRequestsTotal,
			1,
			labels,
		)

		_ = observability.TelemetrySystem.Histogram(
			UpstreamRequestDuration,
			duration,
			map[string]string{
				"method": method,
			},
		)
	}
}

// RecordHealthCheck records a health check execution
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
