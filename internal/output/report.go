package output

import "time"

// CheckStatus classifies the outcome of one diagnostic check.
type CheckStatus string

const (
	StatusPass CheckStatus = "pass"
	StatusWarn CheckStatus = "warn"
	StatusFail CheckStatus = "fail"
)

// CheckResult is a single row of a diagnostics report.
type CheckResult struct {
	Name    string        `json:"name"`
	Status  CheckStatus   `json:"status"`
	Detail  string        `json:"detail,omitempty"`
	Latency time.Duration `json:"latency_ms,omitempty"`
}

// Report aggregates the checks run against one target (typically the
// backend base URL).
type Report struct {
	Target  string        `json:"target"`
	Checks  []CheckResult `json:"checks"`
	Healthy bool          `json:"healthy"`
}

// Finalize computes the aggregate Healthy flag: every check must pass or
// warn.
func (r *Report) Finalize() {
	r.Healthy = true
	for _, c := range r.Checks {
		if c.Status == StatusFail {
			r.Healthy = false
			return
		}
	}
}

func statusLabel(status CheckStatus) string {
	switch status {
	case StatusPass:
		return "✅ pass"
	case StatusWarn:
		return "⚠️ warn"
	case StatusFail:
		return "❌ fail"
	default:
		return string(status)
	}
}

func latencyLabel(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	return d.Round(time.Millisecond).String()
}
