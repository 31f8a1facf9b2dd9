package output

import (
	"fmt"
	"strings"
)

// MarkdownFormatter renders a report as a markdown table.
type MarkdownFormatter struct{}

// FormatReport renders a diagnostics report as Markdown.
func (f *MarkdownFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Diagnostics for %s\n\n", escapeMarkdownCell(report.Target)))
	sb.WriteString("| Check | Status | Latency | Detail |\n")
	sb.WriteString("|-------|--------|---------|--------|\n")

	for _, c := range report.Checks {
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			escapeMarkdownCell(c.Name),
			escapeMarkdownCell(statusLabel(c.Status)),
			escapeMarkdownCell(latencyLabel(c.Latency)),
			escapeMarkdownCell(c.Detail),
		))
	}

	overall := "healthy"
	if !report.Healthy {
		overall = "unhealthy"
	}
	sb.WriteString(fmt.Sprintf("\n**Overall**: %s\n", overall))

	return sb.String(), nil
}

func escapeMarkdownCell(value string) string {
	return strings.ReplaceAll(value, "|", "\\|")
}
