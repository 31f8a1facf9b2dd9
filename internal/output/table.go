package output

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
)

// TableFormatter renders a report as an ASCII table.
type TableFormatter struct{}

// FormatReport renders a diagnostics report as a table.
func (f *TableFormatter) FormatReport(report *Report) (string, error) {
	if report == nil {
		return "", nil
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(report.Target)
	t.AppendHeader(table.Row{"Check", "Status", "Latency", "Detail"})

	for _, c := range report.Checks {
		t.AppendRow(table.Row{
			c.Name,
			statusLabel(c.Status),
			latencyLabel(c.Latency),
			c.Detail,
		})
	}

	overall := "healthy"
	if !report.Healthy {
		overall = "unhealthy"
	}
	t.AppendFooter(table.Row{
		"",
		fmt.Sprintf("overall: %s", overall),
		"",
		"",
	})

	return t.Render(), nil
}
