package report

import (
	"context"
	"fmt"
	"strings"
)

//go:generate templ generate

type detail struct {
	label string
	value string
}

func pageTitle(report Report) string {
	return "editbench " + report.RunID
}

func details(report Report) []detail {
	return []detail{
		{"Fixture", report.Fixture},
		{"Engine", report.Engine},
		{"Strategy", report.Strategy},
		{"Language", report.Language},
		{"Started", report.StartedAt.UTC().Format("2006-01-02 15:04:05Z")},
		{"Pass rate", report.Summary.PassRatePercent() + "%"},
	}
}

func summaryLine(summary Summary) string {
	return fmt.Sprintf("%d markers, %d completed: %d pass, %d partial, %d fail, %d unavailable.",
		summary.Total, summary.Completed, summary.Pass, summary.Partial, summary.Fail, summary.Unavailable)
}

// RenderHTML renders the report page into a string.
func RenderHTML(ctx context.Context, report Report) (string, error) {
	var builder strings.Builder
	if err := Page(report).Render(ctx, &builder); err != nil {
		return "", err
	}
	return builder.String(), nil
}
