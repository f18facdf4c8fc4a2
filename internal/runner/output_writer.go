package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"editbench/internal/report"
)

// WriteRunOutputs writes the JSON, HTML, text and metrics outputs of a run.
func WriteRunOutputs(ctx context.Context, result report.Report, outputDir string, metrics *Metrics) (OutputPaths, error) {
	if outputDir == "" {
		return OutputPaths{}, fmt.Errorf("output directory is required")
	}
	paths, err := NewOutputPaths(outputDir, result.Fixture, result.RunID)
	if err != nil {
		return OutputPaths{}, err
	}
	if err := os.MkdirAll(paths.RunDir(), 0o755); err != nil {
		return OutputPaths{}, fmt.Errorf("create output dir: %w", err)
	}
	if err := report.WriteJSON(paths.ResultsPath(), result); err != nil {
		return OutputPaths{}, err
	}
	html, err := report.RenderHTML(ctx, result)
	if err != nil {
		return OutputPaths{}, err
	}
	if err := writeFile(paths.ReportPath(), []byte(html)); err != nil {
		return OutputPaths{}, err
	}
	var text bytes.Buffer
	if err := report.RenderText(&text, result, true); err != nil {
		return OutputPaths{}, err
	}
	if err := writeFile(paths.TextPath(), text.Bytes()); err != nil {
		return OutputPaths{}, err
	}
	if metrics != nil {
		if err := metrics.WriteFile(paths.MetricsPath()); err != nil {
			return OutputPaths{}, err
		}
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}
