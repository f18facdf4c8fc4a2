package runner

import (
	"fmt"
	"path/filepath"
	"strings"

	"editbench/internal/report"
)

// Output file names inside a run directory.
const (
	HTMLFileName    = "report.html"
	TextFileName    = "report.txt"
	MetricsFileName = "metrics.prom"
)

// OutputPaths describes filesystem locations for run outputs.
type OutputPaths struct {
	Root    string
	Fixture string
	RunID   string
}

// NewOutputPaths validates and constructs output paths metadata. Fixture is
// the fixture file name without its extension.
func NewOutputPaths(root, fixturePath, runID string) (OutputPaths, error) {
	if strings.TrimSpace(root) == "" {
		return OutputPaths{}, fmt.Errorf("output root is empty")
	}
	name := FixtureName(fixturePath)
	if name == "" {
		return OutputPaths{}, fmt.Errorf("fixture name is empty")
	}
	if strings.TrimSpace(runID) == "" {
		return OutputPaths{}, fmt.Errorf("run ID is empty")
	}
	return OutputPaths{
		Root:    root,
		Fixture: name,
		RunID:   runID,
	}, nil
}

// FixtureName returns the base name of a fixture path without extension.
func FixtureName(fixturePath string) string {
	base := filepath.Base(strings.TrimSpace(fixturePath))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RunDir returns the directory for a specific run.
func (o OutputPaths) RunDir() string {
	return filepath.Join(o.Root, o.Fixture, o.RunID)
}

// ResultsPath returns the path to results.json.
func (o OutputPaths) ResultsPath() string {
	return filepath.Join(o.RunDir(), report.ResultsFileName)
}

// ReportPath returns the path to the HTML report.
func (o OutputPaths) ReportPath() string {
	return filepath.Join(o.RunDir(), HTMLFileName)
}

// TextPath returns the path to the plain text report.
func (o OutputPaths) TextPath() string {
	return filepath.Join(o.RunDir(), TextFileName)
}

// MetricsPath returns the path to the Prometheus textfile.
func (o OutputPaths) MetricsPath() string {
	return filepath.Join(o.RunDir(), MetricsFileName)
}
