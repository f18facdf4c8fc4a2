package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ResultsFileName is the JSON report written for every run.
const ResultsFileName = "results.json"

// WriteJSON writes a report as indented JSON.
func WriteJSON(path string, report Report) error {
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	payload = append(payload, '\n')
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Load reads a results.json file.
func Load(path string) (Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Report{}, err
	}
	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return Report{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return report, nil
}

// ResolveRun finds a stored report by reference: a results.json path, a run
// directory, a fixture name (latest run), or a run id.
func ResolveRun(outputDir, ref string) (Report, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Report{}, "", fmt.Errorf("run ref is required")
	}
	if info, err := os.Stat(ref); err == nil {
		if !info.IsDir() {
			report, err := Load(ref)
			return report, filepath.Dir(ref), err
		}
		if _, err := os.Stat(filepath.Join(ref, ResultsFileName)); err == nil {
			report, err := Load(filepath.Join(ref, ResultsFileName))
			return report, ref, err
		}
	}
	return ResolveStored(outputDir, ref)
}

// ResolveStored finds a run under outputDir by fixture name (latest run) or
// run id. Refs containing path separators or dot segments are rejected.
func ResolveStored(outputDir, ref string) (Report, string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return Report{}, "", fmt.Errorf("invalid run ref %q", ref)
	}
	fixtureDir := filepath.Join(outputDir, ref)
	if info, err := os.Stat(fixtureDir); err == nil && info.IsDir() {
		runDir, err := findLatestRunDir(fixtureDir)
		if err != nil {
			return Report{}, "", err
		}
		report, err := Load(filepath.Join(runDir, ResultsFileName))
		return report, runDir, err
	}
	runDir, err := findRunByID(outputDir, ref)
	if err != nil {
		return Report{}, "", err
	}
	report, err := Load(filepath.Join(runDir, ResultsFileName))
	return report, runDir, err
}

func findLatestRunDir(fixtureDir string) (string, error) {
	entries, err := os.ReadDir(fixtureDir)
	if err != nil {
		return "", err
	}
	runIDs := make([]string, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			runIDs = append(runIDs, entry.Name())
		}
	}
	if len(runIDs) == 0 {
		return "", fmt.Errorf("no runs found in %s", fixtureDir)
	}
	sort.Strings(runIDs)
	return filepath.Join(fixtureDir, runIDs[len(runIDs)-1]), nil
}

func findRunByID(outputDir, runID string) (string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		runDir := filepath.Join(outputDir, entry.Name(), runID)
		if info, err := os.Stat(runDir); err == nil && info.IsDir() {
			return runDir, nil
		}
	}
	return "", fmt.Errorf("run %s not found", runID)
}
