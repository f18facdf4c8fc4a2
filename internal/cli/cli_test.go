package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"editbench/internal/report"
	"editbench/internal/testutil"
)

// writeConfig writes a project config under dir and returns its path.
func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ".editbench", "config.yml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create config dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const heuristicConfig = `version: 1
output_dir: out
history_db: history.duckdb
`

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// TestRunCommandHeuristic verifies a plain run writes outputs and prints a summary.
func TestRunCommandHeuristic(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)

	code, stdout, stderr := runCLI(t, "--config", configPath, "run", testutil.ExampleFixture(t), "--ui", "plain", "--no-history")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr %q)", ExitOK, code, stderr)
	}
	if !strings.Contains(stdout, "pass=7 fail=1") {
		t.Fatalf("expected summary line, got %q", stdout)
	}
	if !strings.Contains(stdout, "Results: ") {
		t.Fatalf("expected results path, got %q", stdout)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "out", "ExampleCode", "*", report.ResultsFileName))
	if err != nil || len(matches) != 1 {
		t.Fatalf("expected one results file, got %v (%v)", matches, err)
	}
	if _, err := os.Stat(filepath.Join(dir, "history.duckdb")); !os.IsNotExist(err) {
		t.Fatalf("expected no history db with --no-history, got %v", err)
	}
}

// TestRunCommandFailOnMiss verifies failing verdicts exit with ExitMiss.
func TestRunCommandFailOnMiss(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)

	code, _, stderr := runCLI(t, "--config", configPath, "run", testutil.ExampleFixture(t), "--no-history", "--fail-on-miss", "--workers", "4")
	if code != ExitMiss {
		t.Fatalf("expected exit %d, got %d", ExitMiss, code)
	}
	if !strings.Contains(stderr, "1 of 8 markers failed") {
		t.Fatalf("expected miss message, got %q", stderr)
	}
}

// TestRunCommandUsageErrors verifies bad arguments exit with ExitUsage.
func TestRunCommandUsageErrors(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)
	fixturePath := testutil.ExampleFixture(t)

	cases := map[string][]string{
		"missing fixture": {"--config", configPath, "run"},
		"bad ui mode":     {"--config", configPath, "run", fixturePath, "--ui", "fancy"},
		"unknown engine":  {"--config", configPath, "run", fixturePath, "--engine", "nope"},
		"unknown flag":    {"--config", configPath, "run", fixturePath, "--bogus"},
		"unknown command": {"frobnicate"},
		"bad window":      {"--config", configPath, "run", fixturePath, "--window", "-1"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			code, _, _ := runCLI(t, args...)
			if code != ExitUsage {
				t.Fatalf("expected exit %d, got %d", ExitUsage, code)
			}
		})
	}
}

// TestRunCommandMissingFixture verifies a missing fixture is a runtime error.
func TestRunCommandMissingFixture(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)

	code, _, stderr := runCLI(t, "--config", configPath, "run", filepath.Join(dir, "missing.java"), "--no-history")
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if stderr == "" {
		t.Fatalf("expected error output")
	}
}

// TestRunCommandRecordsHistory verifies runs land in the history database.
func TestRunCommandRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)
	fixturePath := testutil.ExampleFixture(t)

	for i := 0; i < 2; i++ {
		if code, _, stderr := runCLI(t, "--config", configPath, "run", fixturePath); code != ExitOK {
			t.Fatalf("run %d: expected exit %d, got %d (stderr %q)", i, ExitOK, code, stderr)
		}
	}

	code, stdout, stderr := runCLI(t, "--config", configPath, "--no-color", "history")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr %q)", ExitOK, code, stderr)
	}
	if strings.Count(stdout, "heuristic") != 2 {
		t.Fatalf("expected two heuristic runs, got %q", stdout)
	}
	if !strings.Contains(stdout, "=") {
		t.Fatalf("expected identical verdicts to be marked, got %q", stdout)
	}

	code, stdout, _ = runCLI(t, "--config", configPath, "history", "--fixture", fixturePath, "--scenarios")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	if !strings.Contains(stdout, "Scenario 1") {
		t.Fatalf("expected scenario rows, got %q", stdout)
	}
}

// TestHistoryCommandEmpty verifies the message shown without a database.
func TestHistoryCommandEmpty(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)

	code, stdout, _ := runCLI(t, "--config", configPath, "history")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d", ExitOK, code)
	}
	if !strings.Contains(stdout, "No runs recorded") {
		t.Fatalf("expected empty message, got %q", stdout)
	}
	if code, _, _ := runCLI(t, "--config", configPath, "history", "--scenarios"); code != ExitUsage {
		t.Fatalf("expected --scenarios without --fixture to be a usage error, got %d", code)
	}
}

// TestShowCommandFormats verifies stored reports render in every format.
func TestShowCommandFormats(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)
	if code, _, stderr := runCLI(t, "--config", configPath, "run", testutil.ExampleFixture(t), "--no-history"); code != ExitOK {
		t.Fatalf("run failed: %d %q", code, stderr)
	}

	code, stdout, stderr := runCLI(t, "--config", configPath, "show", "ExampleCode", "--format", "json")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr %q)", ExitOK, code, stderr)
	}
	var result report.Report
	if err := json.Unmarshal([]byte(stdout), &result); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if result.Summary.Pass != 7 || len(result.Verdicts) != 8 {
		t.Fatalf("unexpected summary %+v", result.Summary)
	}

	code, stdout, _ = runCLI(t, "--config", configPath, "show", result.RunID, "--format", "html")
	if code != ExitOK || !strings.Contains(stdout, "<html") {
		t.Fatalf("expected html page, got %d %q", code, stdout)
	}

	code, stdout, _ = runCLI(t, "--config", configPath, "show", "ExampleCode")
	if code != ExitOK || !strings.Contains(stdout, result.RunID) {
		t.Fatalf("expected text report, got %d %q", code, stdout)
	}

	if code, _, _ := runCLI(t, "--config", configPath, "show", "ExampleCode", "--format", "pdf"); code != ExitUsage {
		t.Fatalf("expected usage error for unknown format, got %d", code)
	}
}

// TestParseCommandJSON verifies parse lists every marker.
func TestParseCommandJSON(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)

	code, stdout, stderr := runCLI(t, "--config", configPath, "parse", testutil.ExampleFixture(t), "--json")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr %q)", ExitOK, code, stderr)
	}
	var markers []parsedMarker
	if err := json.Unmarshal([]byte(stdout), &markers); err != nil {
		t.Fatalf("decode markers: %v", err)
	}
	if len(markers) != 8 {
		t.Fatalf("expected 8 markers, got %d", len(markers))
	}
	if markers[0].Index != 0 || markers[0].Line != 6 || markers[0].Scenario != "Scenario 1: Simple insertion - cursor at end of statement" {
		t.Fatalf("unexpected first marker %+v", markers[0])
	}
}

// TestValidateCommand verifies validate success and failure output.
func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	configPath := writeConfig(t, dir, heuristicConfig)

	code, stdout, stderr := runCLI(t, "--config", configPath, "validate")
	if code != ExitOK || !strings.Contains(stdout, "Config OK") {
		t.Fatalf("expected success, got %d %q %q", code, stdout, stderr)
	}

	badPath := writeConfig(t, t.TempDir(), "version: 2\nrunner:\n  workers: -1\n")
	code, stdout, stderr = runCLI(t, "--config", badPath, "validate")
	if code != ExitError {
		t.Fatalf("expected exit %d, got %d", ExitError, code)
	}
	if stdout != "" {
		t.Fatalf("expected no stdout, got %q", stdout)
	}
	if !strings.Contains(stderr, "Validation failed") || !strings.Contains(stderr, "version") {
		t.Fatalf("expected validation issues, got %q", stderr)
	}
}

// TestInitCommand verifies init scaffolds once and refuses to overwrite.
func TestInitCommand(t *testing.T) {
	dir := t.TempDir()

	code, stdout, stderr := runCLI(t, "init", "--dir", dir, "--gitignore")
	if code != ExitOK {
		t.Fatalf("expected exit %d, got %d (stderr %q)", ExitOK, code, stderr)
	}
	if !strings.Contains(stdout, "Created ") {
		t.Fatalf("expected created message, got %q", stdout)
	}
	configPath := filepath.Join(dir, ".editbench", "config.yml")
	if code, _, stderr := runCLI(t, "--config", configPath, "validate"); code != ExitOK {
		t.Fatalf("scaffolded config should validate, got %d %q", code, stderr)
	}
	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatalf("read .gitignore: %v", err)
	}
	if !strings.Contains(string(gitignore), ".editbench/results/") {
		t.Fatalf("expected results entry, got %q", gitignore)
	}

	if code, _, _ := runCLI(t, "init", "--dir", dir); code != ExitError {
		t.Fatalf("expected second init to fail, got %d", code)
	}
}

// TestAddGitignoreEntry verifies entries are appended once.
func TestAddGitignoreEntry(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("bin"), 0o644); err != nil {
		t.Fatalf("write .gitignore: %v", err)
	}
	updated, err := addGitignoreEntry(dir, "out/")
	if err != nil || !updated {
		t.Fatalf("expected update, got %v %v", updated, err)
	}
	updated, err = addGitignoreEntry(dir, "out")
	if err != nil || updated {
		t.Fatalf("expected no second update, got %v %v", updated, err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if string(data) != "bin\nout/\n" {
		t.Fatalf("unexpected .gitignore %q", data)
	}
}

// TestNoArgsPrintsUsage verifies a bare invocation exits with ExitUsage.
func TestNoArgsPrintsUsage(t *testing.T) {
	code, stdout, _ := runCLI(t)
	if code != ExitUsage {
		t.Fatalf("expected exit %d, got %d", ExitUsage, code)
	}
	if !strings.Contains(stdout, "editbench") {
		t.Fatalf("expected usage text, got %q", stdout)
	}
}
