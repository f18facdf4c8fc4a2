package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"editbench/internal/scoring"
)

func sampleReport() Report {
	verdicts := []Verdict{
		{MarkerIndex: 0, Line: 6, Scenario: "Scenario 1", Intent: "semicolon", Status: scoring.StatusPass, Suggestion: ";", Rationale: "found ; (semicolon)"},
		{MarkerIndex: 2, Line: 17, Scenario: "Scenario 3", Intent: "opening brace and method body", Status: scoring.StatusPartial, Suggestion: "() {\n}", Rationale: "valid code; missing { (opening brace)"},
		{MarkerIndex: 3, Line: 23, Scenario: "Scenario 4", Intent: "closing parenthesis", Status: scoring.StatusFail, Rationale: "empty suggestion"},
	}
	return Report{
		RunID:      "20240102T030405Z-deadbeef",
		Fixture:    "ExampleCode.java",
		Engine:     "heuristic",
		Strategy:   "edit_kind",
		Language:   "java",
		StartedAt:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		FinishedAt: time.Date(2024, 1, 2, 3, 4, 6, 0, time.UTC),
		Summary:    Summarize(3, verdicts),
		Verdicts:   verdicts,
	}
}

// TestSummarize verifies verdict counting and pass rate.
func TestSummarize(t *testing.T) {
	summary := Summarize(4, []Verdict{
		{Status: scoring.StatusPass},
		{Status: scoring.StatusFail, Unavailable: true},
		{Status: scoring.StatusPartial},
	})
	if summary.Total != 4 || summary.Completed != 3 {
		t.Fatalf("unexpected totals: %+v", summary)
	}
	if summary.Pass != 1 || summary.Fail != 1 || summary.Partial != 1 || summary.Unavailable != 1 {
		t.Fatalf("unexpected counts: %+v", summary)
	}
	if summary.PassRate != 0.25 {
		t.Fatalf("expected pass rate 0.25, got %v", summary.PassRate)
	}
	if empty := Summarize(0, nil); empty.PassRate != 0 {
		t.Fatalf("expected zero pass rate, got %v", empty.PassRate)
	}
}

// TestRenderTextGolden verifies the text table layout.
func TestRenderTextGolden(t *testing.T) {
	var out bytes.Buffer
	if err := RenderText(&out, sampleReport(), true); err != nil {
		t.Fatalf("render text: %v", err)
	}
	g := goldie.New(t)
	g.Assert(t, "text_report", out.Bytes())
}

// TestRenderTextMarksCancelledRuns verifies the cancelled flag is shown.
func TestRenderTextMarksCancelledRuns(t *testing.T) {
	report := sampleReport()
	report.Cancelled = true
	var out bytes.Buffer
	if err := RenderText(&out, report, true); err != nil {
		t.Fatalf("render text: %v", err)
	}
	if !strings.Contains(out.String(), "CANCELLED") {
		t.Fatalf("expected cancelled marker, got %q", out.String())
	}
}

// TestRenderHTMLEscapesContent verifies report HTML includes verdicts and escapes code.
func TestRenderHTMLEscapesContent(t *testing.T) {
	report := sampleReport()
	report.Verdicts[1].Preview = "if (a < b) {"
	html, err := RenderHTML(context.Background(), report)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	for _, token := range []string{"<table>", "20240102T030405Z-deadbeef", "Scenario 3", "if (a &lt; b) {", `class="partial"`, "33.33%"} {
		if !strings.Contains(html, token) {
			t.Fatalf("expected report to include %q", token)
		}
	}
}

// TestWriteJSONThenLoad verifies results.json round trips.
func TestWriteJSONThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ResultsFileName)
	want := sampleReport()
	if err := WriteJSON(path, want); err != nil {
		t.Fatalf("write json: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	for _, key := range []string{`"run_id"`, `"marker_index"`, `"pass_rate"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Fatalf("expected key %s in %s", key, data)
		}
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.RunID != want.RunID || len(got.Verdicts) != 3 || got.Verdicts[1].Suggestion != "() {\n}" {
		t.Fatalf("unexpected report: %+v", got)
	}
	if !got.StartedAt.Equal(want.StartedAt) {
		t.Fatalf("expected started_at %v, got %v", want.StartedAt, got.StartedAt)
	}
}

func writeRun(t *testing.T, root, fixture, runID string) string {
	t.Helper()
	dir := filepath.Join(root, fixture, runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	report := sampleReport()
	report.RunID = runID
	report.Fixture = fixture
	if err := WriteJSON(filepath.Join(dir, ResultsFileName), report); err != nil {
		t.Fatalf("write: %v", err)
	}
	return dir
}

// TestResolveRun verifies lookup by fixture, run id, directory, and file.
func TestResolveRun(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "ExampleCode", "20240101T000000Z-aaaa")
	latest := writeRun(t, root, "ExampleCode", "20240102T000000Z-bbbb")
	other := writeRun(t, root, "Other", "20240103T000000Z-cccc")

	resolved, dir, err := ResolveRun(root, "ExampleCode")
	if err != nil {
		t.Fatalf("resolve fixture: %v", err)
	}
	if resolved.RunID != "20240102T000000Z-bbbb" || dir != latest {
		t.Fatalf("expected latest run, got %s in %s", resolved.RunID, dir)
	}

	resolved, _, err = ResolveRun(root, "20240103T000000Z-cccc")
	if err != nil {
		t.Fatalf("resolve run id: %v", err)
	}
	if resolved.Fixture != "Other" {
		t.Fatalf("unexpected fixture: %s", resolved.Fixture)
	}

	if _, dir, err = ResolveRun(root, other); err != nil || dir != other {
		t.Fatalf("resolve dir: %v (%s)", err, dir)
	}
	if _, _, err = ResolveRun(root, filepath.Join(other, ResultsFileName)); err != nil {
		t.Fatalf("resolve file: %v", err)
	}
	if _, _, err = ResolveRun(root, "missing"); err == nil {
		t.Fatalf("expected error for missing run")
	}
}

// TestResolveStoredIgnoresWorkingDirectory verifies only the output dir is
// searched.
func TestResolveStoredIgnoresWorkingDirectory(t *testing.T) {
	root := t.TempDir()
	writeRun(t, root, "ExampleCode", "20240101T000000Z-aaaa")

	cwd := t.TempDir()
	writeRun(t, cwd, "Outside", "20240105T000000Z-eeee")
	if err := WriteJSON(filepath.Join(cwd, ResultsFileName), sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Chdir(cwd)

	for _, ref := range []string{ResultsFileName, "Outside", "20240105T000000Z-eeee", "..", "ExampleCode/20240101T000000Z-aaaa"} {
		if _, _, err := ResolveStored(root, ref); err == nil {
			t.Fatalf("expected %q to stay unresolved", ref)
		}
	}
	if resolved, _, err := ResolveStored(root, "ExampleCode"); err != nil || resolved.RunID != "20240101T000000Z-aaaa" {
		t.Fatalf("resolve fixture: %v", err)
	}
}
