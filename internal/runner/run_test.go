package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"editbench/internal/engine"
	"editbench/internal/fixture"
	"editbench/internal/report"
	"editbench/internal/scoring"
	"editbench/internal/testutil"
)

const exampleMarkers = 8

func baseParams(t *testing.T, eng engine.Engine) RunParams {
	t.Helper()
	clock := testutil.NewStepClock(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), time.Second)
	return RunParams{
		FixturePath: testutil.ExampleFixture(t),
		Engine:      eng,
		Deps: RunDependencies{
			RunID: func() (string, error) { return "20260102T030405Z-test", nil },
			Now:   clock.Now,
		},
	}
}

// delayedHeuristic answers like the heuristic engine, slower for earlier
// markers so concurrent completions arrive out of order.
func delayedHeuristic() engine.Engine {
	heuristic := engine.NewHeuristicEngine("")
	return engine.Func(func(ctx context.Context, req engine.Request) (engine.Suggestion, error) {
		delay := time.Duration(exampleMarkers-req.MarkerIndex) * 5 * time.Millisecond
		select {
		case <-ctx.Done():
			return engine.Suggestion{}, ctx.Err()
		case <-time.After(delay):
		}
		return heuristic.Suggest(ctx, req)
	})
}

type recordingObserver struct {
	mu      sync.Mutex
	runID   string
	markers []fixture.Marker
	states  []State
	events  []MarkerEvent
	final   *report.Report
}

func (o *recordingObserver) OnRunStart(runID string, _ string, markers []fixture.Marker) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.runID = runID
	o.markers = markers
}

func (o *recordingObserver) OnStateChange(state State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.states = append(o.states, state)
}

func (o *recordingObserver) OnMarkerEvent(event MarkerEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, event)
}

func (o *recordingObserver) OnRunEnd(result report.Report) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.final = &result
}

func (o *recordingObserver) lastEvent(index int) MarkerEventType {
	types := o.eventsFor(index)
	if len(types) == 0 {
		return ""
	}
	return types[len(types)-1]
}

func (o *recordingObserver) eventsFor(index int) []MarkerEventType {
	o.mu.Lock()
	defer o.mu.Unlock()
	var types []MarkerEventType
	for _, event := range o.events {
		if event.MarkerIndex == index {
			types = append(types, event.Type)
		}
	}
	return types
}

// TestRunHeuristicOverExampleFixture verifies the baseline engine verdicts.
func TestRunHeuristicOverExampleFixture(t *testing.T) {
	result, err := Run(testutil.Context(t, 0), baseParams(t, engine.NewHeuristicEngine("")))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.Verdicts) != exampleMarkers {
		t.Fatalf("expected %d verdicts, got %d", exampleMarkers, len(result.Verdicts))
	}
	if result.Summary.Pass != 7 || result.Summary.Fail != 1 || result.Summary.Partial != 0 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	if result.Summary.PassRate != 7.0/8.0 {
		t.Fatalf("unexpected pass rate: %v", result.Summary.PassRate)
	}
	missed := result.Verdicts[3]
	if missed.Status != scoring.StatusFail || missed.Rationale != "empty suggestion" {
		t.Fatalf("unexpected verdict for marker 3: %+v", missed)
	}
	first := result.Verdicts[0]
	if first.Suggestion != ";" || first.Line != 6 || !strings.Contains(first.Preview, ";") {
		t.Fatalf("unexpected first verdict: %+v", first)
	}
	if result.Engine != "heuristic" || result.Strategy != "edit_kind" || result.Language != "java" {
		t.Fatalf("unexpected envelope: engine=%q strategy=%q language=%q", result.Engine, result.Strategy, result.Language)
	}
	if result.WindowLines != DefaultWindowLines || result.Workers != DefaultWorkers {
		t.Fatalf("defaults not applied: window=%d workers=%d", result.WindowLines, result.Workers)
	}
	if !result.FinishedAt.After(result.StartedAt) {
		t.Fatalf("expected finished after started")
	}
}

// TestRunConcurrentPreservesSourceOrder verifies out-of-order completions
// are reported in marker order with the same verdicts as a sequential run.
func TestRunConcurrentPreservesSourceOrder(t *testing.T) {
	ctx := testutil.Context(t, 0)
	sequential, err := Run(ctx, baseParams(t, delayedHeuristic()))
	if err != nil {
		t.Fatalf("sequential run: %v", err)
	}
	params := baseParams(t, delayedHeuristic())
	params.Workers = 4
	concurrent, err := Run(ctx, params)
	if err != nil {
		t.Fatalf("concurrent run: %v", err)
	}
	for i, verdict := range concurrent.Verdicts {
		if verdict.MarkerIndex != i {
			t.Fatalf("verdict %d has marker index %d", i, verdict.MarkerIndex)
		}
	}
	if !reflect.DeepEqual(sequential.Verdicts, concurrent.Verdicts) {
		t.Fatalf("concurrent verdicts differ from sequential verdicts")
	}
}

// TestRunIsIdempotent verifies repeated runs of a deterministic engine.
func TestRunIsIdempotent(t *testing.T) {
	ctx := testutil.Context(t, 0)
	first, err := Run(ctx, baseParams(t, engine.NewHeuristicEngine("")))
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := Run(ctx, baseParams(t, engine.NewHeuristicEngine("")))
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(first.Verdicts, second.Verdicts) || first.Summary != second.Summary {
		t.Fatalf("runs differ")
	}
}

// TestRunCancellationReturnsPartialReport verifies markers after the
// cancellation point get no verdict.
func TestRunCancellationReturnsPartialReport(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.Context(t, 0))
	defer cancel()
	heuristic := engine.NewHeuristicEngine("")
	eng := engine.Func(func(callCtx context.Context, req engine.Request) (engine.Suggestion, error) {
		if req.MarkerIndex == 2 {
			cancel()
		}
		return heuristic.Suggest(context.WithoutCancel(callCtx), req)
	})
	observer := &recordingObserver{}
	params := baseParams(t, eng)
	params.Observer = observer

	result, err := Run(ctx, params)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !result.Cancelled {
		t.Fatalf("expected cancelled report")
	}
	if len(result.Verdicts) != 2 || result.Summary.Completed != 2 || result.Summary.Total != exampleMarkers {
		t.Fatalf("unexpected partial report: %+v", result.Summary)
	}
	for index := 2; index < exampleMarkers; index++ {
		types := observer.eventsFor(index)
		if types[len(types)-1] != MarkerSkipped {
			t.Fatalf("marker %d: expected skipped, got %v", index, types)
		}
	}
}

// TestRunConcurrentCancellationAbandonsInFlight verifies in-flight engine
// calls are abandoned without verdicts when the run is cancelled.
func TestRunConcurrentCancellationAbandonsInFlight(t *testing.T) {
	ctx, cancel := context.WithCancel(testutil.Context(t, 0))
	defer cancel()
	eng := engine.Func(func(callCtx context.Context, _ engine.Request) (engine.Suggestion, error) {
		<-callCtx.Done()
		return engine.Suggestion{}, callCtx.Err()
	})
	observer := &recordingObserver{}
	params := baseParams(t, eng)
	params.Observer = observer
	params.Workers = 2

	type outcome struct {
		result report.Report
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := Run(ctx, params)
		done <- outcome{result: result, err: err}
	}()

	testutil.Eventually(t, 5*time.Second, 5*time.Millisecond, func() bool {
		return len(observer.eventsFor(0)) > 0 && len(observer.eventsFor(1)) > 0 &&
			observer.lastEvent(0) == MarkerSuggesting && observer.lastEvent(1) == MarkerSuggesting
	}, "workers never reached the engine")
	cancel()

	got := <-done
	if !errors.Is(got.err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", got.err)
	}
	if !got.result.Cancelled || len(got.result.Verdicts) != 0 || got.result.Summary.Total != exampleMarkers {
		t.Fatalf("unexpected report: cancelled=%v summary=%+v", got.result.Cancelled, got.result.Summary)
	}
}

// TestRunMalformedFixture verifies a fixture without markers returns no report.
func TestRunMalformedFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Empty.java")
	if err := os.WriteFile(path, []byte("class Empty {}\n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	params := baseParams(t, engine.NewHeuristicEngine(""))
	params.FixturePath = path
	result, err := Run(testutil.Context(t, 0), params)
	if !errors.Is(err, fixture.ErrMalformedFixture) {
		t.Fatalf("expected malformed fixture error, got %v", err)
	}
	if result.RunID != "" {
		t.Fatalf("expected no report, got %+v", result)
	}
}

// TestRunEngineUnreachable verifies the unavailable threshold.
func TestRunEngineUnreachable(t *testing.T) {
	heuristic := engine.NewHeuristicEngine("")
	halfDown := engine.Func(func(ctx context.Context, req engine.Request) (engine.Suggestion, error) {
		if req.MarkerIndex%2 == 0 {
			return engine.Suggestion{}, engine.Unavailable("flaky", errors.New("connection refused"))
		}
		return heuristic.Suggest(ctx, req)
	})

	result, err := Run(testutil.Context(t, 0), baseParams(t, halfDown))
	if err != nil {
		t.Fatalf("expected default threshold to tolerate half the markers, got %v", err)
	}
	if result.Summary.Unavailable != 4 {
		t.Fatalf("expected 4 unavailable verdicts, got %d", result.Summary.Unavailable)
	}
	verdict := result.Verdicts[0]
	if !verdict.Unavailable || verdict.Status != scoring.StatusFail || !strings.Contains(verdict.Error, "connection refused") {
		t.Fatalf("unexpected unavailable verdict: %+v", verdict)
	}

	params := baseParams(t, halfDown)
	params.UnavailableThreshold = 0.5
	result, err = Run(testutil.Context(t, 0), params)
	if !errors.Is(err, ErrEngineUnreachable) {
		t.Fatalf("expected ErrEngineUnreachable, got %v", err)
	}
	if len(result.Verdicts) != exampleMarkers {
		t.Fatalf("expected report for inspection, got %d verdicts", len(result.Verdicts))
	}
}

// TestRunTimeoutMarksUnavailable verifies a slow engine call is abandoned.
func TestRunTimeoutMarksUnavailable(t *testing.T) {
	heuristic := engine.NewHeuristicEngine("")
	eng := engine.Func(func(ctx context.Context, req engine.Request) (engine.Suggestion, error) {
		if req.MarkerIndex == 0 {
			<-ctx.Done()
			return engine.Suggestion{}, ctx.Err()
		}
		return heuristic.Suggest(ctx, req)
	})
	params := baseParams(t, eng)
	params.Timeout = 20 * time.Millisecond
	result, err := Run(testutil.Context(t, 0), params)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !result.Verdicts[0].Unavailable || result.Verdicts[0].Status != scoring.StatusFail {
		t.Fatalf("expected timed out marker to be unavailable: %+v", result.Verdicts[0])
	}
	if result.Verdicts[1].Status != scoring.StatusPass {
		t.Fatalf("expected later markers to proceed: %+v", result.Verdicts[1])
	}
}

// TestRunRateLimitWaitIsNotATimeout verifies markers queued behind the rate
// limiter are not reported unavailable by the call timeout.
func TestRunRateLimitWaitIsNotATimeout(t *testing.T) {
	limited := engine.RateLimited(engine.NewHeuristicEngine(""), 50, 1)
	params := baseParams(t, limited)
	params.Timeout = 10 * time.Millisecond
	result, err := Run(testutil.Context(t, 0), params)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Summary.Unavailable != 0 || result.Summary.Pass != 7 {
		t.Fatalf("expected rate limited run to match the heuristic baseline: %+v", result.Summary)
	}
}

// TestRunEngineErrorDegradesToFail verifies invalid suggestions are verdicts.
func TestRunEngineErrorDegradesToFail(t *testing.T) {
	eng := engine.Func(func(context.Context, engine.Request) (engine.Suggestion, error) {
		return engine.Suggestion{Text: ";", Confidence: engine.Confidence(2)}, nil
	})
	result, err := Run(testutil.Context(t, 0), baseParams(t, eng))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, verdict := range result.Verdicts {
		if verdict.Status != scoring.StatusFail || verdict.Rationale != "engine error" || verdict.Unavailable {
			t.Fatalf("unexpected verdict: %+v", verdict)
		}
	}
}

// TestRunObserverEvents verifies the state machine and marker lifecycle.
func TestRunObserverEvents(t *testing.T) {
	observer := &recordingObserver{}
	params := baseParams(t, engine.NewHeuristicEngine(""))
	params.Observer = observer
	params.Workers = 3
	result, err := Run(testutil.Context(t, 0), params)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if observer.runID != result.RunID || len(observer.markers) != exampleMarkers {
		t.Fatalf("unexpected run start: id=%q markers=%d", observer.runID, len(observer.markers))
	}
	if observer.final == nil || observer.final.RunID != result.RunID {
		t.Fatalf("expected run end with final report")
	}
	states := observer.states
	if states[0] != StateParsing || states[len(states)-1] != StateDone || states[len(states)-2] != StateAggregating {
		t.Fatalf("unexpected state sequence: %v", states)
	}
	want := []MarkerEventType{MarkerQueued, MarkerExtracting, MarkerSuggesting, MarkerScoring, MarkerScored}
	for index := 0; index < exampleMarkers; index++ {
		if got := observer.eventsFor(index); !reflect.DeepEqual(got, want) {
			t.Fatalf("marker %d events: got %v want %v", index, got, want)
		}
	}
}

// TestRunRecordsSpans verifies one run span parents every marker span.
func TestRunRecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	params := baseParams(t, engine.NewHeuristicEngine(""))
	params.Tracer = provider.Tracer("test")
	if _, err := Run(testutil.Context(t, 0), params); err != nil {
		t.Fatalf("run: %v", err)
	}

	spans := exporter.GetSpans()
	var root tracetest.SpanStub
	markerSpans := 0
	for _, span := range spans {
		if span.Name == "runner.Run" {
			root = span
		}
	}
	if root.Name == "" {
		t.Fatalf("missing runner.Run span")
	}
	for _, span := range spans {
		if span.Name != "runner.evaluateMarker" {
			continue
		}
		markerSpans++
		if span.Parent.SpanID() != root.SpanContext.SpanID() {
			t.Fatalf("marker span not parented by run span")
		}
	}
	if markerSpans != exampleMarkers {
		t.Fatalf("expected %d marker spans, got %d", exampleMarkers, markerSpans)
	}
}

// TestRunMetrics verifies verdict and latency collectors.
func TestRunMetrics(t *testing.T) {
	metrics := NewMetrics()
	params := baseParams(t, engine.NewHeuristicEngine(""))
	params.Metrics = metrics
	if _, err := Run(testutil.Context(t, 0), params); err != nil {
		t.Fatalf("run: %v", err)
	}
	if got := promtest.ToFloat64(metrics.verdictsTotal.WithLabelValues("heuristic", "pass")); got != 7 {
		t.Fatalf("expected 7 pass verdicts, got %v", got)
	}
	if got := promtest.ToFloat64(metrics.verdictsTotal.WithLabelValues("heuristic", "fail")); got != 1 {
		t.Fatalf("expected 1 fail verdict, got %v", got)
	}
	if got := promtest.CollectAndCount(metrics.suggestDuration); got != 1 {
		t.Fatalf("expected one latency series, got %d", got)
	}
}

// TestRunAndWriteOutputs verifies the run directory layout.
func TestRunAndWriteOutputs(t *testing.T) {
	outputDir := t.TempDir()
	result, paths, err := RunAndWrite(testutil.Context(t, 0), baseParams(t, engine.NewHeuristicEngine("")), outputDir)
	if err != nil {
		t.Fatalf("run and write: %v", err)
	}
	if paths.RunDir() != filepath.Join(outputDir, "ExampleCode", "20260102T030405Z-test") {
		t.Fatalf("unexpected run dir: %s", paths.RunDir())
	}
	for _, path := range []string{paths.ResultsPath(), paths.ReportPath(), paths.TextPath(), paths.MetricsPath()} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s: %v", filepath.Base(path), err)
		}
	}
	loaded, err := report.Load(paths.ResultsPath())
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	if loaded.RunID != result.RunID || len(loaded.Verdicts) != exampleMarkers {
		t.Fatalf("unexpected loaded report: %+v", loaded.Summary)
	}
	metrics, err := os.ReadFile(paths.MetricsPath())
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(metrics), "editbench_verdicts_total") {
		t.Fatalf("metrics file missing verdict counter")
	}
}

// TestRunRejectsInvalidParams verifies parameter errors before any work.
func TestRunRejectsInvalidParams(t *testing.T) {
	if _, err := Run(testutil.Context(t, 0), RunParams{}); err == nil {
		t.Fatalf("expected error without engine")
	}
	params := baseParams(t, engine.NewHeuristicEngine(""))
	params.WindowLines = -1
	if _, err := Run(testutil.Context(t, 0), params); err == nil {
		t.Fatalf("expected error for negative window")
	}
	params = baseParams(t, engine.NewHeuristicEngine(""))
	params.Language = "cobol"
	if _, err := Run(testutil.Context(t, 0), params); err == nil {
		t.Fatalf("expected error for unsupported language")
	}
}

// TestOutputPathsValidation verifies required output path parts.
func TestOutputPathsValidation(t *testing.T) {
	if _, err := NewOutputPaths("", "a.java", "id"); err == nil {
		t.Fatalf("expected error for empty root")
	}
	if _, err := NewOutputPaths("out", "", "id"); err == nil {
		t.Fatalf("expected error for empty fixture")
	}
	if _, err := NewOutputPaths("out", "a.java", " "); err == nil {
		t.Fatalf("expected error for empty run id")
	}
	if FixtureName("dir/Sample.test.java") != "Sample.test" {
		t.Fatalf("unexpected fixture name")
	}
}

// TestRunVerboseOutput verifies per-marker and summary progress lines.
func TestRunVerboseOutput(t *testing.T) {
	var out strings.Builder
	params := baseParams(t, engine.NewHeuristicEngine(""))
	params.Verbose = true
	params.VerboseWriter = &out
	params.NoColor = true
	params.Workers = 4

	if _, err := Run(testutil.Context(t, 0), params); err != nil {
		t.Fatalf("run: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"[verbose] Marker 0 line 6 pass:",
		"fail: empty suggestion",
		"[verbose] Run 20260102T030405Z-test pass=7 fail=1",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in verbose output:\n%s", want, text)
		}
	}
	if strings.Contains(text, "\x1b[") {
		t.Fatalf("expected no escape codes with NoColor")
	}
}
