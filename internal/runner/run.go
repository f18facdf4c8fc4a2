package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"editbench/internal/engine"
	"editbench/internal/fixture"
	"editbench/internal/report"
	"editbench/internal/scoring"
	"editbench/internal/syntax"
	"editbench/internal/window"
)

// ErrEngineUnreachable reports a run where the engine was unavailable for at
// least the configured share of markers.
var ErrEngineUnreachable = errors.New("engine unreachable")

const tracerName = "editbench/runner"

// Run evaluates every marker of a fixture and aggregates the verdicts into a
// report in source order. A malformed fixture returns no report. On
// cancellation or an unreachable engine the partial report is returned with
// the error.
func Run(ctx context.Context, params RunParams) (report.Report, error) {
	if params.Engine == nil {
		return report.Report{}, fmt.Errorf("engine is required")
	}
	params, err := applyDefaults(params)
	if err != nil {
		return report.Report{}, err
	}
	now := params.Deps.Now
	if now == nil {
		now = time.Now
	}

	if params.Observer != nil {
		params.Observer.OnStateChange(StateParsing)
	}
	f := params.Fixture
	if f == nil {
		f, err = fixture.Load(params.FixturePath, params.FixtureOptions...)
		if err != nil {
			return report.Report{}, err
		}
	}

	runID, err := ensureRunID(params.Deps.RunID)
	if err != nil {
		return report.Report{}, err
	}
	startedAt := now()

	ctx, span := params.Tracer.Start(ctx, "runner.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("fixture.path", f.Path),
		attribute.String("engine", params.EngineName),
		attribute.Int("markers", len(f.Markers)),
		attribute.Int("workers", params.Workers),
	))
	defer span.End()

	params.Logger.Info("run started",
		"run_id", runID, "fixture", f.Path, "engine", params.EngineName,
		"markers", len(f.Markers), "workers", params.Workers)
	if params.Observer != nil {
		params.Observer.OnRunStart(runID, f.Path, f.Markers)
	}
	observer := newMarkerObserver(params.Observer, f.Markers, now)
	observer.EmitQueuedAll()

	verbose := newVerboseLog(params.Verbose, params.VerboseWriter, params.NoColor)
	deps := markerJobDeps{
		fixture:     f,
		engine:      engine.WithTimeout(params.Engine, params.Timeout),
		engineName:  params.EngineName,
		scorer:      params.Scorer,
		language:    params.Language,
		windowLines: params.WindowLines,
		logger:      params.Logger,
		metrics:     params.Metrics,
		tracer:      params.Tracer,
		observer:    observer,
		verbose:     verbose,
	}
	var results []*report.Verdict
	if params.Workers == 1 {
		results = runMarkerJobsSequential(ctx, f.Markers, deps)
	} else {
		results = runMarkerJobsConcurrent(ctx, f.Markers, params.Workers, deps)
	}

	observer.State(StateAggregating)
	verdicts := make([]report.Verdict, 0, len(results))
	for _, verdict := range results {
		if verdict != nil {
			verdicts = append(verdicts, *verdict)
		}
	}
	result := report.Report{
		RunID:       runID,
		Fixture:     f.Path,
		Engine:      params.EngineName,
		Strategy:    params.Scorer.Strategy(),
		Language:    params.Language,
		WindowLines: params.WindowLines,
		Workers:     params.Workers,
		StartedAt:   startedAt,
		FinishedAt:  now(),
		Summary:     report.Summarize(len(f.Markers), verdicts),
		Verdicts:    verdicts,
	}

	var runErr error
	if err := ctx.Err(); err != nil && len(verdicts) < len(f.Markers) {
		result.Cancelled = true
		runErr = err
	} else if unreachable(result.Summary, params.UnavailableThreshold) {
		runErr = fmt.Errorf("%w: %d of %d markers unavailable", ErrEngineUnreachable, result.Summary.Unavailable, result.Summary.Completed)
	}

	span.SetAttributes(
		attribute.Int("verdicts.pass", result.Summary.Pass),
		attribute.Int("verdicts.fail", result.Summary.Fail),
		attribute.Int("verdicts.partial", result.Summary.Partial),
		attribute.Bool("cancelled", result.Cancelled),
	)
	params.Logger.Info("run finished",
		"run_id", runID, "pass", result.Summary.Pass, "fail", result.Summary.Fail,
		"partial", result.Summary.Partial, "unavailable", result.Summary.Unavailable,
		"cancelled", result.Cancelled)
	verbose.run("Run %s pass=%d fail=%d partial=%d unavailable=%d pass_rate=%.2f%%",
		runID, result.Summary.Pass, result.Summary.Fail, result.Summary.Partial,
		result.Summary.Unavailable, result.Summary.PassRate*100)

	observer.State(StateDone)
	if params.Observer != nil {
		params.Observer.OnRunEnd(result)
	}
	return result, runErr
}

// RunAndWrite runs the harness and writes the run outputs under outputDir.
// Outputs are written for cancelled and unreachable runs too.
func RunAndWrite(ctx context.Context, params RunParams, outputDir string) (report.Report, OutputPaths, error) {
	if strings.TrimSpace(outputDir) == "" {
		return report.Report{}, OutputPaths{}, fmt.Errorf("output directory is required")
	}
	if params.Metrics == nil {
		params.Metrics = NewMetrics()
	}
	result, runErr := Run(ctx, params)
	if result.RunID == "" {
		return result, OutputPaths{}, runErr
	}
	paths, err := WriteRunOutputs(context.WithoutCancel(ctx), result, outputDir, params.Metrics)
	if err != nil {
		return result, OutputPaths{}, errors.Join(runErr, err)
	}
	return result, paths, runErr
}

func applyDefaults(params RunParams) (RunParams, error) {
	if params.Workers <= 0 {
		params.Workers = DefaultWorkers
	}
	switch {
	case params.WindowLines == 0:
		params.WindowLines = DefaultWindowLines
	case params.WindowLines < 0:
		return params, fmt.Errorf("%w: got %d", window.ErrInvalidLineBudget, params.WindowLines)
	}
	if params.UnavailableThreshold <= 0 || params.UnavailableThreshold > 1 {
		params.UnavailableThreshold = 1
	}
	if params.Language == "" {
		params.Language = "java"
	}
	if params.EngineName == "" {
		params.EngineName = engine.NameOf(params.Engine)
	}
	if params.Scorer == nil {
		analyzer, err := syntax.NewAnalyzer(params.Language)
		if err != nil {
			return params, err
		}
		params.Scorer = scoring.New(nil, analyzer)
	}
	if params.Logger == nil {
		params.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if params.Tracer == nil {
		params.Tracer = otel.Tracer(tracerName)
	}
	return params, nil
}

// unreachable reports whether unavailable markers reach the threshold share
// of completed markers.
func unreachable(summary report.Summary, threshold float64) bool {
	if summary.Completed == 0 || summary.Unavailable == 0 {
		return false
	}
	return float64(summary.Unavailable)/float64(summary.Completed) >= threshold
}

// ensureRunID uses the provided generator or falls back to NewRunID.
func ensureRunID(generator func() (string, error)) (string, error) {
	if generator != nil {
		return generator()
	}
	return NewRunID()
}
