package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"editbench/internal/edit"
	"editbench/internal/engine"
	"editbench/internal/fixture"
	"editbench/internal/report"
	"editbench/internal/scoring"
	"editbench/internal/window"
)

// markerJobDeps bundles dependencies for evaluating a single marker.
type markerJobDeps struct {
	fixture     *fixture.Fixture
	engine      engine.Engine
	engineName  string
	scorer      *scoring.Scorer
	language    string
	windowLines int
	logger      *slog.Logger
	metrics     *Metrics
	tracer      trace.Tracer
	observer    *markerObserver
	verbose     *verboseLog
}

// markerJobResult captures the outcome of a marker job. A nil verdict marks
// a marker abandoned by cancellation.
type markerJobResult struct {
	index   int
	verdict *report.Verdict
}

// runMarkerJobsSequential evaluates markers one at a time, checking for
// cancellation before each dispatch.
func runMarkerJobsSequential(ctx context.Context, markers []fixture.Marker, deps markerJobDeps) []*report.Verdict {
	results := make([]*report.Verdict, len(markers))
	for index, marker := range markers {
		if ctx.Err() != nil {
			deps.observer.Emit(index, MarkerSkipped, nil, 0)
			continue
		}
		results[index] = evaluateMarker(ctx, deps, index, marker).verdict
	}
	return results
}

// runMarkerJobsConcurrent evaluates markers on a bounded pool and stores
// results by index so the report keeps source order.
func runMarkerJobsConcurrent(ctx context.Context, markers []fixture.Marker, workers int, deps markerJobDeps) []*report.Verdict {
	results := make([]*report.Verdict, len(markers))
	resultCh := make(chan markerJobResult, len(markers))

	var group errgroup.Group
	group.SetLimit(workers)
	for index, marker := range markers {
		// Go blocks until a worker slot frees up.
		if ctx.Err() != nil {
			deps.observer.Emit(index, MarkerSkipped, nil, 0)
			continue
		}
		group.Go(func() error {
			resultCh <- evaluateMarker(ctx, deps, index, marker)
			return nil
		})
	}
	_ = group.Wait()
	close(resultCh)

	for jobResult := range resultCh {
		results[jobResult.index] = jobResult.verdict
	}
	return results
}

// evaluateMarker runs extract, suggest and score for one marker.
func evaluateMarker(ctx context.Context, deps markerJobDeps, index int, marker fixture.Marker) markerJobResult {
	ctx, span := deps.tracer.Start(ctx, "runner.evaluateMarker", trace.WithAttributes(
		attribute.Int("marker.index", marker.Index),
		attribute.Int("marker.line", marker.Line),
		attribute.String("marker.scenario", marker.Scenario),
	))
	defer span.End()

	started := time.Now()
	verdict := report.Verdict{
		MarkerIndex: marker.Index,
		Scenario:    marker.Scenario,
		Line:        marker.Line,
		Column:      marker.Column,
		Offset:      marker.Offset,
		Intent:      marker.Intent,
	}
	finish := func() markerJobResult {
		deps.metrics.observeVerdict(deps.engineName, verdict.Status)
		span.SetAttributes(attribute.String("verdict.status", string(verdict.Status)))
		deps.observer.Emit(index, MarkerScored, &verdict, time.Since(started))
		deps.verbose.marker(marker.Index, marker.Line, verdict.Status, verdict.Rationale)
		return markerJobResult{index: index, verdict: &verdict}
	}
	abandon := func() markerJobResult {
		span.SetStatus(codes.Error, "cancelled")
		deps.observer.Emit(index, MarkerSkipped, nil, time.Since(started))
		deps.logger.Debug("marker abandoned", "marker", marker.Index, "err", ctx.Err())
		return markerJobResult{index: index}
	}

	deps.observer.Emit(index, MarkerExtracting, nil, 0)
	win, err := window.Extract(deps.fixture, marker, deps.windowLines)
	if err != nil {
		verdict.Status = scoring.StatusFail
		verdict.Rationale = "context extraction failed"
		verdict.Error = err.Error()
		return finish()
	}

	deps.observer.Emit(index, MarkerSuggesting, nil, time.Since(started))
	callStarted := time.Now()
	suggestion, err := deps.engine.Suggest(ctx, engine.Request{
		Window:      win,
		Language:    deps.language,
		Scenario:    marker.Scenario,
		MarkerIndex: marker.Index,
		FixturePath: deps.fixture.Path,
	})
	callElapsed := time.Since(callStarted)
	if ctx.Err() != nil {
		return abandon()
	}
	deps.metrics.observeSuggest(deps.engineName, callElapsed, err)
	span.SetAttributes(attribute.Int64("suggest.duration_ms", callElapsed.Milliseconds()))
	if err == nil {
		err = suggestion.Validate()
	}
	if err != nil {
		span.RecordError(err)
		verdict.Status = scoring.StatusFail
		verdict.Error = err.Error()
		if errors.Is(err, engine.ErrUnavailable) {
			verdict.Unavailable = true
			verdict.Rationale = "engine unavailable"
		} else {
			verdict.Rationale = "engine error"
		}
		deps.logger.Warn("engine call failed", "marker", marker.Index, "engine", deps.engineName, "err", err)
		return finish()
	}

	deps.observer.Emit(index, MarkerScoring, nil, time.Since(started))
	scored := deps.scorer.Score(ctx, marker.Intent, suggestion)
	if ctx.Err() != nil {
		return abandon()
	}
	verdict.Status = scored.Status
	verdict.Rationale = scored.Rationale
	verdict.Suggestion = suggestion.Text
	verdict.Confidence = suggestion.Confidence
	verdict.Changes = suggestion.Changes
	if applied, err := edit.Suggestion(deps.fixture.Text, marker.Offset, suggestion); err == nil {
		verdict.Preview = applied.Preview()
	} else {
		deps.logger.Debug("preview unavailable", "marker", marker.Index, "err", err)
	}
	return finish()
}
