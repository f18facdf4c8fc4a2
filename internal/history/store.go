// Package history records harness reports in a DuckDB database so runs can
// be compared over time.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/google/uuid"

	"editbench/internal/report"
)

// ErrDuplicateRun reports a run id that is already recorded.
var ErrDuplicateRun = errors.New("history: run already recorded")

// Store is a DuckDB-backed run history.
type Store struct {
	db *sql.DB
}

// RunSummary is one recorded run without its verdicts.
type RunSummary struct {
	RunID       string
	Fixture     string
	Engine      string
	Strategy    string
	StartedAt   time.Time
	Cancelled   bool
	Summary     report.Summary
	VerdictsKey string
}

// ScenarioRate aggregates verdicts per scenario across recorded runs.
type ScenarioRate struct {
	Engine   string
	Scenario string
	Verdicts int
	Pass     int
	PassRate float64
}

// Open opens or creates the database at path and applies the schema. Use
// ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a report and its verdicts in one transaction.
func (s *Store) Record(ctx context.Context, result report.Report) error {
	if result.RunID == "" {
		return errors.New("history: run id is empty")
	}
	key, err := VerdictsKey(result.Verdicts)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	summary := result.Summary
	inserted, err := tx.ExecContext(ctx,
		`INSERT INTO runs (run_id, fixture, engine, strategy, language, window_lines, workers,
		   started_at, finished_at, cancelled, total, completed, pass, fail, partial,
		   unavailable, pass_rate, verdicts_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (run_id) DO NOTHING`,
		result.RunID, result.Fixture, result.Engine, result.Strategy, result.Language,
		result.WindowLines, result.Workers, result.StartedAt.UTC(), result.FinishedAt.UTC(),
		result.Cancelled, summary.Total, summary.Completed, summary.Pass, summary.Fail,
		summary.Partial, summary.Unavailable, summary.PassRate, key,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if rows, err := inserted.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, result.RunID)
	}

	for _, verdict := range result.Verdicts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO verdicts (verdict_id, run_id, marker_index, scenario, line, intent,
			   status, rationale, suggestion, unavailable)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), result.RunID, verdict.MarkerIndex, verdict.Scenario, verdict.Line,
			verdict.Intent, string(verdict.Status), verdict.Rationale, verdict.Suggestion,
			verdict.Unavailable,
		); err != nil {
			return fmt.Errorf("insert verdict %d: %w", verdict.MarkerIndex, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history tx: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first. An empty fixture matches
// every fixture.
func (s *Store) Recent(ctx context.Context, fixture string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, fixture, engine, strategy, started_at, cancelled, total, completed,
		   pass, fail, partial, unavailable, pass_rate, verdicts_key
		 FROM runs
		 WHERE ? = '' OR fixture = ?
		 ORDER BY started_at DESC, run_id DESC
		 LIMIT ?`,
		fixture, fixture, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var run RunSummary
		if err := rows.Scan(
			&run.RunID, &run.Fixture, &run.Engine, &run.Strategy, &run.StartedAt, &run.Cancelled,
			&run.Summary.Total, &run.Summary.Completed, &run.Summary.Pass, &run.Summary.Fail,
			&run.Summary.Partial, &run.Summary.Unavailable, &run.Summary.PassRate, &run.VerdictsKey,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ScenarioRates returns per-scenario pass rates for a fixture, grouped by
// engine.
func (s *Store) ScenarioRates(ctx context.Context, fixture string) ([]ScenarioRate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT engine, scenario, verdicts, pass, pass_rate
		 FROM v_scenario_rates
		 WHERE fixture = ?
		 ORDER BY engine, scenario`,
		fixture,
	)
	if err != nil {
		return nil, fmt.Errorf("query scenario rates: %w", err)
	}
	defer rows.Close()

	var rates []ScenarioRate
	for rows.Next() {
		var rate ScenarioRate
		var verdicts, pass int64
		if err := rows.Scan(&rate.Engine, &rate.Scenario, &verdicts, &pass, &rate.PassRate); err != nil {
			return nil, fmt.Errorf("scan scenario rate: %w", err)
		}
		rate.Verdicts = int(verdicts)
		rate.Pass = int(pass)
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}
