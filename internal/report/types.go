// Package report defines harness reports and renders them as JSON, text and
// HTML.
package report

import (
	"strconv"
	"time"

	"editbench/internal/engine"
	"editbench/internal/scoring"
)

// Verdict is the scored outcome for one marker. It carries no wall-clock
// data so repeated runs of a deterministic engine produce equal verdicts.
type Verdict struct {
	MarkerIndex int             `json:"marker_index"`
	Scenario    string          `json:"scenario"`
	Line        int             `json:"line"`
	Column      int             `json:"column"`
	Offset      int             `json:"offset"`
	Intent      string          `json:"intent"`
	Status      scoring.Status  `json:"status"`
	Rationale   string          `json:"rationale"`
	Suggestion  string          `json:"suggestion"`
	Confidence  *float64        `json:"confidence,omitempty"`
	Changes     []engine.Change `json:"changes,omitempty"`
	// Preview shows the marker line after applying the suggestion.
	Preview     string `json:"preview,omitempty"`
	Error       string `json:"error,omitempty"`
	Unavailable bool   `json:"unavailable,omitempty"`
}

// Summary aggregates verdict counts.
type Summary struct {
	// Total counts markers in the fixture; Completed counts verdicts.
	Total       int     `json:"total"`
	Completed   int     `json:"completed"`
	Pass        int     `json:"pass"`
	Fail        int     `json:"fail"`
	Partial     int     `json:"partial"`
	Unavailable int     `json:"unavailable"`
	PassRate    float64 `json:"pass_rate"`
}

// PassRatePercent formats the pass rate as a percentage with two decimals.
func (s Summary) PassRatePercent() string {
	return strconv.FormatFloat(s.PassRate*100, 'f', 2, 64)
}

// Report is the result of one harness run over one fixture.
type Report struct {
	RunID       string    `json:"run_id"`
	Fixture     string    `json:"fixture"`
	Engine      string    `json:"engine"`
	Strategy    string    `json:"strategy"`
	Language    string    `json:"language"`
	WindowLines int       `json:"window_lines"`
	Workers     int       `json:"workers"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Cancelled   bool      `json:"cancelled,omitempty"`
	Summary     Summary   `json:"summary"`
	Verdicts    []Verdict `json:"verdicts"`
}

// Summarize counts verdicts against total markers.
func Summarize(total int, verdicts []Verdict) Summary {
	summary := Summary{Total: total, Completed: len(verdicts)}
	for _, verdict := range verdicts {
		switch verdict.Status {
		case scoring.StatusPass:
			summary.Pass++
		case scoring.StatusPartial:
			summary.Partial++
		default:
			summary.Fail++
		}
		if verdict.Unavailable {
			summary.Unavailable++
		}
	}
	if total > 0 {
		summary.PassRate = float64(summary.Pass) / float64(total)
	}
	return summary
}
