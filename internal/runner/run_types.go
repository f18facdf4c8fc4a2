package runner

import (
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"editbench/internal/engine"
	"editbench/internal/fixture"
	"editbench/internal/scoring"
)

// Defaults applied to zero RunParams fields.
const (
	DefaultWorkers     = 1
	DefaultWindowLines = 8
)

// RunDependencies allows injecting run ids and clocks.
type RunDependencies struct {
	RunID func() (string, error)
	Now   func() time.Time
}

// RunParams configures a run invocation.
type RunParams struct {
	// Fixture is used when set; otherwise FixturePath is loaded.
	Fixture        *fixture.Fixture
	FixturePath    string
	FixtureOptions []fixture.Option

	Engine     engine.Engine
	EngineName string
	// Scorer defaults to the built-in edit kind rules for Language.
	Scorer   *scoring.Scorer
	Language string

	Workers     int
	WindowLines int
	// Timeout bounds every engine call; zero disables it.
	Timeout time.Duration
	// UnavailableThreshold is the fraction of evaluated markers whose engine
	// call may be unavailable before the run fails with
	// ErrEngineUnreachable. Zero means 1.0.
	UnavailableThreshold float64

	Logger        *slog.Logger
	Observer      RunObserver
	Metrics       *Metrics
	Tracer        trace.Tracer
	Verbose       bool
	VerboseWriter io.Writer
	NoColor       bool
	Deps          RunDependencies
}
