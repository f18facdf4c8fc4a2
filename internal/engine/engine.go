// Package engine defines the boundary to external next-edit suggestion
// providers and the adapters that implement it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"editbench/internal/window"
)

// ErrUnavailable matches every *UnavailableError via errors.Is.
var ErrUnavailable = errors.New("engine unavailable")

// Engine produces exactly one suggestion per call.
type Engine interface {
	Suggest(ctx context.Context, req Request) (Suggestion, error)
}

// Func adapts a function to the Engine interface.
type Func func(ctx context.Context, req Request) (Suggestion, error)

// Suggest calls f.
func (f Func) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	return f(ctx, req)
}

// Named is implemented by engines that report a display name.
type Named interface {
	Name() string
}

// NameOf returns the engine's name, or "custom" when it has none.
func NameOf(e Engine) string {
	if named, ok := e.(Named); ok {
		if name := strings.TrimSpace(named.Name()); name != "" {
			return name
		}
	}
	return "custom"
}

// Request is the input for one suggestion call.
type Request struct {
	Window window.Window
	// Language is the fixture language, e.g. "java".
	Language string
	// Scenario and MarkerIndex identify the case for engines that replay
	// recorded answers; model-backed engines ignore them.
	Scenario    string
	MarkerIndex int
	FixturePath string
}

// Prompt renders the window with the default cursor token.
func (r Request) Prompt() string {
	return r.Window.Prompt(window.CursorToken)
}

// ChangeKind is the type of a structured edit.
type ChangeKind string

const (
	ChangeInsert  ChangeKind = "INSERT"
	ChangeReplace ChangeKind = "REPLACE"
	ChangeDelete  ChangeKind = "DELETE"
)

// Change is one structured edit proposed by an engine.
type Change struct {
	Kind       ChangeKind `json:"type" yaml:"type"`
	OldText    string     `json:"oldText" yaml:"old_text"`
	NewText    string     `json:"newText" yaml:"new_text"`
	Confidence float64    `json:"confidence" yaml:"confidence"`
}

// Suggestion is the single edit returned for a request.
type Suggestion struct {
	// Text is the inserted or replacement text.
	Text string `json:"text" yaml:"text"`
	// Confidence is optional; when set it must be within [0,1].
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	// Changes carries structured edits when the engine produced them.
	Changes []Change `json:"changes,omitempty" yaml:"changes,omitempty"`
}

// Validate checks the suggestion's confidence bounds and change kinds.
func (s Suggestion) Validate() error {
	if s.Confidence != nil && (*s.Confidence < 0 || *s.Confidence > 1) {
		return fmt.Errorf("confidence %v outside [0,1]", *s.Confidence)
	}
	for i, change := range s.Changes {
		switch change.Kind {
		case ChangeInsert, ChangeReplace, ChangeDelete:
		default:
			return fmt.Errorf("changes[%d]: unknown type %q", i, change.Kind)
		}
		if change.Confidence < 0 || change.Confidence > 1 {
			return fmt.Errorf("changes[%d]: confidence %v outside [0,1]", i, change.Confidence)
		}
	}
	return nil
}

// Confidence returns a pointer to c for building suggestions.
func Confidence(c float64) *float64 {
	return &c
}

// UnavailableError reports a failed or timed out engine call.
type UnavailableError struct {
	Engine string
	Err    error
}

// Error describes the failure.
func (err *UnavailableError) Error() string {
	if err.Err == nil {
		return fmt.Sprintf("engine %s unavailable", err.Engine)
	}
	return fmt.Sprintf("engine %s unavailable: %v", err.Engine, err.Err)
}

// Unwrap returns the underlying cause.
func (err *UnavailableError) Unwrap() error {
	return err.Err
}

// Is lets errors.Is(err, ErrUnavailable) match.
func (err *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Unavailable wraps err as an *UnavailableError unless it already is one.
func Unavailable(engine string, err error) error {
	var existing *UnavailableError
	if errors.As(err, &existing) {
		return err
	}
	return &UnavailableError{Engine: engine, Err: err}
}
