package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"editbench/internal/fixture"
	"editbench/internal/window"
)

const exampleFixture = "../fixture/testdata/ExampleCode.java"

// requestFor builds the request for marker index i of the example fixture.
func requestFor(t *testing.T, i int, lines int) Request {
	t.Helper()
	f, err := fixture.Load(exampleFixture)
	require.NoError(t, err)
	require.Greater(t, len(f.Markers), i)
	marker := f.Markers[i]
	w, err := window.Extract(f, marker, lines)
	require.NoError(t, err)
	return Request{
		Window:      w,
		Language:    "java",
		Scenario:    marker.Scenario,
		MarkerIndex: marker.Index,
		FixturePath: f.Path,
	}
}

func TestSuggestionValidate(t *testing.T) {
	assert.NoError(t, Suggestion{Text: ";"}.Validate())
	assert.NoError(t, Suggestion{Text: ";", Confidence: Confidence(1)}.Validate())
	assert.Error(t, Suggestion{Text: ";", Confidence: Confidence(1.2)}.Validate())
	assert.Error(t, Suggestion{Changes: []Change{{Kind: "MOVE"}}}.Validate())
	assert.Error(t, Suggestion{Changes: []Change{{Kind: ChangeInsert, Confidence: -0.1}}}.Validate())
}

func TestUnavailableDoesNotDoubleWrap(t *testing.T) {
	cause := errors.New("connection refused")
	first := Unavailable("a", cause)
	second := Unavailable("b", first)

	assert.Same(t, first, second)
	assert.ErrorIs(t, second, ErrUnavailable)
	assert.ErrorIs(t, second, cause)
	var unavailable *UnavailableError
	require.ErrorAs(t, second, &unavailable)
	assert.Equal(t, "a", unavailable.Engine)
}

func TestNameOf(t *testing.T) {
	assert.Equal(t, "custom", NameOf(Func(func(context.Context, Request) (Suggestion, error) {
		return Suggestion{}, nil
	})))
	assert.Equal(t, "baseline", NameOf(NewHeuristicEngine("baseline")))
	assert.Equal(t, "baseline", NameOf(WithTimeout(NewHeuristicEngine("baseline"), 1)))
}

func TestRequestPromptContainsCursorToken(t *testing.T) {
	req := requestFor(t, 0, 3)
	assert.Contains(t, req.Prompt(), "String message = \"Hello, World\"\n"+window.CursorToken)
}
