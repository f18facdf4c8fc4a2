package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChangesOrdersByConfidence(t *testing.T) {
	suggestion, err := ParseChanges("```json\n" + `{"changes":[
		{"type":"delete","oldText":"x","newText":"","confidence":0.1},
		{"type":"INSERT","oldText":"","newText":");","confidence":0.95}
	]}` + "\n```")
	require.NoError(t, err)
	require.Len(t, suggestion.Changes, 2)
	assert.Equal(t, ");", suggestion.Text)
	assert.Equal(t, ChangeDelete, suggestion.Changes[1].Kind)
}

func TestParseChangesEmpty(t *testing.T) {
	suggestion, err := ParseChanges(`{"changes":[]}`)
	require.NoError(t, err)
	assert.Empty(t, suggestion.Text)
	assert.Nil(t, suggestion.Confidence)
}

func TestParseChangesRejectsInvalid(t *testing.T) {
	_, err := ParseChanges(`{"changes":[{"type":"MOVE","newText":"x","confidence":0.5}]}`)
	assert.Error(t, err)

	_, err = ParseChanges(`{"changes":[{"type":"INSERT","newText":"x","confidence":3}]}`)
	assert.Error(t, err)

	_, err = ParseChanges(`changes: nope`)
	assert.Error(t, err)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "a;\nb;", stripFences("```java\na;\nb;\n```"))
	assert.Equal(t, " ; ", stripFences(" ; "))
	assert.Equal(t, "", stripFences("```"))
}
