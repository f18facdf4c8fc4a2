package engine

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type changesPayload struct {
	Changes []Change `json:"changes"`
}

// changesSchema is the JSON schema requested from model engines that return
// structured edits.
func changesSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"changes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type": map[string]any{
							"type": "string",
							"enum": []string{string(ChangeInsert), string(ChangeReplace), string(ChangeDelete)},
						},
						"oldText":    map[string]any{"type": "string"},
						"newText":    map[string]any{"type": "string"},
						"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
					"required":             []string{"type", "oldText", "newText", "confidence"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"changes"},
		"additionalProperties": false,
	}
}

// ParseChanges decodes a structured edit payload. Changes are ordered by
// confidence, highest first, and the top change becomes the suggestion text.
func ParseChanges(content string) (Suggestion, error) {
	var payload changesPayload
	if err := json.Unmarshal([]byte(stripFences(content)), &payload); err != nil {
		return Suggestion{}, fmt.Errorf("decode changes: %w", err)
	}
	changes := make([]Change, 0, len(payload.Changes))
	for _, change := range payload.Changes {
		change.Kind = ChangeKind(strings.ToUpper(strings.TrimSpace(string(change.Kind))))
		changes = append(changes, change)
	}
	sort.SliceStable(changes, func(i, j int) bool {
		return changes[i].Confidence > changes[j].Confidence
	})
	suggestion := Suggestion{Changes: changes}
	if len(changes) > 0 {
		suggestion.Text = changes[0].NewText
		suggestion.Confidence = Confidence(changes[0].Confidence)
	}
	if err := suggestion.Validate(); err != nil {
		return Suggestion{}, err
	}
	return suggestion, nil
}

// stripFences removes a surrounding markdown code fence.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		trimmed = trimmed[newline+1:]
	} else {
		trimmed = ""
	}
	trimmed = strings.TrimSuffix(strings.TrimRight(trimmed, " \n\t"), "```")
	return strings.TrimRight(trimmed, "\n")
}
