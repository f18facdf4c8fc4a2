package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// CommandEngine runs an external program once per request. The request is
// written to stdin as JSON; stdout holds either a JSON suggestion or the
// raw suggested text.
type CommandEngine struct {
	id   string
	path string
	args []string
	env  []string
}

// NewCommandEngine builds an engine around an executable.
func NewCommandEngine(id, path string, args []string, env []string) (*CommandEngine, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("command is required")
	}
	if id == "" {
		id = path
	}
	return &CommandEngine{id: id, path: path, args: append([]string(nil), args...), env: env}, nil
}

// Name returns the configured engine id.
func (e *CommandEngine) Name() string {
	return e.id
}

type commandInput struct {
	Language    string `json:"language"`
	Fixture     string `json:"fixture"`
	Scenario    string `json:"scenario"`
	MarkerIndex int    `json:"marker_index"`
	Before      string `json:"before"`
	After       string `json:"after"`
	Prompt      string `json:"prompt"`
}

// Suggest runs the command and decodes its output.
func (e *CommandEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	input, err := json.Marshal(commandInput{
		Language:    req.Language,
		Fixture:     req.FixturePath,
		Scenario:    req.Scenario,
		MarkerIndex: req.MarkerIndex,
		Before:      req.Window.Before,
		After:       req.Window.After,
		Prompt:      req.Prompt(),
	})
	if err != nil {
		return Suggestion{}, fmt.Errorf("marshal command input: %w", err)
	}

	cmd := exec.CommandContext(ctx, e.path, e.args...)
	if len(e.env) > 0 {
		cmd.Env = append(cmd.Environ(), e.env...)
	}
	cmd.Stdin = bytes.NewReader(input)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Suggestion{}, ctxErr
		}
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return Suggestion{}, Unavailable(e.id, fmt.Errorf("%w: %s", err, detail))
		}
		return Suggestion{}, Unavailable(e.id, err)
	}
	return decodeCommandOutput(e.id, stdout.Bytes())
}

func decodeCommandOutput(id string, output []byte) (Suggestion, error) {
	trimmed := bytes.TrimSpace(output)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Suggestion{Text: strings.TrimRight(string(output), "\n")}, nil
	}
	var suggestion Suggestion
	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&suggestion); err != nil {
		return Suggestion{}, Unavailable(id, fmt.Errorf("decode command output: %w", err))
	}
	if suggestion.Text == "" && len(suggestion.Changes) > 0 {
		suggestion.Text = suggestion.Changes[0].NewText
	}
	return suggestion, nil
}
