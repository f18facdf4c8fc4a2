package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ReplayEntry is one recorded suggestion.
type ReplayEntry struct {
	// Marker selects a case by index; Scenario selects by label or label prefix.
	Marker     *int     `yaml:"marker,omitempty"`
	Scenario   string   `yaml:"scenario,omitempty"`
	Text       string   `yaml:"text"`
	Confidence *float64 `yaml:"confidence,omitempty"`
	Changes    []Change `yaml:"changes,omitempty"`
	// Error simulates an unavailable engine for the case.
	Error   string `yaml:"error,omitempty"`
	DelayMS int    `yaml:"delay_ms,omitempty"`
}

// ReplayFile is the on-disk format for recorded suggestions.
type ReplayFile struct {
	Version     int           `yaml:"version"`
	Suggestions []ReplayEntry `yaml:"suggestions"`
}

// ReplayEngine answers from recorded suggestions, for offline runs.
type ReplayEngine struct {
	id      string
	entries []ReplayEntry
}

// LoadReplay reads a replay file.
func LoadReplay(id, path string) (*ReplayEngine, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read replay file: %w", err)
	}
	file, err := parseReplay(data)
	if err != nil {
		return nil, err
	}
	return NewReplayEngine(id, file.Suggestions), nil
}

func parseReplay(data []byte) (ReplayFile, error) {
	var file ReplayFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return ReplayFile{}, fmt.Errorf("parse replay: %w", err)
	}
	var extra yaml.Node
	if err := decoder.Decode(&extra); err != io.EOF {
		if err == nil {
			return ReplayFile{}, fmt.Errorf("parse replay: multiple YAML documents are not supported")
		}
		return ReplayFile{}, fmt.Errorf("parse replay: %w", err)
	}
	if file.Version != 0 && file.Version != 1 {
		return ReplayFile{}, fmt.Errorf("parse replay: unsupported version %d", file.Version)
	}
	for i, entry := range file.Suggestions {
		if entry.Marker == nil && strings.TrimSpace(entry.Scenario) == "" {
			return ReplayFile{}, fmt.Errorf("parse replay: suggestions[%d] needs marker or scenario", i)
		}
	}
	return file, nil
}

// NewReplayEngine builds a replay engine from entries.
func NewReplayEngine(id string, entries []ReplayEntry) *ReplayEngine {
	if id == "" {
		id = "replay"
	}
	return &ReplayEngine{id: id, entries: append([]ReplayEntry(nil), entries...)}
}

// Name returns the configured engine id.
func (e *ReplayEngine) Name() string {
	return e.id
}

// Suggest returns the entry for the request's marker, falling back to the
// first entry whose scenario matches.
func (e *ReplayEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	entry, ok := e.lookup(req)
	if !ok {
		return Suggestion{}, Unavailable(e.id, fmt.Errorf("no recorded suggestion for marker %d", req.MarkerIndex))
	}
	if entry.DelayMS > 0 {
		timer := time.NewTimer(time.Duration(entry.DelayMS) * time.Millisecond)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Suggestion{}, ctx.Err()
		case <-timer.C:
		}
	}
	if entry.Error != "" {
		return Suggestion{}, Unavailable(e.id, errors.New(entry.Error))
	}
	suggestion := Suggestion{
		Text:       entry.Text,
		Confidence: entry.Confidence,
		Changes:    append([]Change(nil), entry.Changes...),
	}
	if suggestion.Text == "" && len(suggestion.Changes) > 0 {
		suggestion.Text = suggestion.Changes[0].NewText
	}
	return suggestion, nil
}

func (e *ReplayEngine) lookup(req Request) (ReplayEntry, bool) {
	for _, entry := range e.entries {
		if entry.Marker != nil && *entry.Marker == req.MarkerIndex {
			return entry, true
		}
	}
	for _, entry := range e.entries {
		if entry.Marker != nil || entry.Scenario == "" {
			continue
		}
		if entry.Scenario == req.Scenario || strings.HasPrefix(req.Scenario, entry.Scenario+":") {
			return entry, true
		}
	}
	return ReplayEntry{}, false
}
