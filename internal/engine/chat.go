package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

// Mode selects how a model engine is asked for its suggestion.
type Mode string

const (
	// ModeInsertion asks for raw code to insert at the cursor.
	ModeInsertion Mode = "insertion"
	// ModeChanges asks for structured INSERT/REPLACE/DELETE edits.
	ModeChanges Mode = "changes"
)

// HTTPDoer abstracts HTTP clients used by chat engines.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ChatOptions configures an OpenAI-compatible chat completions engine.
type ChatOptions struct {
	ID          string
	Model       string
	APIKey      string
	BaseURL     string
	Mode        Mode
	Temperature float64
	MaxTokens   int
	Client      HTTPDoer
}

// ChatEngine calls an OpenAI-compatible /chat/completions endpoint.
type ChatEngine struct {
	opts ChatOptions
}

// NewChatEngine validates options and fills defaults.
func NewChatEngine(opts ChatOptions) (*ChatEngine, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = defaultOpenAIBaseURL
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Mode == "" {
		opts.Mode = ModeInsertion
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = defaultMaxTokens(opts.Mode)
	}
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.ID == "" {
		opts.ID = opts.Model
	}
	return &ChatEngine{opts: opts}, nil
}

// Name returns the configured engine id.
func (e *ChatEngine) Name() string {
	return e.opts.ID
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type       string          `json:"type"`
	JSONSchema *jsonSchemaSpec `json:"json_schema,omitempty"`
}

type jsonSchemaSpec struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Suggest sends the cursor window and decodes the first choice.
func (e *ChatEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	body := chatRequest{
		Model: e.opts.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt(e.opts.Mode, req.Language)},
			{Role: "user", Content: req.Prompt()},
		},
		MaxTokens:   e.opts.MaxTokens,
		Temperature: e.opts.Temperature,
	}
	if e.opts.Mode == ModeChanges {
		body.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchemaSpec{
				Name:   "code_changes",
				Strict: true,
				Schema: changesSchema(),
			},
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return Suggestion{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := e.opts.BaseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return Suggestion{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+e.opts.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.opts.Client.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Suggestion{}, ctxErr
		}
		return Suggestion{}, Unavailable(e.opts.ID, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Suggestion{}, Unavailable(e.opts.ID, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(data))))
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return Suggestion{}, Unavailable(e.opts.ID, fmt.Errorf("decode response: %w", err))
	}
	if len(decoded.Choices) == 0 {
		return Suggestion{}, Unavailable(e.opts.ID, fmt.Errorf("response has no choices"))
	}
	return decodeContent(e.opts.ID, e.opts.Mode, decoded.Choices[0].Message.Content)
}

// decodeContent turns model output into a suggestion for the given mode.
func decodeContent(engineID string, mode Mode, content string) (Suggestion, error) {
	if mode == ModeChanges {
		suggestion, err := ParseChanges(content)
		if err != nil {
			return Suggestion{}, Unavailable(engineID, err)
		}
		return suggestion, nil
	}
	return Suggestion{Text: stripFences(content)}, nil
}

func defaultMaxTokens(mode Mode) int {
	if mode == ModeChanges {
		return 500
	}
	return 100
}

func systemPrompt(mode Mode, language string) string {
	if strings.TrimSpace(language) == "" {
		language = "source"
	}
	if mode == ModeChanges {
		return fmt.Sprintf(`You are an expert %[1]s programmer. Identify the edit needed around the %[2]s marker.
Return every change as an object with type (INSERT, REPLACE or DELETE), oldText (the text to replace, empty for INSERT), newText and confidence between 0.0 and 1.0.
Provide complete corrected lines with their indentation.`, language, "[CURSOR_HERE]")
	}
	return fmt.Sprintf(`You are an expert %[1]s programmer. Complete the %[1]s code by adding code only at the %[2]s marker.
Do not rewrite or remove code before or after the marker.
Stop as soon as the current statement, block or declaration is complete.
If no valid insertion exists, return nothing.
Return only the inserted code, without explanations or markdown.`, language, "[CURSOR_HERE]")
}
