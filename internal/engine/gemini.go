package engine

import (
	"context"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// contentGenerator is the subset of *genai.Models used by GeminiEngine.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOptions configures a Gemini engine.
type GeminiOptions struct {
	ID     string
	Model  string
	APIKey string
	Mode   Mode
}

// GeminiEngine asks a Gemini model for a suggestion.
type GeminiEngine struct {
	opts   GeminiOptions
	models contentGenerator
}

// NewGeminiEngine creates a genai client for the Gemini API backend. An
// empty API key lets the client read GEMINI_API_KEY or GOOGLE_API_KEY.
func NewGeminiEngine(ctx context.Context, opts GeminiOptions) (*GeminiEngine, error) {
	if strings.TrimSpace(opts.Model) == "" {
		return nil, fmt.Errorf("model is required")
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return newGeminiEngine(opts, cli.Models), nil
}

func newGeminiEngine(opts GeminiOptions, models contentGenerator) *GeminiEngine {
	if opts.Mode == "" {
		opts.Mode = ModeInsertion
	}
	if opts.ID == "" {
		opts.ID = "gemini:" + opts.Model
	}
	return &GeminiEngine{opts: opts, models: models}
}

// Name returns the configured engine id.
func (e *GeminiEngine) Name() string {
	return e.opts.ID
}

// Suggest sends the system prompt and cursor window as one text part.
func (e *GeminiEngine) Suggest(ctx context.Context, req Request) (Suggestion, error) {
	full := systemPrompt(e.opts.Mode, req.Language) + "\n\n" + req.Prompt()
	config := &genai.GenerateContentConfig{}
	if e.opts.Mode == ModeChanges {
		config.ResponseMIMEType = "application/json"
	}
	resp, err := e.models.GenerateContent(ctx, e.opts.Model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
		config,
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Suggestion{}, ctxErr
		}
		return Suggestion{}, Unavailable(e.opts.ID, err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return Suggestion{}, Unavailable(e.opts.ID, fmt.Errorf("response has no candidates"))
	}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text.WriteString(part.Text)
		}
	}
	return decodeContent(e.opts.ID, e.opts.Mode, text.String())
}
