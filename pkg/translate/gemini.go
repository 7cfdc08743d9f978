package translate

import (
	"context"
	"fmt"

	genai "google.golang.org/genai"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini translates words with the Gemini API.
type Gemini struct {
	cli    *genai.Client
	model  string
	source string
	target string
}

// NewGemini creates a Gemini translator. An empty apiKey lets the client read
// GEMINI_API_KEY / GOOGLE_API_KEY from the environment.
func NewGemini(ctx context.Context, apiKey, model, source, target string) (*Gemini, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	return &Gemini{cli: cli, model: model, source: source, target: target}, nil
}

func (g *Gemini) Translate(ctx context.Context, word string) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt(g.source, g.target, word)}}}},
		nil,
	)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrNoTranslation
	}
	out := clean(resp.Candidates[0].Content.Parts[0].Text)
	if out == "" {
		return "", ErrNoTranslation
	}
	return out, nil
}
