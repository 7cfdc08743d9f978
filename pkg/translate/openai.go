package translate

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAI translates words with a chat completion.
type OpenAI struct {
	apiKey string
	client *openai.Client
	Model  string
	source string
	target string
}

// NewOpenAI creates a translator from the source language name into the target language name.
func NewOpenAI(apiKey, source, target string) *OpenAI {
	return NewOpenAIWithConfig(apiKey, openai.DefaultConfig(apiKey), source, target)
}

// NewOpenAIWithConfig is NewOpenAI with a custom client config (base URL, HTTP client).
func NewOpenAIWithConfig(apiKey string, cfg openai.ClientConfig, source, target string) *OpenAI {
	return &OpenAI{
		apiKey: apiKey,
		client: openai.NewClientWithConfig(cfg),
		Model:  openai.GPT4oMini,
		source: source,
		target: target,
	}
}

func (t *OpenAI) Translate(ctx context.Context, word string) (string, error) {
	if t.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not found")
	}

	req := openai.ChatCompletionRequest{
		Model: t.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt(t.source, t.target, word),
			},
		},
		MaxTokens:   50,
		Temperature: 0.3,
	}

	resp, err := t.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoTranslation
	}
	out := clean(resp.Choices[0].Message.Content)
	if out == "" {
		return "", ErrNoTranslation
	}
	return out, nil
}
