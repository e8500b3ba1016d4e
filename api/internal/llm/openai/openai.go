package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"paper-pal/api/internal/llm"
	"paper-pal/api/internal/paper/types"
)

// Engine calls the Chat Completions API through the official SDK.
// The credential is supplied per call, so a client is built for each request.
type Engine struct {
	BaseURL  string
	Model    string
	Sampling llm.Sampling
}

func New(baseURL, model string, s llm.Sampling) *Engine {
	if s.MaxTokens <= 0 {
		s.MaxTokens = 3000
	}
	return &Engine{
		BaseURL:  strings.TrimSpace(baseURL),
		Model:    strings.TrimSpace(model),
		Sampling: s,
	}
}

func (e *Engine) Name() string     { return "openai" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Complete(ctx context.Context, p types.PromptSpec, credential string) (string, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(credential),
		option.WithMaxRetries(0),
	}
	if e.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(e.BaseURL))
	}
	client := openai.NewClient(opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(p.SystemInstructions),
			openai.UserMessage(p.UserContent),
		},
		MaxTokens:   openai.Int(int64(e.Sampling.MaxTokens)),
		Temperature: openai.Float(e.Sampling.Temperature),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			body := strings.TrimSpace(apiErr.RawJSON())
			if body == "" {
				body = apiErr.Message
			}
			return "", &llm.UpstreamError{Provider: e.Name(), StatusCode: apiErr.StatusCode, Body: body}
		}
		return "", &llm.TransportError{Provider: e.Name(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &llm.UpstreamError{Provider: e.Name(), StatusCode: 200, Body: "no choices in completion"}
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return text, nil
}
