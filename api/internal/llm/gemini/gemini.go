package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"paper-pal/api/internal/llm"
	"paper-pal/api/internal/paper/types"
)

type Engine struct {
	Model    string
	Sampling llm.Sampling
}

func New(model string, s llm.Sampling) *Engine {
	if s.MaxTokens <= 0 {
		s.MaxTokens = 3000
	}
	return &Engine{Model: strings.TrimSpace(model), Sampling: s}
}

func (e *Engine) Name() string     { return "gemini" }
func (e *Engine) GetModel() string { return e.Model }

func (e *Engine) Complete(ctx context.Context, p types.PromptSpec, credential string) (string, error) {
	cl, err := genai.NewClient(ctx, option.WithAPIKey(credential))
	if err != nil {
		return "", &llm.TransportError{Provider: e.Name(), Err: err}
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return "", fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:     ptrFloat32(float32(e.Sampling.Temperature)),
		MaxOutputTokens: ptrInt32(int32(e.Sampling.MaxTokens)),
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(p.SystemInstructions)},
	}

	resp, err := m.GenerateContent(ctx, genai.Text(p.UserContent))
	if err != nil {
		return "", e.wrapErr(err)
	}
	txt := firstText(resp)
	if strings.TrimSpace(txt) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return txt, nil
}

// wrapErr sorts SDK errors into upstream (the service answered) and transport.
func (e *Engine) wrapErr(err error) error {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		body := gErr.Body
		if body == "" {
			body = gErr.Message
		}
		return &llm.UpstreamError{Provider: e.Name(), StatusCode: gErr.Code, Body: strings.TrimSpace(body)}
	}
	var aErr *apierror.APIError
	if errors.As(err, &aErr) {
		code := aErr.HTTPCode()
		if code < 0 {
			code = 0
		}
		return &llm.UpstreamError{Provider: e.Name(), StatusCode: code, Body: aErr.Error()}
	}
	return &llm.TransportError{Provider: e.Name(), Err: err}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		var b strings.Builder
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }
func ptrInt32(v int32) *int32       { return &v }
