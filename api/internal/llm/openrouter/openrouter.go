package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"paper-pal/api/internal/llm"
	"paper-pal/api/internal/paper/types"
	"paper-pal/api/internal/util"
)

const DefaultBaseURL = "https://openrouter.ai/api/v1/chat/completions"

// Options configures the engine. Zero values fall back to defaults.
type Options struct {
	BaseURL  string
	Model    string
	Sampling llm.Sampling
	Referer  string
	Title    string
	Timeout  time.Duration
}

// Engine talks to an OpenAI-compatible chat-completions endpoint with the
// caller's credential as bearer token.
type Engine struct {
	opts  Options
	httpc *http.Client
	log   *logrus.Logger
}

func New(opts Options, log *logrus.Logger) *Engine {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Sampling.MaxTokens <= 0 {
		opts.Sampling.MaxTokens = 3000
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		// free models can take a long time before the first byte
		ResponseHeaderTimeout: 120 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
	}
	if log == nil {
		log = logrus.New()
		log.SetOutput(io.Discard)
	}
	return &Engine{
		opts: opts,
		// Timeout=0 unless configured: the request context carries the deadline.
		httpc: &http.Client{Timeout: opts.Timeout, Transport: tr},
		log:   log,
	}
}

// WithHTTPClient overrides the internal HTTP client (e.g., for tests or tracing).
func (e *Engine) WithHTTPClient(c *http.Client) *Engine {
	if c != nil {
		e.httpc = c
	}
	return e
}

func (e *Engine) Name() string     { return "openrouter" }
func (e *Engine) GetModel() string { return e.opts.Model }

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
	Messages    []message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (e *Engine) Complete(ctx context.Context, p types.PromptSpec, credential string) (string, error) {
	body := chatRequest{
		Model:       e.opts.Model,
		Temperature: e.opts.Sampling.Temperature,
		MaxTokens:   e.opts.Sampling.MaxTokens,
		Messages: []message{
			{Role: "system", Content: p.SystemInstructions},
			{Role: "user", Content: p.UserContent},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("openrouter: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.opts.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("openrouter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+credential)
	if e.opts.Referer != "" {
		req.Header.Set("HTTP-Referer", e.opts.Referer)
	}
	if e.opts.Title != "" {
		req.Header.Set("X-Title", e.opts.Title)
	}

	started := time.Now()
	resp, err := e.httpc.Do(req)
	if err != nil {
		return "", &llm.TransportError{Provider: e.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &llm.TransportError{Provider: e.Name(), Err: fmt.Errorf("read body: %w", err)}
	}
	e.log.WithFields(logrus.Fields{
		"engine":  e.Name(),
		"model":   e.opts.Model,
		"status":  resp.StatusCode,
		"elapsed": time.Since(started).String(),
	}).Debug("completion response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &llm.UpstreamError{Provider: e.Name(), StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &llm.UpstreamError{Provider: e.Name(), StatusCode: resp.StatusCode, Body: util.Truncate(string(raw), 1024)}
	}
	if len(out.Choices) == 0 {
		return "", &llm.UpstreamError{Provider: e.Name(), StatusCode: resp.StatusCode, Body: util.Truncate(string(raw), 1024)}
	}
	text := out.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", llm.ErrEmptyCompletion
	}
	return text, nil
}
