// Package openaicompat implements llm.Backend against any OpenAI-compatible
// chat completions API: body building, SSE streaming, response parsing.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nevindra/ragforge/errs"
	"github.com/nevindra/ragforge/llm"
)

// Backend implements llm.Backend against the OpenAI chat completions wire
// format. Works with OpenAI, OpenRouter, Groq, Together, vLLM, Ollama, and
// any other provider exposing the same API shape.
type Backend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	name    string
}

// New creates a Backend. baseURL is the API root (e.g.
// "https://api.openai.com/v1"); "/chat/completions" is appended automatically.
func New(apiKey, model, baseURL string, opts ...Option) *Backend {
	b := &Backend{apiKey: apiKey, model: model, baseURL: baseURL, client: &http.Client{}, name: "openai"}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Option configures a Backend.
type Option func(*Backend)

// WithName overrides the backend name reported in logs and metrics.
func WithName(name string) Option { return func(b *Backend) { b.name = name } }

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option { return func(b *Backend) { b.client = c } }

func (b *Backend) Name() string { return b.name }

// Chat sends a non-streaming chat completions request.
func (b *Backend) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	body := buildBody(req, b.model, false)
	resp, err := b.send(ctx, body)
	if err != nil {
		return llm.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return llm.Response{}, b.httpErr(resp)
	}

	var wire chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return llm.Response{}, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("decode response: %v", err)}
	}
	return parseResponse(wire), nil
}

// ChatStream streams token deltas into ch, then returns the accumulated
// response. ch is closed by streamSSE before return.
func (b *Backend) ChatStream(ctx context.Context, req llm.Request, ch chan<- llm.StreamEvent) (llm.Response, error) {
	body := buildBody(req, b.model, true)
	resp, err := b.send(ctx, body)
	if err != nil {
		close(ch)
		return llm.Response{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		close(ch)
		return llm.Response{}, b.httpErr(resp)
	}
	return streamSSE(ctx, resp.Body, ch)
}

func (b *Backend) send(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("marshal request: %v", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("create request: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}
	return b.client.Do(httpReq)
}

func (b *Backend) httpErr(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &errs.HTTP{
		Status:     resp.StatusCode,
		Body:       string(body),
		RetryAfter: errs.ParseRetryAfter(resp.Header.Get("Retry-After")),
	}
}

var _ llm.Backend = (*Backend)(nil)
