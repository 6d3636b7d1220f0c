// Package openaicompat implements embed.Backend against any OpenAI-compatible
// embeddings endpoint.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/nevindra/ragforge/errs"
)

// Backend calls POST {baseURL}/embeddings with an OpenAI-shaped request.
type Backend struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	name    string
}

// New creates a Backend. baseURL is the API root (e.g.
// "https://api.openai.com/v1"); "/embeddings" is appended automatically.
func New(apiKey, model, baseURL string, opts ...Option) *Backend {
	b := &Backend{apiKey: apiKey, model: model, baseURL: baseURL, client: &http.Client{}, name: "openai"}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Option configures a Backend.
type Option func(*Backend)

// WithName overrides the backend name reported in errors and logs.
func WithName(name string) Option { return func(b *Backend) { b.name = name } }

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option { return func(b *Backend) { b.client = c } }

func (b *Backend) Name() string { return b.name }

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed calls the embeddings endpoint once for the given texts, returning
// one vector per input in the same order.
func (b *Backend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	payload, err := json.Marshal(embedRequest{Model: b.model, Input: texts})
	if err != nil {
		return nil, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("send request: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("read response: %v", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &errs.HTTP{
			Status:     resp.StatusCode,
			Body:       string(body),
			RetryAfter: errs.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}

	var wire embedResponse
	if err := json.Unmarshal(body, &wire); err != nil || len(wire.Data) == 0 {
		return nil, &errs.LLM{Provider: b.name, Message: fmt.Sprintf("unrecognized embeddings response shape: %s", truncate(body, 200))}
	}

	out := make([][]float32, len(wire.Data))
	for i := range wire.Data {
		out[i] = wire.Data[i].Embedding
	}
	return out, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n])
}
