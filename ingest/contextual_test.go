package ingest

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/llm"
)

// mockContextBackend returns a canned context prefix for each chunk.
type mockContextBackend struct {
	prefix string
	calls  atomic.Int32
}

func (m *mockContextBackend) Name() string { return "mock-context" }

func (m *mockContextBackend) Chat(_ context.Context, _ llm.Request) (llm.Response, error) {
	m.calls.Add(1)
	return llm.Response{Content: m.prefix}, nil
}

func (m *mockContextBackend) ChatStream(_ context.Context, _ llm.Request, _ chan<- llm.StreamEvent) (llm.Response, error) {
	return llm.Response{}, fmt.Errorf("not implemented")
}

// mockErrorBackend always returns an error.
type mockErrorBackend struct{}

func (m *mockErrorBackend) Name() string { return "mock-error" }
func (m *mockErrorBackend) Chat(_ context.Context, _ llm.Request) (llm.Response, error) {
	return llm.Response{}, fmt.Errorf("llm unavailable")
}
func (m *mockErrorBackend) ChatStream(_ context.Context, _ llm.Request, _ chan<- llm.StreamEvent) (llm.Response, error) {
	return llm.Response{}, fmt.Errorf("not implemented")
}

func TestEnrichChunksWithContext(t *testing.T) {
	chunks := []ragforge.Chunk{
		{Index: 0, Text: "Go is a programming language."},
		{Index: 1, Text: "Go supports concurrency."},
	}
	backend := &mockContextBackend{prefix: "This is about Go."}

	EnrichChunksWithContext(context.Background(), backend, chunks, "Full document about Go.", 3, nil)

	for i, c := range chunks {
		if !strings.HasPrefix(c.Text, "This is about Go.\n\n") {
			t.Errorf("chunks[%d].Text missing prefix: %q", i, c.Text)
		}
	}
	if backend.calls.Load() != 2 {
		t.Errorf("got %d LLM calls, want 2", backend.calls.Load())
	}
}

func TestEnrichChunksWithContextGracefulDegradation(t *testing.T) {
	original := "Original content."
	chunks := []ragforge.Chunk{{Index: 0, Text: original}}
	backend := &mockErrorBackend{}

	EnrichChunksWithContext(context.Background(), backend, chunks, "doc", 1, nil)

	if chunks[0].Text != original {
		t.Errorf("chunk text changed on error: got %q, want %q", chunks[0].Text, original)
	}
}

func TestEnrichChunksWithContextCancelledContext(t *testing.T) {
	chunks := []ragforge.Chunk{
		{Index: 0, Text: "A"},
		{Index: 1, Text: "B"},
		{Index: 2, Text: "C"},
	}
	backend := &mockContextBackend{prefix: "context"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EnrichChunksWithContext(ctx, backend, chunks, "doc", 1, nil)

	for i, c := range chunks {
		if strings.Contains(c.Text, "context") {
			t.Errorf("chunks[%d] was enriched despite cancelled context", i)
		}
	}
}

func TestEnrichChunksWithContextEmptyChunks(t *testing.T) {
	backend := &mockContextBackend{prefix: "ctx"}
	EnrichChunksWithContext(context.Background(), backend, nil, "doc", 3, nil)
	if backend.calls.Load() != 0 {
		t.Errorf("got %d calls for empty chunks, want 0", backend.calls.Load())
	}
}

func TestIngestorThenContextualEnrichment(t *testing.T) {
	ing := NewIngestor()
	backend := &mockContextBackend{prefix: "Added context."}

	r, err := ing.IngestText(context.Background(), "user-1", "note", "Hello world. This is a test.")
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Chunks) == 0 {
		t.Fatal("no chunks produced")
	}

	EnrichChunksWithContext(context.Background(), backend, r.Chunks, r.Item.Body, 2, nil)

	for i, c := range r.Chunks {
		if !strings.HasPrefix(c.Text, "Added context.\n\n") {
			t.Errorf("chunk[%d] missing contextual prefix: %q", i, c.Text)
		}
	}
}

func TestTruncateDocText(t *testing.T) {
	text := "hello world this is a test document"

	got := truncateDocText(text, 11)
	if got != "hello world" {
		t.Errorf("truncateDocText(11) = %q, want %q", got, "hello world")
	}

	got = truncateDocText(text, 15)
	if len(got) > 15 {
		t.Errorf("truncateDocText(15) = %q (len %d), exceeds limit", got, len(got))
	}

	got = truncateDocText(text, 1000)
	if got != text {
		t.Errorf("truncateDocText(1000) = %q, want original", got)
	}

	got = truncateDocText(text, 0)
	if got != text {
		t.Errorf("truncateDocText(0) = %q, want original", got)
	}
}
