package ragnodes_test

import (
	"context"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/contentstore"
	"github.com/nevindra/ragforge/embed"
	"github.com/nevindra/ragforge/ragnodes"
	"github.com/nevindra/ragforge/vectorstore"
)

type stubEmbedBackend struct{ dims int }

func (s *stubEmbedBackend) Name() string { return "stub" }

func (s *stubEmbedBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, s.dims)
		v[0] = 1
		out[i] = v
	}
	return out, nil
}

func newRetrieveDeps(t *testing.T) (*embed.Embedder, *vectorstore.Store, contentstore.Store) {
	t.Helper()
	embedder := embed.New(&stubEmbedBackend{dims: 4}, embed.DefaultConfig(), nil)
	backend := vectorstore.NewMemoryBackend()
	store := vectorstore.New(backend, vectorstore.DefaultConfig(), nil)
	content := contentstore.NewMemoryStore()
	content.Put(ragforge.ContentItem{
		ContentEvent: ragforge.ContentEvent{ID: "c1", UserID: "u1"},
		Body:         "Delaware is a state in the northeastern United States.",
	})

	ctx := context.Background()
	store.Upsert(ctx, []ragforge.VectorRecord{
		{ID: "content:c1:0", Values: []float32{1, 0, 0, 0}, Metadata: ragforge.VectorMeta{UserID: "u1", ContentID: "c1"}},
	})
	return embedder, store, content
}

func TestRetrieveReturnsMatchingDocs(t *testing.T) {
	embedder, store, content := newRetrieveDeps(t)
	node := ragnodes.Retrieve(embedder, store, content)

	state := stateWithQuery("What do you know about Delaware?")
	state.Tasks.OriginalQuery = state.LastUserMessage()

	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Docs) != 1 {
		t.Fatalf("docs = %d, want 1", len(out.Docs))
	}
	if out.Docs[0].Title == "" {
		t.Fatal("expected a synthesized title")
	}
}

func TestRetrieveEmptyQueryReturnsNoDocs(t *testing.T) {
	embedder, store, content := newRetrieveDeps(t)
	node := ragnodes.Retrieve(embedder, store, content)

	out, err := node(context.Background(), ragforge.AgentState{Options: ragforge.DefaultOptions()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Docs) != 0 {
		t.Fatal("expected no docs for empty query")
	}
}

func TestRetrieveDetectsToolPattern(t *testing.T) {
	embedder, store, content := newRetrieveDeps(t)
	node := ragnodes.Retrieve(embedder, store, content)

	state := stateWithQuery("what's the weather like today")
	state.Tasks.OriginalQuery = state.LastUserMessage()

	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	found := false
	for _, tool := range out.Tasks.RequiredTools {
		if tool == "weather" {
			found = true
		}
	}
	if !found {
		t.Fatalf("requiredTools = %v, want weather", out.Tasks.RequiredTools)
	}
}
