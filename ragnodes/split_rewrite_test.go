package ragnodes_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/llm"
	"github.com/nevindra/ragforge/ragnodes"
)

type stubLLMBackend struct {
	response string
	err      error
}

func (b *stubLLMBackend) Name() string { return "stub" }

func (b *stubLLMBackend) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	if b.err != nil {
		return llm.Response{}, b.err
	}
	return llm.Response{Content: b.response}, nil
}

func (b *stubLLMBackend) ChatStream(ctx context.Context, req llm.Request, ch chan<- llm.StreamEvent) (llm.Response, error) {
	defer close(ch)
	if b.err != nil {
		return llm.Response{}, b.err
	}
	ch <- llm.StreamEvent{Type: llm.EventTextDelta, Content: b.response}
	return llm.Response{Content: b.response}, nil
}

func stateWithQuery(query string) ragforge.AgentState {
	return ragforge.AgentState{
		RunID:   "r1",
		UserID:  "u1",
		Options: ragforge.DefaultOptions(),
		Messages: []ragforge.ConversationMessage{
			{Role: ragforge.RoleUser, Content: query, Timestamp: 1},
		},
	}
}

func TestSplitRewriteSkipsLongUnambiguousQuery(t *testing.T) {
	node := ragnodes.SplitRewrite(llm.New(&stubLLMBackend{response: "should not be used"}))
	out, err := node(context.Background(), stateWithQuery("What did I write about my trip to Kyoto last year in my travel journal?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tasks.RewrittenQuery != "" {
		t.Fatalf("expected no rewrite, got %q", out.Tasks.RewrittenQuery)
	}
	if out.Tasks.OriginalQuery == "" {
		t.Fatal("expected originalQuery to be set")
	}
}

func TestSplitRewriteRewritesShortQuery(t *testing.T) {
	node := ragnodes.SplitRewrite(llm.New(&stubLLMBackend{response: "rewritten query"}))
	out, err := node(context.Background(), stateWithQuery("Delaware?"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tasks.RewrittenQuery != "rewritten query" {
		t.Fatalf("rewrittenQuery = %q, want rewritten query", out.Tasks.RewrittenQuery)
	}
}

func TestSplitRewriteFallsBackToOriginalOnAdapterFailure(t *testing.T) {
	node := ragnodes.SplitRewrite(llm.New(&stubLLMBackend{err: errors.New("connection refused")}))
	out, err := node(context.Background(), stateWithQuery("it?"))
	if err != nil {
		t.Fatalf("node must never fail: %v", err)
	}
	if out.Tasks.RewrittenQuery != "" {
		t.Fatal("expected no rewrite on adapter failure")
	}
	if out.Tasks.Query() != out.Tasks.OriginalQuery {
		t.Fatal("expected Query() to fall back to originalQuery")
	}
}
