package observer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/llm"
)

func testInstruments(t *testing.T) *Instruments {
	t.Helper()
	inst, err := newInstruments(nil)
	if err != nil {
		t.Fatalf("newInstruments: %v", err)
	}
	return inst
}

// --- llm.Backend mock ---

type mockLLM struct {
	name     string
	chatFn   func(ctx context.Context, req llm.Request) (llm.Response, error)
	streamFn func(ctx context.Context, req llm.Request, ch chan<- llm.StreamEvent) (llm.Response, error)
}

func (m *mockLLM) Name() string { return m.name }

func (m *mockLLM) Chat(ctx context.Context, req llm.Request) (llm.Response, error) {
	return m.chatFn(ctx, req)
}

func (m *mockLLM) ChatStream(ctx context.Context, req llm.Request, ch chan<- llm.StreamEvent) (llm.Response, error) {
	return m.streamFn(ctx, req, ch)
}

func TestObservedLLMName(t *testing.T) {
	inner := &mockLLM{name: "fake-llm"}
	o := WrapLLM(inner, "gpt-x", testInstruments(t))
	if o.Name() != "fake-llm" {
		t.Fatalf("Name() = %q, want %q", o.Name(), "fake-llm")
	}
}

func TestObservedLLMChat(t *testing.T) {
	inner := &mockLLM{
		name: "fake-llm",
		chatFn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
			return llm.Response{Content: "hi", Usage: llm.Usage{InputTokens: 10, OutputTokens: 4}}, nil
		},
	}
	o := WrapLLM(inner, "gpt-x", testInstruments(t))

	resp, err := o.Chat(context.Background(), llm.Request{Messages: []llm.Message{{Role: "user", Content: "hello"}}})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if resp.Content != "hi" {
		t.Fatalf("Content = %q, want %q", resp.Content, "hi")
	}
}

func TestObservedLLMChatError(t *testing.T) {
	wantErr := errors.New("backend down")
	inner := &mockLLM{
		name: "fake-llm",
		chatFn: func(ctx context.Context, req llm.Request) (llm.Response, error) {
			return llm.Response{}, wantErr
		},
	}
	o := WrapLLM(inner, "gpt-x", testInstruments(t))

	_, err := o.Chat(context.Background(), llm.Request{})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

func TestObservedLLMChatStream(t *testing.T) {
	inner := &mockLLM{
		name: "fake-llm",
		streamFn: func(ctx context.Context, req llm.Request, ch chan<- llm.StreamEvent) (llm.Response, error) {
			ch <- llm.StreamEvent{Type: llm.EventTextDelta, Content: "hello"}
			ch <- llm.StreamEvent{Type: llm.EventTextDelta, Content: " world"}
			close(ch)
			return llm.Response{Content: "hello world", Usage: llm.Usage{InputTokens: 5, OutputTokens: 2}}, nil
		},
	}
	o := WrapLLM(inner, "gpt-x", testInstruments(t))

	out := make(chan llm.StreamEvent, 4)
	resp, err := o.ChatStream(context.Background(), llm.Request{}, out)
	if err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	if resp.Content != "hello world" {
		t.Fatalf("Content = %q, want %q", resp.Content, "hello world")
	}

	var got []string
	for ev := range out {
		got = append(got, ev.Content)
	}
	if len(got) != 2 {
		t.Fatalf("got %d deltas, want 2", len(got))
	}
}

func TestObservedLLMChatStreamUnbuffered(t *testing.T) {
	inner := &mockLLM{
		name: "fake-llm",
		streamFn: func(ctx context.Context, req llm.Request, ch chan<- llm.StreamEvent) (llm.Response, error) {
			ch <- llm.StreamEvent{Type: llm.EventTextDelta, Content: "a"}
			close(ch)
			return llm.Response{Content: "a"}, nil
		},
	}
	o := WrapLLM(inner, "gpt-x", testInstruments(t))

	out := make(chan llm.StreamEvent)
	done := make(chan struct{})
	var got int
	go func() {
		for range out {
			got++
		}
		close(done)
	}()

	if _, err := o.ChatStream(context.Background(), llm.Request{}, out); err != nil {
		t.Fatalf("ChatStream: %v", err)
	}
	<-done
	if got != 1 {
		t.Fatalf("got %d deltas, want 1", got)
	}
}

func TestObservedLLMChatStreamContextCancel(t *testing.T) {
	inner := &mockLLM{
		name: "fake-llm",
		streamFn: func(ctx context.Context, req llm.Request, ch chan<- llm.StreamEvent) (llm.Response, error) {
			<-ctx.Done()
			close(ch)
			return llm.Response{}, ctx.Err()
		},
	}
	o := WrapLLM(inner, "gpt-x", testInstruments(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := make(chan llm.StreamEvent, 1)
	_, err := o.ChatStream(ctx, llm.Request{}, out)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// --- tools.Tool mock ---

type mockTool struct {
	name      string
	schema    json.RawMessage
	executeFn func(ctx context.Context, params json.RawMessage) (string, error)
	fallback  string
}

func (m *mockTool) Name() string            { return m.name }
func (m *mockTool) Schema() json.RawMessage { return m.schema }
func (m *mockTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	return m.executeFn(ctx, params)
}
func (m *mockTool) Fallback(params json.RawMessage, cause error) string { return m.fallback }

func TestObservedToolForwarding(t *testing.T) {
	inner := &mockTool{name: "calculator", schema: json.RawMessage(`{"required":["expr"]}`), fallback: "unavailable"}
	o := WrapTool(inner, testInstruments(t))

	if o.Name() != "calculator" {
		t.Fatalf("Name() = %q", o.Name())
	}
	if string(o.Schema()) != string(inner.schema) {
		t.Fatalf("Schema() mismatch")
	}
	if o.Fallback(nil, errors.New("boom")) != "unavailable" {
		t.Fatalf("Fallback() mismatch")
	}
}

func TestObservedToolExecute(t *testing.T) {
	inner := &mockTool{
		name: "calculator",
		executeFn: func(ctx context.Context, params json.RawMessage) (string, error) {
			return "4", nil
		},
	}
	o := WrapTool(inner, testInstruments(t))

	out, err := o.Execute(context.Background(), json.RawMessage(`{"expr":"2+2"}`))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "4" {
		t.Fatalf("out = %q, want %q", out, "4")
	}
}

func TestObservedToolExecuteError(t *testing.T) {
	wantErr := errors.New("division by zero")
	inner := &mockTool{
		name: "calculator",
		executeFn: func(ctx context.Context, params json.RawMessage) (string, error) {
			return "", wantErr
		},
	}
	o := WrapTool(inner, testInstruments(t))

	_, err := o.Execute(context.Background(), json.RawMessage(`{}`))
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

// --- embed.Backend mock ---

type mockEmbed struct {
	name    string
	embedFn func(ctx context.Context, texts []string) ([][]float32, error)
}

func (m *mockEmbed) Name() string { return m.name }
func (m *mockEmbed) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return m.embedFn(ctx, texts)
}

func TestObservedEmbeddingName(t *testing.T) {
	inner := &mockEmbed{name: "fake-embedder"}
	o := WrapEmbedding(inner, "embed-3", testInstruments(t))
	if o.Name() != "fake-embedder" {
		t.Fatalf("Name() = %q", o.Name())
	}
}

func TestObservedEmbeddingEmbed(t *testing.T) {
	inner := &mockEmbed{
		name: "fake-embedder",
		embedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
			out := make([][]float32, len(texts))
			for i := range texts {
				out[i] = []float32{0.1, 0.2}
			}
			return out, nil
		},
	}
	o := WrapEmbedding(inner, "embed-3", testInstruments(t))

	vecs, err := o.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vecs))
	}
}

func TestObservedEmbeddingEmbedError(t *testing.T) {
	wantErr := errors.New("rate limited")
	inner := &mockEmbed{
		name: "fake-embedder",
		embedFn: func(ctx context.Context, texts []string) ([][]float32, error) {
			return nil, wantErr
		},
	}
	o := WrapEmbedding(inner, "embed-3", testInstruments(t))

	_, err := o.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

// --- ObservedGraph ---

func TestObservedGraphRun(t *testing.T) {
	g := graph.New("start")
	g.AddNode("start", func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		return state, nil
	})
	g.AddEdge("start", graph.End)

	o := WrapGraph(g, testInstruments(t))

	state, err := o.Run(context.Background(), "run-1", ragforge.AgentState{RunID: "run-1"}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if state.RunID != "run-1" {
		t.Fatalf("RunID = %q, want %q", state.RunID, "run-1")
	}
}

func TestObservedGraphRunError(t *testing.T) {
	wantErr := errors.New("node blew up")
	g := graph.New("start")
	g.AddNode("start", func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		return state, wantErr
	})
	g.AddEdge("start", graph.End)

	o := WrapGraph(g, testInstruments(t))

	_, err := o.Run(context.Background(), "run-2", ragforge.AgentState{RunID: "run-2"}, nil)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}

// --- tracer ---

func TestNewTracerReturnsTracer(t *testing.T) {
	tr := NewTracer()
	if tr == nil {
		t.Fatal("NewTracer() returned nil")
	}
	ctx, span := tr.Start(context.Background(), "test.span", ragforge.StringAttr("k", "v"))
	if ctx == nil || span == nil {
		t.Fatal("Start() returned nil ctx or span")
	}
	span.End()
}

func TestNewTracerErrorSpan(t *testing.T) {
	tr := NewTracer()
	_, span := tr.Start(context.Background(), "test.error_span")
	span.Error(errors.New("boom"))
	span.Event("retrying", ragforge.IntAttr("attempt", 1))
	span.End()
}
