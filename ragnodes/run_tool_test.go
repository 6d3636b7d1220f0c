package ragnodes_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/ragnodes"
	"github.com/nevindra/ragforge/tools"
)

type stubRunTool struct {
	name       string
	failTimes  int
	calls      int
	output     string
	fallback   string
}

func (s *stubRunTool) Name() string            { return s.name }
func (s *stubRunTool) Schema() json.RawMessage { return json.RawMessage(`{}`) }

func (s *stubRunTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	s.calls++
	if s.calls <= s.failTimes {
		return "", errors.New("transient failure")
	}
	return s.output, nil
}

func (s *stubRunTool) Fallback(params json.RawMessage, cause error) string {
	return s.fallback
}

func TestRunToolSkipsWhenNoToolSelected(t *testing.T) {
	registry := tools.NewRegistry()
	node := ragnodes.RunTool(registry)
	out, err := node(context.Background(), ragforge.AgentState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Tasks.ToolResults) != 0 {
		t.Fatal("expected no tool results")
	}
}

func TestRunToolSucceedsOnFirstAttempt(t *testing.T) {
	tool := &stubRunTool{name: "calculator", output: "4"}
	registry := tools.NewRegistry()
	registry.Register(tool)
	node := ragnodes.RunTool(registry)

	state := ragforge.AgentState{Tasks: ragforge.Tasks{ToolToRun: "calculator", ToolParameters: map[string]any{"expression": "2+2"}}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Tasks.ToolResults) != 1 || out.Tasks.ToolResults[0].Output == nil || *out.Tasks.ToolResults[0].Output != "4" {
		t.Fatalf("unexpected tool results: %+v", out.Tasks.ToolResults)
	}
	if out.Tasks.ToolResults[0].Error != "" {
		t.Fatal("expected no error on success")
	}
}

func TestRunToolRetriesThenSucceeds(t *testing.T) {
	tool := &stubRunTool{name: "calculator", output: "4", failTimes: 1}
	registry := tools.NewRegistry()
	registry.Register(tool)
	node := ragnodes.RunTool(registry)

	state := ragforge.AgentState{Tasks: ragforge.Tasks{ToolToRun: "calculator"}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tool.calls != 2 {
		t.Fatalf("calls = %d, want 2 (1 failure + 1 retry)", tool.calls)
	}
	if out.Tasks.ToolResults[0].Error != "" {
		t.Fatal("expected no error recorded once a retry succeeds")
	}
}

func TestRunToolFallsBackAfterExhaustingRetries(t *testing.T) {
	tool := &stubRunTool{name: "calculator", failTimes: 100, fallback: "unavailable"}
	registry := tools.NewRegistry()
	registry.Register(tool)
	node := ragnodes.RunTool(registry)

	state := ragforge.AgentState{Tasks: ragforge.Tasks{ToolToRun: "calculator"}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("node must never fail: %v", err)
	}
	if len(out.Tasks.ToolResults) != 1 {
		t.Fatalf("expected exactly one appended result, got %d", len(out.Tasks.ToolResults))
	}
	result := out.Tasks.ToolResults[0]
	if result.Error == "" {
		t.Fatal("expected error to be recorded")
	}
	if result.Output == nil || *result.Output != "unavailable" {
		t.Fatalf("expected fallback output, got %+v", result.Output)
	}
}

func TestRunToolUnknownToolRecordsError(t *testing.T) {
	registry := tools.NewRegistry()
	node := ragnodes.RunTool(registry)

	state := ragforge.AgentState{Tasks: ragforge.Tasks{ToolToRun: "nonexistent"}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Tasks.ToolResults) != 1 || out.Tasks.ToolResults[0].Error == "" {
		t.Fatal("expected an error result for an unknown tool")
	}
}
