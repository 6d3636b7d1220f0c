package ragnodes_test

import (
	"context"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/ragnodes"
	"github.com/nevindra/ragforge/tools"
	"github.com/nevindra/ragforge/tools/calculator"
)

func TestDetectToolPatternsMatchesCalculator(t *testing.T) {
	tools := ragnodes.DetectToolPatterns("what is 2 + 2?")
	if len(tools) == 0 || tools[0] != "calculator" {
		t.Fatalf("tools = %v, want calculator first", tools)
	}
}

func TestDetectToolPatternsNoMatch(t *testing.T) {
	tools := ragnodes.DetectToolPatterns("tell me about my notes on gardening")
	if len(tools) != 0 {
		t.Fatalf("tools = %v, want none", tools)
	}
}

func TestToolRouterSkipsWhenNoToolsRequired(t *testing.T) {
	registry := tools.NewRegistry()
	node := ragnodes.ToolRouter(registry)
	out, err := node(context.Background(), ragforge.AgentState{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tasks.ToolToRun != "" {
		t.Fatal("expected no tool selected")
	}
}

func TestToolRouterSelectsFirstMatchedTool(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register(calculator.New())
	node := ragnodes.ToolRouter(registry)

	state := ragforge.AgentState{Tasks: ragforge.Tasks{OriginalQuery: "2 + 2", RequiredTools: []string{"calculator"}}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tasks.ToolToRun != "calculator" {
		t.Fatalf("toolToRun = %q, want calculator", out.Tasks.ToolToRun)
	}
	if out.Tasks.ToolParameters["expression"] == "" {
		t.Fatal("expected a non-empty extracted expression")
	}
}

func TestToolRouterSkipsOnUnregisteredTool(t *testing.T) {
	registry := tools.NewRegistry()
	node := ragnodes.ToolRouter(registry)

	state := ragforge.AgentState{Tasks: ragforge.Tasks{RequiredTools: []string{"nonexistent"}}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tasks.ToolToRun != "" {
		t.Fatal("expected no tool selected for an unregistered tool name")
	}
}

func TestRouteAfterToolRouter(t *testing.T) {
	edge := ragnodes.RouteAfterToolRouter("run_tool", "generate_answer")
	if got := edge(ragforge.AgentState{Tasks: ragforge.Tasks{ToolToRun: "calculator"}}); got != "run_tool" {
		t.Fatalf("edge = %q, want run_tool", got)
	}
	if got := edge(ragforge.AgentState{}); got != "generate_answer" {
		t.Fatalf("edge = %q, want generate_answer", got)
	}
}
