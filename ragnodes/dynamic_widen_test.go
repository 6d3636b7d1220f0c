package ragnodes_test

import (
	"context"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/ragnodes"
)

func TestDynamicWidenFlagsReentryWhenThin(t *testing.T) {
	node := ragnodes.DynamicWiden()
	state := ragforge.AgentState{Docs: []ragforge.Doc{{ID: "d1"}}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Tasks.NeedsWidening {
		t.Fatal("expected needsWidening=true for a thin result set")
	}
	if out.Tasks.WideningAttempts != 1 {
		t.Fatalf("wideningAttempts = %d, want 1", out.Tasks.WideningAttempts)
	}
}

func TestDynamicWidenStopsAtAttemptCap(t *testing.T) {
	node := ragnodes.DynamicWiden()
	state := ragforge.AgentState{Tasks: ragforge.Tasks{WideningAttempts: 2}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tasks.NeedsWidening {
		t.Fatal("expected needsWidening=false once attempts are exhausted")
	}
	if out.Tasks.WideningAttempts != 2 {
		t.Fatalf("wideningAttempts should not increase past the cap, got %d", out.Tasks.WideningAttempts)
	}
}

func TestDynamicWidenProceedsWhenDocsSufficient(t *testing.T) {
	node := ragnodes.DynamicWiden()
	state := ragforge.AgentState{Docs: []ragforge.Doc{{ID: "d1"}, {ID: "d2"}, {ID: "d3"}}}
	out, err := node(context.Background(), state)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Tasks.NeedsWidening {
		t.Fatal("expected needsWidening=false once enough docs were found")
	}
}

func TestRouteAfterWidenLoopsBackWhileWidening(t *testing.T) {
	edge := ragnodes.RouteAfterWiden("retrieve", "generate_answer")
	state := ragforge.AgentState{Tasks: ragforge.Tasks{NeedsWidening: true}}
	if got := edge(state); got != "retrieve" {
		t.Fatalf("edge = %q, want retrieve", got)
	}
}

func TestRouteAfterWidenGoesToAnswerOnExhaustion(t *testing.T) {
	edge := ragnodes.RouteAfterWiden("retrieve", "generate_answer")
	state := ragforge.AgentState{Tasks: ragforge.Tasks{NeedsWidening: false}}
	if got := edge(state); got != "generate_answer" {
		t.Fatalf("edge = %q, want generate_answer", got)
	}
}
