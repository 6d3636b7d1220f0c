package ragnodes_test

import (
	"context"
	"testing"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/llm"
	"github.com/nevindra/ragforge/prompt"
	"github.com/nevindra/ragforge/ragnodes"
	"github.com/nevindra/ragforge/tools"
	"github.com/nevindra/ragforge/tools/calculator"
)

func TestBuildRunsEndToEndWithoutTools(t *testing.T) {
	embedder, store, content := newRetrieveDeps(t)
	registry := tools.NewRegistry()
	registry.Register(calculator.New())

	deps := ragnodes.Deps{
		Policy:    llm.New(&stubLLMBackend{response: "Delaware is a U.S. state."}),
		Embedder:  embedder,
		Vectors:   store,
		Content:   content,
		Tools:     registry,
		Guardrail: prompt.NewGuardrail(),
		PromptCfg: prompt.DefaultConfig(),
	}
	g := ragnodes.Build(deps)

	state := ragforge.AgentState{
		RunID:   "run-1",
		UserID:  "u1",
		Options: ragforge.DefaultOptions(),
		Messages: []ragforge.ConversationMessage{
			{Role: ragforge.RoleUser, Content: "What do you know about Delaware?", Timestamp: 1},
		},
	}

	events := make(chan ragforge.Event, 64)
	out, err := g.Run(context.Background(), "run-1", state, events)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	last := out.Messages[len(out.Messages)-1]
	if last.Role != ragforge.RoleAssistant || last.Content == "" {
		t.Fatalf("expected an assistant answer, got %+v", last)
	}
}

func TestBuildRunsEndToEndWithToolRoute(t *testing.T) {
	embedder, store, content := newRetrieveDeps(t)
	registry := tools.NewRegistry()
	registry.Register(calculator.New())

	deps := ragnodes.Deps{
		Policy:    llm.New(&stubLLMBackend{response: "That's 4."}),
		Embedder:  embedder,
		Vectors:   store,
		Content:   content,
		Tools:     registry,
		Guardrail: prompt.NewGuardrail(),
		PromptCfg: prompt.DefaultConfig(),
	}
	g := ragnodes.Build(deps)

	state := ragforge.AgentState{
		RunID:   "run-2",
		UserID:  "u1",
		Options: ragforge.DefaultOptions(),
		Messages: []ragforge.ConversationMessage{
			{Role: ragforge.RoleUser, Content: "what is 2 + 2?", Timestamp: 1},
		},
	}

	out, err := g.Run(context.Background(), "run-2", state, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Tasks.ToolResults) != 1 {
		t.Fatalf("expected one tool result, got %d", len(out.Tasks.ToolResults))
	}
}
