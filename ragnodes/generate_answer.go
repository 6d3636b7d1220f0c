package ragnodes

import (
	"context"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/llm"
	"github.com/nevindra/ragforge/prompt"
)

// conversationTailLimit bounds how many prior turns are forwarded to the
// model alongside the assembled system prompt.
const conversationTailLimit = 20

// GenerateAnswer assembles the final prompt (system + context + tool
// results + conversation tail) and streams the model's response as
// incremental answer SSE events, followed by the final answer event with
// citation sources. Unlike every other node, a mid-stream adapter failure
// here propagates as a graph-level error — partial output can't be silently
// swapped for a static apology once tokens have already reached the client.
func GenerateAnswer(policy *llm.Policy, guardrail *prompt.Guardrail, cfg prompt.Config) graph.Node {
	return func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		out := state.Clone()

		query := out.LastUserMessage()
		if guardrail != nil {
			if err := guardrail.Check(query); err != nil {
				return out, err
			}
		}

		systemPrompt := prompt.Build(out.Docs, out.Tasks.ToolResults, out.Options, cfg)
		messages := []llm.Message{{Role: "system", Content: systemPrompt}}
		messages = append(messages, conversationTail(out.Messages)...)

		events := graph.EventsFromContext(ctx)
		ch := make(chan llm.StreamEvent, 16)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range ch {
				if ev.Type == llm.EventTextDelta && events != nil {
					select {
					case events <- ragforge.AnswerTokenEvent(ev.Content):
					default:
					}
				}
			}
		}()

		resp, err := policy.ChatStream(ctx, llm.Request{
			Messages:    messages,
			Temperature: out.Options.Temperature,
			MaxTokens:   out.Options.MaxTokens,
		}, ch)
		<-done

		if err != nil {
			return out, err
		}

		sources := citationSources(out.Docs)
		if events != nil {
			select {
			case events <- ragforge.AnswerFinalEvent(resp.Content, sources):
			default:
			}
		}

		out.Messages = append(out.Messages, ragforge.ConversationMessage{
			Role:      ragforge.RoleAssistant,
			Content:   resp.Content,
			Timestamp: time.Now().Unix(),
		})
		return out, nil
	}
}

func conversationTail(messages []ragforge.ConversationMessage) []llm.Message {
	start := 0
	if len(messages) > conversationTailLimit {
		start = len(messages) - conversationTailLimit
	}
	out := make([]llm.Message, 0, len(messages)-start)
	for _, m := range messages[start:] {
		out = append(out, llm.Message{Role: string(m.Role), Content: m.Content})
	}
	return out
}

func citationSources(docs []ragforge.Doc) []ragforge.Source {
	sources := make([]ragforge.Source, 0, len(docs))
	for i, d := range docs {
		sources = append(sources, ragforge.Source{Index: i + 1, ID: d.ID, Title: d.Title})
	}
	return sources
}
