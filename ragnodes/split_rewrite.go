// Package ragnodes implements the RAG orchestration graph's six nodes:
// split_rewrite, retrieve, dynamic_widen, tool_router, run_tool,
// generate_answer. A node's internal failure is recorded as local state and
// never propagated as a fatal graph error, with one exception:
// generate_answer after adapter exhaustion.
package ragnodes

import (
	"context"
	"strings"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/llm"
)

// rewriteThresholdChars below which a query is never considered "short" in
// isolation — combined with the other two heuristics below.
const rewriteThresholdChars = 12

// SplitRewrite pulls the last user message into tasks.originalQuery and,
// when the query looks short, ambiguous, or multi-part, asks the model for
// a rewritten version. Adapter failure always falls back to the original
// query — this node never fails the run.
func SplitRewrite(policy *llm.Policy) graph.Node {
	return func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		out := state.Clone()
		query := out.LastUserMessage()
		out.Tasks.OriginalQuery = query

		if !needsRewrite(query) {
			return out, nil
		}

		resp, err := policy.Chat(ctx, llm.Request{
			Messages: []llm.Message{
				{Role: "system", Content: "Rewrite the user's query into a single, self-contained search query. Respond with only the rewritten query, no commentary."},
				{Role: "user", Content: query},
			},
			Temperature: 0,
		})
		if err != nil {
			out.Metadata.RecordError("split_rewrite", err.Error(), time.Now().Unix())
			return out, nil
		}

		rewritten := strings.TrimSpace(resp.Content)
		if rewritten != "" && rewritten != llm.FallbackApology {
			out.Tasks.RewrittenQuery = rewritten
		} else if rewritten == llm.FallbackApology {
			out.Metadata.RecordError("split_rewrite", "adapter unavailable, falling back to original query", time.Now().Unix())
		}
		return out, nil
	}
}

// needsRewrite flags a query as a rewrite candidate when it is short,
// contains multiple sentence-like clauses (multi-part intent), or is a bare
// pronoun-led fragment lacking an explicit subject.
func needsRewrite(query string) bool {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return false
	}
	if len(trimmed) < rewriteThresholdChars {
		return true
	}
	clauseBreaks := strings.Count(trimmed, " and ") + strings.Count(trimmed, ";") + strings.Count(trimmed, " then ")
	if clauseBreaks > 0 {
		return true
	}
	lower := strings.ToLower(trimmed)
	for _, pronoun := range []string{"it", "that", "this", "they", "those"} {
		if strings.HasPrefix(lower, pronoun+" ") {
			return true
		}
	}
	return false
}
