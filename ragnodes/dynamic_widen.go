package ragnodes

import (
	"context"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"
)

// maxWideningAttempts mirrors graph.MaxWideningAttempts — the retrieve↔widen
// cycle never loops more than this many times.
const maxWideningAttempts = graph.MaxWideningAttempts

// DynamicWiden decides whether retrieve found too few documents and, if so,
// flags another reentry into retrieve with a wider topK. Exhausting the
// attempt budget proceeds straight to answer generation with whatever was
// found — this node never fails the run.
func DynamicWiden() graph.Node {
	return func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		out := state.Clone()
		if len(out.Docs) >= defaultWideningThreshold || out.Tasks.WideningAttempts >= maxWideningAttempts {
			out.Tasks.NeedsWidening = false
			return out, nil
		}
		out.Tasks.NeedsWidening = true
		out.Tasks.WideningAttempts++
		return out, nil
	}
}

// RouteAfterWiden is the conditional edge out of dynamic_widen: back to
// retrieve while another widening attempt is pending. Once the attempt
// budget is exhausted, the run proceeds straight to answer generation with
// whatever was found — tool routing is not reattempted here.
func RouteAfterWiden(retrieveNode, answerNode string) graph.EdgeFunc {
	return func(state ragforge.AgentState) string {
		if state.Tasks.NeedsWidening {
			return retrieveNode
		}
		return answerNode
	}
}
