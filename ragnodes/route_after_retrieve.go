package ragnodes

import (
	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"
)

// RouteAfterRetrieve is the conditional edge out of retrieve: into
// dynamic_widen whenever another widening attempt is still available and
// the result set is thin; else into tool routing when the query matched a
// tool pattern; else straight to answer generation.
func RouteAfterRetrieve(widenNode, toolRouterNode, answerNode string) graph.EdgeFunc {
	return func(state ragforge.AgentState) string {
		if len(state.Docs) < defaultWideningThreshold && state.Tasks.WideningAttempts < maxWideningAttempts {
			return widenNode
		}
		if len(state.Tasks.RequiredTools) > 0 {
			return toolRouterNode
		}
		return answerNode
	}
}
