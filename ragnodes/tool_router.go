package ragnodes

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/tools"
)

// toolPattern maps a keyword/regex trigger to the tool it selects. This is
// the "tool pattern table" the routing decision is documented against: a
// small ordered list of regexes, first match wins, rather than a separate
// classifier call — keeping tool selection a zero-retry, never-fatal,
// purely local decision per the failure-semantics table.
type toolPattern struct {
	tool  string
	regex *regexp.Regexp
}

var toolPatterns = []toolPattern{
	{tool: "calculator", regex: regexp.MustCompile(`(?i)\b(calculate|compute|what(?:'s| is)\s+\d|[-+*/()]\s*\d|\d\s*[-+*/]\s*\d)\b`)},
	{tool: "calendar", regex: regexp.MustCompile(`(?i)\b(what day|day of the week|days? (?:from|before|after|until)|schedule|calendar)\b`)},
	{tool: "weather", regex: regexp.MustCompile(`(?i)\b(weather|forecast|temperature|how (?:hot|cold)|rain(?:ing|y)?)\b`)},
	{tool: "web_search", regex: regexp.MustCompile(`(?i)\b(search (?:the web|online|for)|latest news|current events|look up online)\b`)},
}

// DetectToolPatterns scans query against the pattern table, in order,
// returning every tool whose pattern matched. RouteAfterRetrieve treats a
// non-empty result as "go to tool"; tool_router then narrows it to exactly
// one.
func DetectToolPatterns(query string) []string {
	var matched []string
	for _, p := range toolPatterns {
		if p.regex.MatchString(query) {
			matched = append(matched, p.tool)
		}
	}
	return matched
}

// ToolRouter narrows tasks.requiredTools to exactly one tool and derives its
// parameters from the query. On ambiguity (no tools matched, or parameter
// extraction fails) it skips tool execution entirely — this node never
// fails the run and never retries.
func ToolRouter(registry *tools.Registry) graph.Node {
	return func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		out := state.Clone()
		if len(out.Tasks.RequiredTools) == 0 {
			return out, nil
		}

		chosen := out.Tasks.RequiredTools[0]
		if _, ok := registry.Get(chosen); !ok {
			out.Tasks.ToolToRun = ""
			return out, nil
		}

		params := extractParameters(chosen, out.Tasks.Query())
		raw, err := json.Marshal(params)
		if err != nil {
			out.Tasks.ToolToRun = ""
			return out, nil
		}
		if err := registry.ValidateInput(chosen, raw); err != nil {
			out.Tasks.ToolToRun = ""
			return out, nil
		}

		out.Tasks.ToolToRun = chosen
		out.Tasks.ToolParameters = params
		return out, nil
	}
}

// RouteAfterToolRouter sends the run to run_tool when a tool was
// successfully selected, otherwise straight to answer generation.
func RouteAfterToolRouter(runToolNode, answerNode string) graph.EdgeFunc {
	return func(state ragforge.AgentState) string {
		if state.Tasks.ToolToRun == "" {
			return answerNode
		}
		return runToolNode
	}
}

// extractParameters is a simple per-tool parameter extractor: a handful of
// regexes over the raw query, with a documented default when extraction
// can't pin down a field precisely.
func extractParameters(tool, query string) map[string]any {
	switch tool {
	case "calculator":
		expr := regexp.MustCompile(`[-+*/0-9().\s]{3,}`).FindString(query)
		return map[string]any{"expression": strings.TrimSpace(expr)}
	case "weather":
		// No geocoding in the minimum tool set: default to a fixed
		// reference location when none is named in the query.
		return map[string]any{"latitude": 0.0, "longitude": 0.0}
	case "calendar":
		return map[string]any{"date": query}
	case "web_search":
		return map[string]any{"query": query}
	default:
		return map[string]any{}
	}
}
