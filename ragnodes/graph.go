package ragnodes

import (
	"github.com/nevindra/ragforge/contentstore"
	"github.com/nevindra/ragforge/embed"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/llm"
	"github.com/nevindra/ragforge/prompt"
	"github.com/nevindra/ragforge/tools"
	"github.com/nevindra/ragforge/vectorstore"
)

// Node names, exported so cmd/server and tests can refer to them without
// re-declaring string literals.
const (
	NodeSplitRewrite   = "split_rewrite"
	NodeRetrieve       = "retrieve"
	NodeDynamicWiden   = "dynamic_widen"
	NodeToolRouter     = "tool_router"
	NodeRunTool        = "run_tool"
	NodeGenerateAnswer = "generate_answer"
)

// Deps bundles everything the graph's nodes need, one place for cmd/server
// to construct and pass down.
type Deps struct {
	Policy      *llm.Policy
	Embedder    *embed.Embedder
	Vectors     *vectorstore.Store
	Content     contentstore.Store
	Tools       *tools.Registry
	Guardrail   *prompt.Guardrail
	PromptCfg   prompt.Config
}

// Build assembles the six-node RAG orchestration graph:
// split_rewrite → retrieve; retrieve → dynamic_widen, tool_router or
// generate_answer; dynamic_widen → retrieve or generate_answer; tool_router →
// run_tool or generate_answer; run_tool → generate_answer → END.
func Build(deps Deps, opts ...graph.Option) *graph.Graph {
	g := graph.New(NodeSplitRewrite, opts...)

	g.AddNode(NodeSplitRewrite, SplitRewrite(deps.Policy))
	g.AddNode(NodeRetrieve, Retrieve(deps.Embedder, deps.Vectors, deps.Content))
	g.AddNode(NodeDynamicWiden, DynamicWiden())
	g.AddNode(NodeToolRouter, ToolRouter(deps.Tools))
	g.AddNode(NodeRunTool, RunTool(deps.Tools))
	g.AddNode(NodeGenerateAnswer, GenerateAnswer(deps.Policy, deps.Guardrail, deps.PromptCfg))

	g.AddEdge(NodeSplitRewrite, NodeRetrieve)
	g.AddConditionalEdge(NodeRetrieve, RouteAfterRetrieve(NodeDynamicWiden, NodeToolRouter, NodeGenerateAnswer))
	g.AddConditionalEdge(NodeDynamicWiden, RouteAfterWiden(NodeRetrieve, NodeGenerateAnswer))
	g.AddConditionalEdge(NodeToolRouter, RouteAfterToolRouter(NodeRunTool, NodeGenerateAnswer))
	g.AddEdge(NodeRunTool, NodeGenerateAnswer)
	g.AddEdge(NodeGenerateAnswer, graph.End)

	return g
}
