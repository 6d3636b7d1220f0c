package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for LLM, embedding, tool, and graph-run observability spans
// and metrics.
var (
	AttrLLMModel    = attribute.Key("llm.model")
	AttrLLMProvider = attribute.Key("llm.provider")
	AttrLLMMethod   = attribute.Key("llm.method")

	AttrTokensInput  = attribute.Key("llm.tokens.input")
	AttrTokensOutput = attribute.Key("llm.tokens.output")
	AttrCostUSD      = attribute.Key("llm.cost_usd")

	AttrStreamChunks = attribute.Key("llm.stream_chunks")

	AttrEmbedTextCount = attribute.Key("llm.embed.text_count")

	AttrToolName         = attribute.Key("tool.name")
	AttrToolStatus       = attribute.Key("tool.status")
	AttrToolResultLength = attribute.Key("tool.result_length")

	AttrGraphRunID   = attribute.Key("graph.run_id")
	AttrGraphNode    = attribute.Key("graph.last_node")
	AttrGraphStatus  = attribute.Key("graph.status")
	AttrGraphDocs    = attribute.Key("graph.docs_retrieved")
)
