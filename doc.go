// Package ragforge is a retrieval-augmented chat orchestration platform.
//
// End users submit chat messages; the platform retrieves relevant snippets
// from each user's personal knowledge base and streams a generated answer
// grounded in that context. Two subsystems carry the engineering weight:
//
//   - The Embedding Pipeline (package pipeline) — consumes new-content events
//     from a durable queue, chunks and embeds the content, and upserts the
//     resulting vectors into a vector index, routing failures to a DLQ.
//   - The RAG Orchestration Graph (packages graph and ragnodes) — a stateful
//     directed graph that processes each chat request and streams a
//     server-sent-events response.
//
// This root package holds the shared vocabulary every component imports: the
// data model (types.go), the SSE event set (events.go), ids (id.go), and
// tracing (tracer.go). Errors live in the errs subpackage.
//
// # Included implementations
//
// Vector index: vectorstore/qdrant. Queue: queue/kafka. Checkpoint store:
// checkpoint/redis. Content store: contentstore/postgres. LLM and embedding
// backends: llm/openaicompat, embed/openaicompat.
//
// See cmd/server, cmd/pipeline, and cmd/dlq-reprocessor for the three runnable
// entrypoints.
package ragforge
