package ragforge

import "encoding/json"

// PublicUserID is the sentinel userId marking content visible to all users.
// The vector adapter always widens a userId filter to include it.
const PublicUserID = "PUBLIC_USER_ID"

// --- Embedding pipeline data model ---

// ContentEvent is the input to the embedding pipeline, delivered on the
// new-content queue. It is consumed exactly once and never mutated.
type ContentEvent struct {
	ID                    string `json:"id"`
	UserID                string `json:"userId"`
	Category              string `json:"category"`
	MimeType              string `json:"mimeType"`
	CreatedAtEpochSeconds int64  `json:"createdAt"`
	Deleted               bool   `json:"deleted"`
	Version               uint32 `json:"version"`
}

// Valid reports whether the event satisfies the core invariant: id non-empty.
func (e ContentEvent) Valid() bool { return e.ID != "" }

// ContentItem is a ContentEvent with its body fetched from the content store.
// An empty Body means the pipeline should skip this item with a warning, not
// an error.
type ContentItem struct {
	ContentEvent
	Body string `json:"body"`
}

// Chunk is a bounded slice of text produced by the chunker. Chunks for a
// given content item form a totally ordered sequence; Index is contiguous
// from 0.
type Chunk struct {
	Index uint32 `json:"index"`
	Text  string `json:"text"`
}

// VectorMeta is the metadata payload stored alongside a vector record.
type VectorMeta struct {
	UserID    string `json:"userId"`
	ContentID string `json:"contentId"`
	Category  string `json:"category"`
	MimeType  string `json:"mimeType"`
	CreatedAt int64  `json:"createdAt"`
	Version   uint32 `json:"version"`
}

// VectorRecord is a single embedding vector plus its metadata, keyed by a
// deterministic id of the form "content:{contentId}:{chunkIndex}".
type VectorRecord struct {
	ID       string     `json:"id"`
	Values   []float32  `json:"values"`
	Metadata VectorMeta `json:"metadata"`
}

// VectorID deterministically derives a vector record id from a content id
// and chunk index. Two runs over the same (contentID, chunkIndex) always
// produce the same id, which is what makes upsert idempotent.
func VectorID(contentID string, chunkIndex uint32) string {
	return "content:" + contentID + ":" + itoa(chunkIndex)
}

func itoa(u uint32) string {
	if u == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	return string(buf[i:])
}

// --- DLQ data model ---

// DLQEntry is the closed tagged union of dead-letter-queue payloads: exactly
// one of ParseErrorEntry, EmbedErrorEntry, or UnknownEntry. Unrecognized
// variants are rejected at the boundary (see dlq.Decode).
type DLQEntry interface {
	dlqKind() string
}

// ParseErrorEntry records a ContentEvent that failed schema validation.
// ParseError entries are always acknowledged — malformed input is never
// retried.
type ParseErrorEntry struct {
	Error           string `json:"error"`
	OriginalMessage []byte `json:"originalMessage"`
}

func (ParseErrorEntry) dlqKind() string { return "ParseError" }

// EmbedErrorEntry records a job that failed during chunk/embed/upsert.
// Attempts is incremented by the queue system on each redelivery.
type EmbedErrorEntry struct {
	Err      string       `json:"err"`
	Job      ContentEvent `json:"job"`
	Attempts uint32       `json:"attempts"`
}

func (EmbedErrorEntry) dlqKind() string { return "EmbedError" }

// UnknownEntry wraps a DLQ message that could not be classified as either of
// the above. It is always acknowledged.
type UnknownEntry struct {
	Raw []byte `json:"raw"`
}

func (UnknownEntry) dlqKind() string { return "Unknown" }

// DLQKind returns the tag name of a DLQEntry, matching the "kind" field used
// when the entry is serialized to the wire.
func DLQKind(e DLQEntry) string { return e.dlqKind() }

// --- RAG orchestration data model ---

// Role identifies who authored a message in an AgentState's conversation.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ConversationMessage is one turn of the conversation carried in AgentState.
type ConversationMessage struct {
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
}

// ToolResult is the outcome of running a single tool.
type ToolResult struct {
	ToolName        string          `json:"toolName"`
	Input           json.RawMessage `json:"input,omitempty"`
	Output          *string         `json:"output,omitempty"`
	Error           string          `json:"error,omitempty"`
	ExecutionTimeMs int64           `json:"executionTimeMs"`
}

// Tasks tracks the in-flight work of a single RAG graph run: the query being
// answered, widening progress, and tool selection/results.
type Tasks struct {
	OriginalQuery    string            `json:"originalQuery"`
	RewrittenQuery   string            `json:"rewrittenQuery,omitempty"`
	NeedsWidening    bool              `json:"needsWidening"`
	WideningAttempts uint32            `json:"wideningAttempts"`
	RequiredTools    []string          `json:"requiredTools,omitempty"`
	ToolToRun        string            `json:"toolToRun,omitempty"`
	ToolParameters   map[string]any    `json:"toolParameters,omitempty"`
	ToolResults      []ToolResult      `json:"toolResults,omitempty"`
}

// Query returns the rewritten query if one was produced, else the original.
func (t Tasks) Query() string {
	if t.RewrittenQuery != "" {
		return t.RewrittenQuery
	}
	return t.OriginalQuery
}

// Doc is a retrieved knowledge-base item, ready for prompt assembly.
type Doc struct {
	ID        string  `json:"id"`
	Score     float32 `json:"score"`
	Title     string  `json:"title"`
	Body      string  `json:"body"`
	CreatedAt int64   `json:"createdAt"`
	SourceRef string  `json:"sourceRef"`
}

// Options configures a single chat run's behavior, supplied with the request.
type Options struct {
	EnhanceWithContext bool    `json:"enhanceWithContext"`
	MaxContextItems    int     `json:"maxContextItems"`
	IncludeSourceInfo  bool    `json:"includeSourceInfo"`
	MaxTokens          int     `json:"maxTokens"`
	Temperature        float64 `json:"temperature"`
}

// DefaultOptions returns the documented request-option defaults.
func DefaultOptions() Options {
	return Options{
		EnhanceWithContext: true,
		MaxContextItems:    10,
		IncludeSourceInfo:  true,
		MaxTokens:          4000,
		Temperature:        0.7,
	}
}

// NodeError records a non-fatal failure a node chose to absorb locally.
type NodeError struct {
	Node      string `json:"node"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// Metadata carries observability state threaded through a run: the trace id,
// per-node elapsed time, and any locally-recovered errors.
type Metadata struct {
	TraceID     string           `json:"traceId"`
	NodeTimings map[string]int64 `json:"nodeTimings,omitempty"`
	Errors      []NodeError      `json:"errors,omitempty"`
}

// RecordTiming appends a node's elapsed time, initializing the map on first use.
func (m *Metadata) RecordTiming(node string, elapsedMs int64) {
	if m.NodeTimings == nil {
		m.NodeTimings = make(map[string]int64)
	}
	m.NodeTimings[node] = elapsedMs
}

// RecordError appends a locally-recovered error, annotating state instead of
// propagating it as a fatal failure.
func (m *Metadata) RecordError(node, message string, timestamp int64) {
	m.Errors = append(m.Errors, NodeError{Node: node, Message: message, Timestamp: timestamp})
}

// AgentState is the mutable record threaded through the RAG graph. Each node
// returns a new AgentState (copy with deltas) per the immutable-update
// discipline — see graph.Node.
type AgentState struct {
	RunID    string                `json:"runId"`
	UserID   string                `json:"userId"`
	Messages []ConversationMessage `json:"messages"`
	Tasks    Tasks                 `json:"tasks"`
	Docs     []Doc                 `json:"docs"`
	Options  Options               `json:"options"`
	Metadata Metadata              `json:"metadata"`
}

// Clone returns a deep-enough copy of the state so a node can mutate its
// local copy without aliasing the caller's slices/maps.
func (s AgentState) Clone() AgentState {
	out := s
	out.Messages = append([]ConversationMessage(nil), s.Messages...)
	out.Docs = append([]Doc(nil), s.Docs...)
	out.Tasks.RequiredTools = append([]string(nil), s.Tasks.RequiredTools...)
	out.Tasks.ToolResults = append([]ToolResult(nil), s.Tasks.ToolResults...)
	if s.Tasks.ToolParameters != nil {
		out.Tasks.ToolParameters = make(map[string]any, len(s.Tasks.ToolParameters))
		for k, v := range s.Tasks.ToolParameters {
			out.Tasks.ToolParameters[k] = v
		}
	}
	if s.Metadata.NodeTimings != nil {
		out.Metadata.NodeTimings = make(map[string]int64, len(s.Metadata.NodeTimings))
		for k, v := range s.Metadata.NodeTimings {
			out.Metadata.NodeTimings[k] = v
		}
	}
	out.Metadata.Errors = append([]NodeError(nil), s.Metadata.Errors...)
	return out
}

// LastUserMessage returns the content of the most recent user message, or ""
// if none exists.
func (s AgentState) LastUserMessage() string {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleUser {
			return s.Messages[i].Content
		}
	}
	return ""
}

// Checkpoint is a persisted snapshot of an AgentState allowing a run to
// resume. Keyed by RunID; at most one per RunID.
type Checkpoint struct {
	RunID         string     `json:"runId"`
	StateSnapshot AgentState `json:"stateSnapshot"`
	LastNode      string     `json:"lastNode"`
	UpdatedAt     int64      `json:"updatedAt"`
}
