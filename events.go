package ragforge

import "encoding/json"

// EventType is the closed set of SSE event kinds the chat endpoint emits.
// Unknown event types are never produced by the core and should be
// rejected at the boundary by any consumer.
type EventType string

const (
	// EventWorkflowStep marks a graph node's entry or exit.
	EventWorkflowStep EventType = "workflow_step"
	// EventAnswer carries an incremental token or the final answer+sources.
	EventAnswer EventType = "answer"
	// EventError reports a top-level failure; always followed by EventDone.
	EventError EventType = "error"
	// EventDone terminates the stream.
	EventDone EventType = "done"
)

// NodePhase distinguishes node-enter from node-exit within a workflow_step event.
type NodePhase string

const (
	PhaseEnter NodePhase = "enter"
	PhaseExit  NodePhase = "exit"
)

// Event is a single SSE message. Exactly one of the payload fields is set,
// matching the field named by Type.
type Event struct {
	Type EventType       `json:"event"`
	Data json.RawMessage `json:"data"`
}

// WorkflowStepPayload is the payload of an EventWorkflowStep event.
type WorkflowStepPayload struct {
	Node      string  `json:"node"`
	Phase     NodePhase `json:"phase"`
	ElapsedMs *int64  `json:"elapsedMs,omitempty"`
}

// AnswerTokenPayload is an incremental EventAnswer payload.
type AnswerTokenPayload struct {
	Token string `json:"token"`
}

// Source is a citation back to a retrieved document.
type Source struct {
	Index int    `json:"index"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// AnswerFinalPayload is the terminal EventAnswer payload.
type AnswerFinalPayload struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// ErrorCode is the closed set of codes surfaced on EventError.
type ErrorCode string

const (
	ErrorCodeForbidden  ErrorCode = "FORBIDDEN"
	ErrorCodeValidation ErrorCode = "VALIDATION"
	ErrorCodeCancelled  ErrorCode = "CANCELLED"
	ErrorCodeInternal   ErrorCode = "INTERNAL"
)

// ErrorPayload is the payload of an EventError event.
type ErrorPayload struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// DonePayload is the payload of an EventDone event.
type DonePayload struct {
	RunID string `json:"runId"`
}

func newEvent(t EventType, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{Type: t, Data: data}
}

// WorkflowStepEvent builds a workflow_step event.
func WorkflowStepEvent(node string, phase NodePhase, elapsedMs *int64) Event {
	return newEvent(EventWorkflowStep, WorkflowStepPayload{Node: node, Phase: phase, ElapsedMs: elapsedMs})
}

// AnswerTokenEvent builds an incremental answer event.
func AnswerTokenEvent(token string) Event {
	return newEvent(EventAnswer, AnswerTokenPayload{Token: token})
}

// AnswerFinalEvent builds the terminal answer event.
func AnswerFinalEvent(text string, sources []Source) Event {
	return newEvent(EventAnswer, AnswerFinalPayload{Text: text, Sources: sources})
}

// ErrorEvent builds an error event.
func ErrorEvent(code ErrorCode, message string) Event {
	return newEvent(EventError, ErrorPayload{Code: code, Message: message})
}

// DoneEvent builds a done event.
func DoneEvent(runID string) Event {
	return newEvent(EventDone, DonePayload{RunID: runID})
}
