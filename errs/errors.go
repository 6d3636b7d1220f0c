// Package errs defines the closed set of error kinds the core raises, as
// typed, errors.As-friendly values.
package errs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind is the closed taxonomy of error categories the core distinguishes.
type Kind string

const (
	Validation   Kind = "Validation"   // malformed input; not retryable
	Forbidden    Kind = "Forbidden"    // prompt injection, auth
	NotFound     Kind = "NotFound"     // missing content
	Embedding    Kind = "Embedding"    // model call failures
	Vectorize    Kind = "Vectorize"    // index call failures
	Preprocessing Kind = "Preprocessing" // chunking failures — recovered locally
	Tool         Kind = "Tool"         // per-tool failure — recovered via fallback
	Timeout      Kind = "Timeout"
	Transport    Kind = "Transport" // retryable network
	Cancelled    Kind = "Cancelled" // client disconnected mid-run
	Internal     Kind = "Internal" // unexpected — fatal for the request only
)

// Error is the core's single error type: a Kind tag plus a wrapped cause and
// free-form context. Use errors.As to recover it and Kind() to branch on
// category.
type Error struct {
	K       Kind
	Message string
	Cause   error
	Fields  map[string]any
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.K))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// KindOf returns the category of err, or Internal if err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.K
	}
	return Internal
}

// New constructs a typed error of the given kind.
func New(k Kind, message string, cause error, fields map[string]any) *Error {
	return &Error{K: k, Message: message, Cause: cause, Fields: fields}
}

// --- convenience constructors used throughout the core ---

func NewValidation(message string, cause error) *Error {
	return New(Validation, message, cause, nil)
}

func NewForbidden(message string) *Error {
	return New(Forbidden, message, nil, nil)
}

func NewNotFound(message string) *Error {
	return New(NotFound, message, nil, nil)
}

// NewEmbedding reports an embedder failure after retries are exhausted.
func NewEmbedding(model string, batchSize, attempts int, cause error) *Error {
	return New(Embedding, fmt.Sprintf("embed batch of %d failed after %d attempts", batchSize, attempts), cause,
		map[string]any{"model": model, "batch_size": batchSize, "attempts": attempts})
}

func NewVectorize(op string, cause error) *Error {
	return New(Vectorize, op+" failed", cause, nil)
}

func NewPreprocessing(message string, cause error) *Error {
	return New(Preprocessing, message, cause, nil)
}

func NewTool(toolName, message string, cause error) *Error {
	return New(Tool, message, cause, map[string]any{"tool": toolName})
}

func NewTimeout(op string) *Error {
	return New(Timeout, op+" timed out", nil, nil)
}

func NewTransport(message string, cause error) *Error {
	return New(Transport, message, cause, nil)
}

// NewCancelled reports a run halted by client disconnect or context
// cancellation. cause is typically context.Canceled.
func NewCancelled(message string, cause error) *Error {
	return New(Cancelled, message, cause, nil)
}

func NewInternal(message string, cause error) *Error {
	return New(Internal, message, cause, nil)
}

// --- wire-level errors, used by the retry decorators in llm/ and embed/ ---

// LLM reports a failure from an LLM or embedding backend.
type LLM struct {
	Provider string
	Message  string
}

func (e *LLM) Error() string { return fmt.Sprintf("%s: %s", e.Provider, e.Message) }

// HTTP reports a non-2xx HTTP response from a backend, including any
// Retry-After hint so retry decorators can honor server-requested backoff.
type HTTP struct {
	Status     int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTP) Error() string { return fmt.Sprintf("http %d: %s", e.Status, e.Body) }

// ParseRetryAfter parses an HTTP Retry-After header value, which is either an
// integer number of seconds or an HTTP-date. Unparseable or empty input
// yields 0 (no hint).
func ParseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := time.Parse(time.RFC1123, header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return 0
		}
		return d
	}
	return 0
}

// IsRetryableHTTP reports whether err is a transient HTTP failure (429 or 503).
func IsRetryableHTTP(err error) bool {
	var e *HTTP
	return errors.As(err, &e) && (e.Status == 429 || e.Status == 503)
}

// RetryAfterOf extracts the Retry-After duration from an HTTP error, or 0.
func RetryAfterOf(err error) time.Duration {
	var e *HTTP
	if errors.As(err, &e) {
		return e.RetryAfter
	}
	return 0
}

// StatusOf extracts the HTTP status code from an HTTP error, or 0.
func StatusOf(err error) int {
	var e *HTTP
	if errors.As(err, &e) {
		return e.Status
	}
	return 0
}
