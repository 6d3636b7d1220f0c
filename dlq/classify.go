// Package dlq implements the DLQ reprocessor: classifying each
// dead-lettered entry into an ack or a delayed retry.
package dlq

import (
	"strings"
	"time"

	"github.com/nevindra/ragforge"
)

var retryableTerms = []string{
	"timeout", "timed out", "connection refused", "connection reset",
	"failed to establish connection", "network", "throttle", "rate limit",
	"too many requests", "service unavailable", "internal server error",
	"503", "500", "temporarily unavailable", "overloaded", "try again",
	"resource exhausted",
}

var nonRetryableTerms = []string{
	"invalid", "bad request", "unauthorized", "not found", "400", "404",
	"validation", "schema",
}

// isRetryable reports whether msg looks like a transient failure worth
// retrying. Non-retryable terms are checked first so an unambiguous
// validation-style message never slips through on an incidental substring
// match (e.g. "invalid request: 500 from upstream" stays non-retryable).
func isRetryable(msg string) bool {
	lower := strings.ToLower(msg)
	for _, term := range nonRetryableTerms {
		if strings.Contains(lower, term) {
			return false
		}
	}
	for _, term := range retryableTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// maxAttempts bounds EmbedError retries at 3.
const maxAttempts = 3

// Action is the reprocessor's decision for one DLQ entry.
type Action struct {
	Ack   bool
	Retry bool
	Delay time.Duration
}

func ackAction() Action { return Action{Ack: true} }

func retryAction(delay time.Duration) Action { return Action{Retry: true, Delay: delay} }

// Classify decides the action for entry by its DLQ entry kind.
func Classify(entry ragforge.DLQEntry) Action {
	switch e := entry.(type) {
	case ragforge.ParseErrorEntry:
		return ackAction()
	case ragforge.EmbedErrorEntry:
		if isRetryable(e.Err) && e.Attempts < maxAttempts {
			delaySeconds := 30 * (1 << e.Attempts)
			return retryAction(time.Duration(delaySeconds) * time.Second)
		}
		return ackAction()
	case ragforge.UnknownEntry:
		return ackAction()
	default:
		return ackAction()
	}
}
