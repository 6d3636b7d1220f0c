package llm

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/nevindra/ragforge/errs"
)

// FallbackApology is the fixed message Policy substitutes when the backend
// is unreachable or exhausts its retries. Exported so callers that need to
// distinguish "the model really said this" from "the policy gave up" (e.g.
// split_rewrite deciding whether a rewrite is usable) can compare against it
// instead of re-deriving the same string.
const FallbackApology = "I'm having trouble reaching the language model right now. Please try again in a moment."

const fallbackApology = FallbackApology

// canned is returned in test mode, when no backend is configured and the
// process is running under `go test` (detected via testing.Testing).
const canned = "this is a canned test response"

// Policy wraps a Backend with a single retry/timeout/fallback layer:
// bounded timeouts, one retry for sync calls, no retry once a stream has
// produced a byte, and a fixed fallback on exhaustion.
type Policy struct {
	backend      Backend
	syncTimeout  time.Duration
	streamWall   time.Duration
	interTokGap  time.Duration
	retryBase    time.Duration
	logger       *slog.Logger
}

// Option configures a Policy.
type Option func(*Policy)

// WithSyncTimeout overrides the default 60s sync timeout.
func WithSyncTimeout(d time.Duration) Option { return func(p *Policy) { p.syncTimeout = d } }

// WithStreamWallClock overrides the default 120s streaming wall-clock limit.
func WithStreamWallClock(d time.Duration) Option { return func(p *Policy) { p.streamWall = d } }

// WithInterTokenGap overrides the default 30s max gap between stream tokens.
func WithInterTokenGap(d time.Duration) Option { return func(p *Policy) { p.interTokGap = d } }

// WithLogger sets the structured logger used for retry/fallback diagnostics.
func WithLogger(l *slog.Logger) Option { return func(p *Policy) { p.logger = l } }

// New wraps backend (possibly nil, to exercise test mode) with the default
// policy: 60s sync timeout, 120s streaming wall-clock, 30s inter-token gap,
// 1 sync retry, 1s base backoff.
func New(backend Backend, opts ...Option) *Policy {
	p := &Policy{
		backend:     backend,
		syncTimeout: 60 * time.Second,
		streamWall:  120 * time.Second,
		interTokGap: 30 * time.Second,
		retryBase:   time.Second,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Chat performs a non-streaming call with one retry on transient failure,
// falling back to a fixed apology if both attempts fail.
func (p *Policy) Chat(ctx context.Context, req Request) (Response, error) {
	if p.backend == nil {
		if testing.Testing() {
			return Response{Content: canned}, nil
		}
		return Response{Content: fallbackApology}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.syncTimeout)
	defer cancel()

	resp, err := p.backend.Chat(ctx, req)
	if err == nil {
		return resp, nil
	}
	if !isRetryable(err) {
		return Response{Content: fallbackApology}, nil
	}

	p.logger.Warn("llm: retrying transient sync failure", "backend", p.backend.Name(), "error", err)
	delay := retryBackoff(p.retryBase, 0)
	timer := time.NewTimer(delay)
	select {
	case <-ctx.Done():
		timer.Stop()
		return Response{Content: fallbackApology}, nil
	case <-timer.C:
	}

	resp, err = p.backend.Chat(ctx, req)
	if err != nil {
		p.logger.Error("llm: sync call exhausted retries", "backend", p.backend.Name(), "error", err)
		return Response{Content: fallbackApology}, nil
	}
	return resp, nil
}

// ChatStream streams token deltas into ch under the wall-clock and
// inter-token-gap limits. It never retries once a token has been forwarded;
// on failure before the first token it falls back to a one-shot apology
// stream. ch is always closed before return.
func (p *Policy) ChatStream(ctx context.Context, req Request, ch chan<- StreamEvent) (Response, error) {
	defer close(ch)

	if p.backend == nil {
		text := canned
		if !testing.Testing() {
			text = fallbackApology
		}
		select {
		case ch <- StreamEvent{Type: EventTextDelta, Content: text}:
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
		return Response{Content: text}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.streamWall)
	defer cancel()

	inner := make(chan StreamEvent, 16)
	done := make(chan struct{})
	var resp Response
	var streamErr error
	go func() {
		defer close(done)
		resp, streamErr = p.backend.ChatStream(ctx, req, inner)
	}()

	var tokensSent bool
	gapTimer := time.NewTimer(p.interTokGap)
	defer gapTimer.Stop()

loop:
	for {
		select {
		case ev, ok := <-inner:
			if !ok {
				break loop
			}
			tokensSent = true
			if !gapTimer.Stop() {
				select {
				case <-gapTimer.C:
				default:
				}
			}
			gapTimer.Reset(p.interTokGap)
			select {
			case ch <- ev:
			case <-ctx.Done():
				return Response{}, ctx.Err()
			}
		case <-gapTimer.C:
			return Response{}, errs.NewTimeout("llm stream inter-token gap")
		case <-ctx.Done():
			return Response{}, ctx.Err()
		}
	}
	<-done

	if streamErr != nil {
		if tokensSent {
			return resp, streamErr
		}
		p.logger.Error("llm: stream failed before first token, falling back", "backend", p.backend.Name(), "error", streamErr)
		select {
		case ch <- StreamEvent{Type: EventTextDelta, Content: fallbackApology}:
		default:
		}
		return Response{Content: fallbackApology}, nil
	}
	return resp, nil
}

func isRetryable(err error) bool {
	if errs.IsRetryableHTTP(err) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// retryBackoff returns an exponential delay with up to 50% jitter.
func retryBackoff(base time.Duration, attempt int) time.Duration {
	exp := base * (1 << attempt)
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp + jitter
}
