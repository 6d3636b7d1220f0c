package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/errs"
)

// graphRunner is satisfied by both *graph.Graph and *observer.ObservedGraph,
// so the handler doesn't care whether observability is wired in.
type graphRunner interface {
	Run(ctx context.Context, runID string, initial ragforge.AgentState, events chan<- ragforge.Event) (ragforge.AgentState, error)
}

// chatRequest is the parsed body of POST /chat.
type chatRequest struct {
	InitialState struct {
		UserID   string                         `json:"userId"`
		Messages []ragforge.ConversationMessage `json:"messages"`
		Options  ragforge.Options               `json:"options"`
	} `json:"initialState"`
	RunID string `json:"runId"`
}

// newChatHandler returns a gin handler for POST /chat: it decodes the
// request, runs the orchestration graph, and streams workflow_step/answer/
// error/done SSE events back to the client as they're produced.
func newChatHandler(runner graphRunner, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
			return
		}
		if req.InitialState.UserID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "initialState.userId is required"})
			return
		}

		runID := req.RunID
		if runID == "" {
			runID = ragforge.NewID()
		}

		options := req.InitialState.Options
		if options == (ragforge.Options{}) {
			options = ragforge.DefaultOptions()
		}

		initial := ragforge.AgentState{
			RunID:    runID,
			UserID:   req.InitialState.UserID,
			Messages: req.InitialState.Messages,
			Options:  options,
			Metadata: ragforge.Metadata{TraceID: ragforge.NewID()},
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")

		flusher, ok := c.Writer.(http.Flusher)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
			return
		}

		events := make(chan ragforge.Event, 16)
		done := make(chan struct{})

		go func() {
			defer close(done)
			for ev := range events {
				writeSSE(c.Writer, ev)
				flusher.Flush()
			}
		}()

		ctx := c.Request.Context()
		_, err := runner.Run(ctx, runID, initial, events)
		close(events)
		<-done

		if err != nil {
			code := ragforge.ErrorCodeInternal
			switch errs.KindOf(err) {
			case errs.Forbidden:
				code = ragforge.ErrorCodeForbidden
			case errs.Validation:
				code = ragforge.ErrorCodeValidation
			case errs.Cancelled:
				code = ragforge.ErrorCodeCancelled
			}
			writeSSE(c.Writer, ragforge.ErrorEvent(code, "technical difficulties, trace id "+initial.Metadata.TraceID))
			flusher.Flush()
			logger.Error("chat: run failed", "run_id", runID, "trace_id", initial.Metadata.TraceID, "err", err)
		}

		writeSSE(c.Writer, ragforge.DoneEvent(runID))
		flusher.Flush()
	}
}

func writeSSE(w http.ResponseWriter, ev ragforge.Event) {
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, ev.Data)
}
