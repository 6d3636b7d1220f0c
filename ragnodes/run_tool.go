package ragnodes

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"
	"github.com/nevindra/ragforge/tools"
)

const (
	runToolTimeout    = 10 * time.Second
	runToolRetries    = 2
	runToolBackoffBase = 100 * time.Millisecond
	runToolBackoffCap  = time.Second
)

// RunTool resolves tasks.toolToRun, validates its parameters, and invokes it
// under a hard per-call timeout with bounded exponential-backoff retries.
// Persistent failure falls back to the tool's own canned response — a
// ToolResult is always appended, and this node never fails the run.
func RunTool(registry *tools.Registry) graph.Node {
	return func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error) {
		out := state.Clone()
		name := out.Tasks.ToolToRun
		if name == "" {
			return out, nil
		}

		tool, ok := registry.Get(name)
		if !ok {
			out.Tasks.ToolResults = append(out.Tasks.ToolResults, ragforge.ToolResult{
				ToolName: name,
				Error:    "unknown tool",
			})
			return out, nil
		}

		params, err := json.Marshal(out.Tasks.ToolParameters)
		if err != nil {
			params = []byte("{}")
		}

		start := time.Now()
		output, err := invokeWithRetry(ctx, tool, params)
		elapsed := time.Since(start).Milliseconds()

		if err != nil {
			fallback := tool.Fallback(params, err)
			out.Tasks.ToolResults = append(out.Tasks.ToolResults, ragforge.ToolResult{
				ToolName:        name,
				Input:           params,
				Output:          &fallback,
				Error:           err.Error(),
				ExecutionTimeMs: elapsed,
			})
			return out, nil
		}

		out.Tasks.ToolResults = append(out.Tasks.ToolResults, ragforge.ToolResult{
			ToolName:        name,
			Input:           params,
			Output:          &output,
			ExecutionTimeMs: elapsed,
		})
		return out, nil
	}
}

func invokeWithRetry(ctx context.Context, tool tools.Tool, params json.RawMessage) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= runToolRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, runToolTimeout)
		output, err := tool.Execute(callCtx, params)
		cancel()
		if err == nil {
			return output, nil
		}
		lastErr = err
		if attempt == runToolRetries {
			break
		}
		delay := backoff(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		}
	}
	return "", lastErr
}

// backoff returns an exponential delay from runToolBackoffBase, capped at
// runToolBackoffCap, with up to 50% jitter.
func backoff(attempt int) time.Duration {
	exp := runToolBackoffBase * (1 << attempt)
	if exp > runToolBackoffCap {
		exp = runToolBackoffCap
	}
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	total := exp + jitter
	if total > runToolBackoffCap {
		total = runToolBackoffCap
	}
	return total
}
