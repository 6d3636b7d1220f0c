// Package graph implements the RAG orchestration runtime: a generic
// named-node executor with static and conditional edges, checkpoint resume,
// and SSE workflow_step emission, running one current node at a time rather
// than a concurrent DAG scheduler.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/checkpoint"
	"github.com/nevindra/ragforge/errs"
)

// End is the sentinel terminal node name.
const End = "END"

// MaxWideningAttempts bounds dynamic_widen's retrieve/widen cycle and feeds
// the graph's step bound K = nodes + 2·MaxWideningAttempts.
const MaxWideningAttempts = 2

// Node transforms state. Nodes never mutate their input in place — they
// return a new AgentState (typically via AgentState.Clone plus deltas).
type Node func(ctx context.Context, state ragforge.AgentState) (ragforge.AgentState, error)

// EdgeFunc is a conditional edge's routing predicate: given the state after
// its source node ran, it names the next node.
type EdgeFunc func(state ragforge.AgentState) string

type eventsContextKey struct{}

// EventsFromContext returns the SSE event channel a node was invoked with,
// so a node that streams incremental output (generate_answer) can forward
// events inline with workflow_step emission instead of buffering. Returns
// nil if Run was called with a nil channel.
func EventsFromContext(ctx context.Context) chan<- ragforge.Event {
	ch, _ := ctx.Value(eventsContextKey{}).(chan<- ragforge.Event)
	return ch
}

// Graph is a named-node DAG: each node has either a single static successor
// or a conditional edge, never both.
type Graph struct {
	entry       string
	nodes       map[string]Node
	staticEdges map[string]string
	condEdges   map[string]EdgeFunc
	checkpoints checkpoint.Store
	tracer      ragforge.Tracer
	logger      *slog.Logger
}

// Option configures a Graph.
type Option func(*Graph)

// WithCheckpoints enables resume-on-reconnect via store.
func WithCheckpoints(store checkpoint.Store) Option {
	return func(g *Graph) { g.checkpoints = store }
}

// WithTracer attaches a Tracer; a nil tracer (the default) disables spans.
func WithTracer(t ragforge.Tracer) Option {
	return func(g *Graph) { g.tracer = t }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) { g.logger = logger }
}

// New constructs an empty Graph with the given entry node name.
func New(entry string, opts ...Option) *Graph {
	g := &Graph{
		entry:       entry,
		nodes:       make(map[string]Node),
		staticEdges: make(map[string]string),
		condEdges:   make(map[string]EdgeFunc),
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

// AddNode registers a node under name.
func (g *Graph) AddNode(name string, n Node) {
	g.nodes[name] = n
}

// AddEdge adds a static edge: after from completes, go directly to to.
func (g *Graph) AddEdge(from, to string) {
	g.staticEdges[from] = to
}

// AddConditionalEdge adds a conditional edge: after from completes, fn
// chooses the next node from the resulting state.
func (g *Graph) AddConditionalEdge(from string, fn EdgeFunc) {
	g.condEdges[from] = fn
}

func (g *Graph) next(from string, state ragforge.AgentState) (string, error) {
	if fn, ok := g.condEdges[from]; ok {
		return fn(state), nil
	}
	if to, ok := g.staticEdges[from]; ok {
		return to, nil
	}
	return "", errs.NewInternal(fmt.Sprintf("graph: node %q has no outgoing edge", from), nil)
}

// Run executes the graph for runID starting from initial (or from a
// checkpointed resume point, if the checkpoint store has one). events, when
// non-nil, is offered a workflow_step event on every node entry and exit; the
// send never blocks, so an event is dropped when the channel has no room. The
// caller owns forwarding those onto the client's SSE stream.
func (g *Graph) Run(ctx context.Context, runID string, initial ragforge.AgentState, events chan<- ragforge.Event) (ragforge.AgentState, error) {
	state := initial
	current := g.entry

	if g.checkpoints != nil {
		if cp, ok, err := g.checkpoints.Load(ctx, runID); err == nil && ok {
			state = cp.StateSnapshot
			next, nerr := g.next(cp.LastNode, state)
			if nerr != nil {
				return state, nerr
			}
			current = next
			g.logger.Info("graph: resuming from checkpoint", "run_id", runID, "last_node", cp.LastNode, "resume_at", current)
		}
	}

	maxSteps := len(g.nodes) + 2*MaxWideningAttempts
	for step := 0; step < maxSteps; step++ {
		if current == End {
			return state, nil
		}

		node, ok := g.nodes[current]
		if !ok {
			return state, errs.NewInternal(fmt.Sprintf("graph: unknown node %q", current), nil)
		}

		emitStep(events, current, ragforge.PhaseEnter, nil)

		nodeCtx := context.WithValue(ctx, eventsContextKey{}, events)
		var span ragforge.Span
		if g.tracer != nil {
			nodeCtx, span = g.tracer.Start(nodeCtx, "graph.node", ragforge.StringAttr("node", current))
		}

		start := time.Now()
		newState, err := node(nodeCtx, state)
		elapsed := time.Since(start).Milliseconds()

		if span != nil {
			if err != nil {
				span.Error(err)
			}
			span.End()
		}

		emitStep(events, current, ragforge.PhaseExit, &elapsed)

		if err != nil {
			g.logger.Error("graph: node failed", "run_id", runID, "node", current, "error", err)
			g.saveCheckpoint(ctx, runID, newState, current)
			return newState, err
		}

		newState.Metadata.RecordTiming(current, elapsed)
		state = newState
		g.saveCheckpoint(ctx, runID, state, current)

		if ctx.Err() != nil {
			g.logger.Info("graph: run cancelled after node", "run_id", runID, "node", current)
			return state, errs.NewCancelled(fmt.Sprintf("graph: run cancelled after node %s", current), ctx.Err())
		}

		next, err := g.next(current, state)
		if err != nil {
			return state, err
		}
		current = next
	}

	return state, errs.NewInternal(fmt.Sprintf("graph: exceeded step bound (%d) without reaching %s", maxSteps, End), nil)
}

func (g *Graph) saveCheckpoint(ctx context.Context, runID string, state ragforge.AgentState, lastNode string) {
	if g.checkpoints == nil {
		return
	}
	cp := ragforge.Checkpoint{RunID: runID, StateSnapshot: state, LastNode: lastNode, UpdatedAt: ragforge.NowUnix()}
	if err := g.checkpoints.Save(ctx, cp); err != nil {
		g.logger.Error("graph: failed to persist checkpoint", "run_id", runID, "node", lastNode, "error", err)
	}
}

func emitStep(events chan<- ragforge.Event, node string, phase ragforge.NodePhase, elapsedMs *int64) {
	if events == nil {
		return
	}
	select {
	case events <- ragforge.WorkflowStepEvent(node, phase, elapsedMs):
	default:
	}
}
