package observer

import (
	"context"
	"time"

	"github.com/nevindra/ragforge"
	"github.com/nevindra/ragforge/graph"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedGraph wraps a *graph.Graph to emit a single top-level run span
// that contains every node's own span (graph.go's own WithTracer wiring)
// as a child, plus one run-level metric/log pair per call to Run.
type ObservedGraph struct {
	inner *graph.Graph
	inst  *Instruments
}

// WrapGraph returns a graph whose Run calls are instrumented end to end.
// g should already have been built with graph.WithTracer(observer.NewTracer())
// so its per-node spans nest under the run span this wrapper opens.
func WrapGraph(inner *graph.Graph, inst *Instruments) *ObservedGraph {
	return &ObservedGraph{inner: inner, inst: inst}
}

// Run wraps graph.Graph.Run, emitting a "graph.run" span, run-count and
// duration metrics, and a structured log on completion.
func (o *ObservedGraph) Run(ctx context.Context, runID string, initial ragforge.AgentState, events chan<- ragforge.Event) (ragforge.AgentState, error) {
	ctx, span := o.inst.Tracer.Start(ctx, "graph.run", trace.WithAttributes(
		AttrGraphRunID.String(runID),
	))
	defer span.End()
	start := time.Now()

	result, err := o.inner.Run(ctx, runID, initial, events)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if ctx.Err() != nil && err != nil {
		status = "cancelled"
	} else if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		AttrGraphStatus.String(status),
		AttrGraphDocs.Int(len(result.Docs)),
	)

	o.inst.GraphRuns.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
	o.inst.GraphDuration.Record(ctx, durationMs)

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("graph run completed"))
	rec.AddAttributes(
		otellog.String("graph.run_id", runID),
		otellog.String("graph.status", status),
		otellog.Int("graph.docs_retrieved", len(result.Docs)),
		otellog.Float64("graph.duration_ms", durationMs),
	)
	o.inst.Logger.Emit(ctx, rec)

	return result, err
}
