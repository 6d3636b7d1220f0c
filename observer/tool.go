package observer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nevindra/ragforge/tools"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ObservedTool wraps a tools.Tool with OTEL instrumentation. Register the
// wrapper itself with the registry so every run_tool invocation is traced.
type ObservedTool struct {
	inner tools.Tool
	inst  *Instruments
}

// WrapTool returns an instrumented tool.
func WrapTool(inner tools.Tool, inst *Instruments) *ObservedTool {
	return &ObservedTool{inner: inner, inst: inst}
}

func (o *ObservedTool) Name() string            { return o.inner.Name() }
func (o *ObservedTool) Schema() json.RawMessage { return o.inner.Schema() }

func (o *ObservedTool) Fallback(params json.RawMessage, cause error) string {
	return o.inner.Fallback(params, cause)
}

func (o *ObservedTool) Execute(ctx context.Context, params json.RawMessage) (string, error) {
	name := o.inner.Name()

	ctx, span := o.inst.Tracer.Start(ctx, "tool.execute", trace.WithAttributes(
		AttrToolName.String(name),
	))
	defer span.End()
	start := time.Now()

	result, err := o.inner.Execute(ctx, params)

	durationMs := float64(time.Since(start).Milliseconds())
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		AttrToolStatus.String(status),
		AttrToolResultLength.Int(len(result)),
	)

	o.inst.ToolExecutions.Add(ctx, 1, metric.WithAttributes(
		AttrToolName.String(name),
		attribute.String("status", status),
	))
	o.inst.ToolDuration.Record(ctx, durationMs, metric.WithAttributes(
		AttrToolName.String(name),
	))

	var rec otellog.Record
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetBody(otellog.StringValue("tool executed"))
	rec.AddAttributes(
		otellog.String("tool.name", name),
		otellog.String("tool.status", status),
		otellog.Int("tool.result_length", len(result)),
		otellog.Float64("tool.duration_ms", durationMs),
	)
	o.inst.Logger.Emit(ctx, rec)

	return result, err
}

// compile-time check
var _ tools.Tool = (*ObservedTool)(nil)
