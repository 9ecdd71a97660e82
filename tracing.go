package toolrelay

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithTracing returns a middleware that records one span per tool call.
// Span name is "tool <name>"; failures are recorded as span errors.
func WithTracing(tracer trace.Tracer) Middleware {
	return func(next Tool) Tool {
		return &tracingTool{toolBase: toolBase{next: next}, tracer: tracer}
	}
}

type tracingTool struct {
	toolBase
	tracer trace.Tracer
}

func (t *tracingTool) Call(ctx context.Context, input map[string]any) (any, error) {
	ctx, span := t.tracer.Start(ctx, "tool "+t.next.Name(),
		trace.WithAttributes(
			attribute.String("tool.name", t.next.Name()),
			attribute.Int("tool.input.count", len(input)),
		),
	)
	defer span.End()
	res, err := t.next.Call(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetStatus(codes.Ok, "")
	return res, nil
}
