package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// OTelTraceID returns the trace id of the span carried by ctx, if any.
func OTelTraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
