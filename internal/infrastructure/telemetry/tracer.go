package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "fraudguard-backend"

// StartAnalysisSpan opens a span covering one whole-URL risk analysis.
func StartAnalysisSpan(ctx context.Context, host string) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, "analysis.analyze_url",
		trace.WithAttributes(attribute.String("url.host", host)),
	)
}

// StartProviderSpan opens a span covering one signal provider's
// evaluation inside an analysis.
func StartProviderSpan(ctx context.Context, provider string) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, "analysis.provider",
		trace.WithAttributes(attribute.String("provider", provider)),
	)
}

// WithSpanError marks the span failed when err is non-nil.
func WithSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
