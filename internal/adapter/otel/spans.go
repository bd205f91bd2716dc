package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "athena"

// StartReviewSyncSpan starts a span covering one reputation fetch and sync.
func StartReviewSyncSpan(ctx context.Context, source string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "review.sync",
		trace.WithAttributes(
			attribute.String("reputation.source", source),
		),
	)
}

// StartExportSpan starts a span for a report export.
func StartExportSpan(ctx context.Context, format string, alerts int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "report.export",
		trace.WithAttributes(
			attribute.String("export.format", format),
			attribute.Int("export.alerts", alerts),
		),
	)
}
