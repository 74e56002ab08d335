package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zjrosen/kinship"

// Span names.
const (
	SpanPrefixCLI    = "cli."
	SpanQueryRun     = "kql.run"
	SpanDocumentLoad = "document.load"
	SpanDocumentSave = "document.save"
)

// Span attribute keys.
const (
	AttrQueryText    = "kql.query"
	AttrQueryAction  = "kql.action"
	AttrQueryMatches = "kql.matches"
	AttrQueryFound   = "kql.found"
	AttrSourcePath   = "entry.path"
	AttrDocumentPath = "document.path"
	AttrEntryCount   = "document.entries"
	AttrCommand      = "cli.command"
	AttrErrorMessage = "error.message"
)

// Start opens a span on the global tracer provider. With tracing disabled
// the global provider is a no-op and so is the span.
func Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if ctx == nil {
		ctx = context.Background()
	}
	return otel.Tracer(instrumentationName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, then ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
