package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"git.home.luguber.info/inful/booktypst/internal/logfields"
)

const tracerName = "booktypst"

// SpanManager handles trace span lifecycle for conversion runs.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartRunSpan starts the span covering one conversion run.
	StartRunSpan(ctx context.Context, book, runID string) (context.Context, trace.Span)
	// StartStageSpan starts a child span for one phase of the run.
	StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span)
	// EndSpanWithError completes a span, optionally recording an error.
	EndSpanWithError(span trace.Span, err error)
	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct {
	tracer trace.Tracer
}

// NewSpanManager returns a SpanManager backed by the global OTel tracer
// provider at the time of the call.
func NewSpanManager() SpanManager {
	return &otelSpanManager{tracer: otel.Tracer(tracerName)}
}

func (m *otelSpanManager) StartRunSpan(ctx context.Context, book, runID string) (context.Context, trace.Span) {
	return m.tracer.Start(ctx, "booktypst.run",
		trace.WithAttributes(
			attribute.String("book.root", book),
			attribute.String("run.id", runID),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) StartStageSpan(ctx context.Context, stage string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("stage.name", stage)}
	if lc := GetContext(ctx); lc.RunID != "" {
		attrs = append(attrs, attribute.String("run.id", lc.RunID))
	}
	return m.tracer.Start(ctx, "booktypst.stage."+stage,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndSpanWithError(span trace.Span, err error) {
	if span == nil {
		return
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

// NoopSpanManager is a SpanManager that does nothing.
type NoopSpanManager struct{}

var _ SpanManager = NoopSpanManager{}

var noopSpan = noop.Span{}

func (NoopSpanManager) StartRunSpan(ctx context.Context, _, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

func (NoopSpanManager) StartStageSpan(ctx context.Context, _ string) (context.Context, trace.Span) {
	return ctx, noopSpan
}

func (NoopSpanManager) EndSpanWithError(trace.Span, error) {}

func (NoopSpanManager) AddSpanEvent(context.Context, string, ...attribute.KeyValue) {}

// InstallLogTracer registers a global tracer provider whose finished spans
// are written to slog at debug level. The returned function flushes and
// shuts the provider down.
func InstallLogTracer() func(context.Context) error {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(logExporter{}))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

// logExporter is a sdktrace.SpanExporter that logs spans.
type logExporter struct{}

func (logExporter) ExportSpans(ctx context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, s := range spans {
		attrs := []slog.Attr{
			slog.String("span", s.Name()),
			slog.String("trace.id", s.SpanContext().TraceID().String()),
			logfields.DurationMS(float64(s.EndTime().Sub(s.StartTime()).Microseconds()) / 1000),
		}
		if st := s.Status(); st.Code == codes.Error {
			attrs = append(attrs, slog.String(logfields.KeyError, st.Description))
		}
		slog.LogAttrs(ctx, slog.LevelDebug, "Span ended", attrs...)
	}
	return nil
}

func (logExporter) Shutdown(context.Context) error { return nil }
