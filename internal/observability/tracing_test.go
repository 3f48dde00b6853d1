package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		_ = tp.Shutdown(context.Background())
	})
	return exporter
}

func attr(attrs []attribute.KeyValue, key string) string {
	for _, a := range attrs {
		if string(a.Key) == key {
			return a.Value.AsString()
		}
	}
	return ""
}

func TestSpanManager(t *testing.T) {
	exporter := setupTracingTest(t)
	m := NewSpanManager()

	ctx, run := m.StartRunSpan(WithRunID(context.Background(), "run-123"), "./book", "run-123")
	stageCtx, stage := m.StartStageSpan(ctx, "render")
	m.AddSpanEvent(stageCtx, "rendered", attribute.Int("bytes", 10))
	m.EndSpanWithError(stage, errors.New("disk full"))
	m.EndSpanWithError(run, nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	stageSpan, runSpan := spans[0], spans[1]
	assert.Equal(t, "booktypst.stage.render", stageSpan.Name)
	assert.Equal(t, "render", attr(stageSpan.Attributes, "stage.name"))
	assert.Equal(t, "run-123", attr(stageSpan.Attributes, "run.id"))
	assert.Equal(t, codes.Error, stageSpan.Status.Code)
	assert.Equal(t, runSpan.SpanContext.SpanID(), stageSpan.Parent.SpanID())
	var names []string
	for _, e := range stageSpan.Events {
		names = append(names, e.Name)
	}
	assert.Contains(t, names, "rendered")

	assert.Equal(t, "booktypst.run", runSpan.Name)
	assert.Equal(t, "run-123", attr(runSpan.Attributes, "run.id"))
	assert.Equal(t, "./book", attr(runSpan.Attributes, "book.root"))
	assert.Equal(t, codes.Ok, runSpan.Status.Code)
}

func TestNoopSpanManager(t *testing.T) {
	exporter := setupTracingTest(t)
	var m SpanManager = NoopSpanManager{}

	ctx := context.Background()
	got, span := m.StartRunSpan(ctx, "book", "run")
	assert.Equal(t, ctx, got)
	_, stage := m.StartStageSpan(got, "load")
	m.AddSpanEvent(got, "ignored")
	m.EndSpanWithError(stage, errors.New("ignored"))
	m.EndSpanWithError(span, nil)

	assert.Empty(t, exporter.GetSpans())
}

func TestInstallLogTracer(t *testing.T) {
	buf := captureLogs(t)
	original := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(original) })

	shutdown := InstallLogTracer()
	m := NewSpanManager()
	_, span := m.StartStageSpan(context.Background(), "write")
	m.EndSpanWithError(span, errors.New("boom"))
	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, "Span ended")
	assert.Contains(t, out, "span=booktypst.stage.write")
	assert.Contains(t, out, "error=boom")
}
