package codec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/camel/internal/registry"
	"github.com/zjrosen/camel/internal/tracing"
)

func tracedCodec(t *testing.T) (*Codec, *tracetest.SpanRecorder) {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return New([]*registry.Registry{gameTypes(t)}, WithTracer(tp.Tracer("test"))), recorder
}

func eventNames(span sdktrace.ReadOnlySpan) []string {
	var names []string
	for _, ev := range span.Events() {
		names = append(names, ev.Name)
	}
	return names
}

func TestTracing_LoadEvents(t *testing.T) {
	c, recorder := tracedCodec(t)

	_, err := c.LoadContext(context.Background(), "!table;2 {height: 1, width: 2}")
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, tracing.SpanLoad, spans[0].Name())
	require.Equal(t, []string{
		tracing.EventTagParsed,
		tracing.EventVersionMatched,
		tracing.EventConstructorInvoked,
	}, eventNames(spans[0]))
	require.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestTracing_LoadFailureStopsAtTag(t *testing.T) {
	c, recorder := tracedCodec(t)

	_, err := c.Load("!table;7 {size: 1}")
	require.ErrorIs(t, err, registry.ErrUnknownVersion)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	require.Equal(t, codes.Error, spans[0].Status().Code)
	names := eventNames(spans[0])
	require.Equal(t, tracing.EventTagParsed, names[0])
	require.NotContains(t, names, tracing.EventVersionMatched)
}

func TestTracing_DumpAttributes(t *testing.T) {
	c, recorder := tracedCodec(t)

	_, err := c.DumpContext(context.Background(), roll{Count: 1, Sides: 6})
	require.NoError(t, err)
	_, err = c.DumpAll(1, 2, 3)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	require.Equal(t, tracing.SpanDump, spans[0].Name())
	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	require.Equal(t, "codec.roll", attrs[tracing.AttrType])
	require.Equal(t, []string{tracing.EventRepresenterInvoked}, eventNames(spans[0]))

	require.Equal(t, tracing.SpanDumpAll, spans[1].Name())
	require.Contains(t, spans[1].Attributes(), attribute.Int(tracing.AttrDocuments, 3))
}
