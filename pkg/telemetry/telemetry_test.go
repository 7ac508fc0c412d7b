package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestSetupWithoutEndpointIsNoop(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	p, err := Setup(context.Background(), Config{})
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NoError(t, p.Shutdown(context.Background()))

	p, err = Setup(context.Background(), Config{Disable: true, Endpoint: EndpointStdout})
	require.NoError(t, err)
	require.False(t, p.Enabled())

	var nilProvider *Provider
	require.NoError(t, nilProvider.Shutdown(context.Background()))
}

func TestSpansCarryAnswerAttributes(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := Start(context.Background(), "advisory.advise", KeyLanguage.String("hi"))
	RecordAnswer(span, "pipeline", 0.8)
	End(span, nil)

	_, failed := Start(context.Background(), "retrieval.source", KeyCategory.String("market"))
	End(failed, errors.New("boom"))
	End(nil, nil)

	spans := rec.Ended()
	require.Len(t, spans, 2)

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	require.Equal(t, "hi", attrs["agri.language"])
	require.Equal(t, "pipeline", attrs["agri.answer.origin"])
	require.InDelta(t, 0.8, attrs["agri.answer.confidence"], 1e-9)

	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Len(t, spans[1].Events(), 1)
}
