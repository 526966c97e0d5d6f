package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTickSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		tp.Shutdown(context.Background())
	})

	_, span := StartTick(context.Background(), 42, 3)
	EndTick(span, TickStats{PlansBuilt: 2, CachedFrames: 1, Rollbacks: 5})

	ended := recorder.Ended()
	require.Len(t, ended, 1, "Спан тика должен быть закрыт")
	assert.Equal(t, "world.tick", ended[0].Name())

	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, int64(42), attrs["tick"].AsInt64())
	assert.Equal(t, int64(3), attrs["bots"].AsInt64())
	assert.Equal(t, int64(2), attrs["plans.built"].AsInt64())
	assert.Equal(t, int64(5), attrs["plans.rollbacks"].AsInt64())
	assert.Equal(t, int64(0), attrs["plans.dummy"].AsInt64())
}
