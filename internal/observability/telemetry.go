package observability

import (
	"context"
	"time"

	"github.com/annel0/botplanner/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/botplanner"

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	// OTLP HTTP экспортер (по умолчанию localhost:4318)
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (OTLP → 4318, service=%s)", serviceName)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// Tracer трассировщик симулятора из глобального провайдера.
// Без InitTelemetry спаны не записываются.
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartTick открывает спан одного тика мира
func StartTick(ctx context.Context, tick int64, bots int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "world.tick", trace.WithAttributes(
		attribute.Int64("tick", tick),
		attribute.Int("bots", bots),
	))
}

// TickStats итоги тика для атрибутов спана
type TickStats struct {
	PlansBuilt   int
	CachedFrames int
	Rollbacks    int
	DummyPlans   int
}

// EndTick записывает итоги тика и закрывает спан
func EndTick(span trace.Span, stats TickStats) {
	span.SetAttributes(
		attribute.Int("plans.built", stats.PlansBuilt),
		attribute.Int("plans.cached", stats.CachedFrames),
		attribute.Int("plans.rollbacks", stats.Rollbacks),
		attribute.Int("plans.dummy", stats.DummyPlans),
	)
	span.End()
}
