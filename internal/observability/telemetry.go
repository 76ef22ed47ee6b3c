package observability

import (
	"context"
	"time"

	"github.com/annel0/codecity/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// sampleRatio — доля трассируемых корневых запросов. Пикинг и ввод
// камеры приходят с частотой тика; трассировать каждый незачем, а
// редкие рескан/логин всё равно попадают в выборку через родительский
// контекст.
const sampleRatio = 0.1

// shutdownTimeout ограничивает досброс батчера при остановке сервера
const shutdownTimeout = 5 * time.Second

// InitTelemetry поднимает OTLP-экспортер (HTTP, по умолчанию
// localhost:4318) и ставит глобальный TracerProvider для спанов
// пикинга, рескана и камеры. Возвращённый shutdown нужно вызвать при
// завершении, иначе хвост батча теряется.
func InitTelemetry(ctx context.Context, serviceName string) (func(context.Context) error, error) {
	exp, err := otlptracehttp.New(ctx)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceNamespace("codecity"),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(sampleRatio))),
		trace.WithBatcher(exp),
		trace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	logging.Info("📡 Трассировка включена (OTLP → 4318, service=%s, sample=%.0f%%)", serviceName, sampleRatio*100)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}
