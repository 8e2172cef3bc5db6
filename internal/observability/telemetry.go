package observability

import (
	"context"
	"time"

	"github.com/annel0/overworld/internal/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/annel0/overworld"

// TelemetryOptions параметры трассировки тиков
type TelemetryOptions struct {
	ServiceName string
	Endpoint    string // host:port OTLP/HTTP, пусто - переменные OTEL_* или localhost:4318
	Insecure    bool
	// SampleRatio доля записываемых тиков. При 60 тиках в секунду полная
	// запись быстро переполняет коллектор.
	SampleRatio float64
	TickRate    int
}

// InitTelemetry устанавливает глобальный TracerProvider с OTLP экспортером.
// Возвращённый shutdown сбрасывает накопленные спаны.
func InitTelemetry(ctx context.Context, opts TelemetryOptions) (func(context.Context) error, error) {
	var expOpts []otlptracehttp.Option
	if opts.Endpoint != "" {
		expOpts = append(expOpts, otlptracehttp.WithEndpoint(opts.Endpoint))
	}
	if opts.Insecure {
		expOpts = append(expOpts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, expOpts...)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceName(opts.ServiceName),
			attribute.Int("overworld.tick_rate", opts.TickRate),
		),
	)
	if err != nil {
		return nil, err
	}

	ratio := opts.SampleRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 1
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(ratio))),
	)
	otel.SetTracerProvider(tp)
	logging.Info("📡 Трассировка включена: service=%s endpoint=%q sample=%.2f", opts.ServiceName, opts.Endpoint, ratio)

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}, nil
}

// Tracer трассировщик симуляции; до InitTelemetry работает no-op провайдер
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
