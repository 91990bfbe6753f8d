package otelcol

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/fx"

	"construyo-opshub/pkg/config"
	"construyo-opshub/pkg/otelcol/exporters"
)

var Module = fx.Module("otel",
	fx.Provide(exporters.ProvideGrpc, ProvideTrace),
	fx.Invoke(registerTracerProvider),
)

func ProvideTrace(cfg *config.Config, exporter *otlptrace.Exporter) *trace.TracerProvider {
	res, _ := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.AppName),
		attribute.String("env", cfg.AppEnv),
	))

	return trace.NewTracerProvider(
		trace.WithResource(res),
		trace.WithBatcher(exporter),
	)
}

func registerTracerProvider(lc fx.Lifecycle, tp *trace.TracerProvider) {
	otel.SetTracerProvider(tp)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return tp.Shutdown(ctx)
		},
	})
}
