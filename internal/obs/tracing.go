// Package obs はOpenTelemetryによるトレーシングの初期化を提供する。
package obs

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName はトレースのリソース属性に設定するサービス名。
const ServiceName = "garagesale"

// instrumentationName はサービス層のspanを発行するトレーサー名。
const instrumentationName = "github.com/hitoshi/garagesale"

// ShutdownFunc は未送信のspanをフラッシュしてプロバイダを停止する関数。
type ShutdownFunc func(context.Context) error

// Setup はOTLP/HTTPエクスポーターを使用するトレーサープロバイダを登録する。
// endpointが空の場合は何も登録せず、no-opの停止関数を返す。
// 返された停止関数は呼び出し元でdeferすること。
func Setup(ctx context.Context, endpoint string) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }

	if endpoint == "" {
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpointURL(endpoint),
	)
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
		),
	)
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tp.Shutdown, nil
}

// Tracer はサービス層で使用するトレーサーを返す。
// プロバイダ未登録の場合はno-opトレーサーになる。
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}
