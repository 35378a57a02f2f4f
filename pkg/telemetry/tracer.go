// Package telemetry настраивает OpenTelemetry трассировку вызова.
package telemetry

import (
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"

	"github.com/ilkoid/poncho-chat/pkg/utils"
)

// ServiceName — имя сервиса в ресурсах трассировки.
const ServiceName = "poncho-chat"

// InitTracer регистрирует глобальный TracerProvider со stdout экспортером.
//
// Спаны пишутся в w (stdout занят JSON результатом, поэтому CLI передаёт stderr).
// Возвращает функцию остановки, которая сбрасывает буфер экспортера.
func InitTracer(serviceName string, w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(
		stdouttrace.WithWriter(w),
		stdouttrace.WithPrettyPrint(),
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			"",
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)

	utils.Info("OpenTelemetry initialized", "service", serviceName)

	return tp.Shutdown, nil
}
