package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// setupTracing exports run spans as JSON to path. The returned shutdown
// flushes pending spans and closes the file.
func setupTracing(path string) (trace.Tracer, func(context.Context) error, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create trace file: %w", err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(file), stdouttrace.WithPrettyPrint())
	if err != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("create trace exporter: %w", err)
	}
	provider := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	shutdown := func(ctx context.Context) error {
		return errors.Join(provider.Shutdown(ctx), file.Close())
	}
	return provider.Tracer("editbench/runner"), shutdown, nil
}
