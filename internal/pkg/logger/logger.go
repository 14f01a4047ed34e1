package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var root zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	root = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init names the service in every log line and applies the configured level.
// Call once from bootstrap before anything logs.
func Init(serviceName, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	root = zerolog.New(os.Stdout).Level(lvl).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Logger returns the process-wide logger.
func Logger() *zerolog.Logger {
	return &root
}

// Ctx returns the root logger enriched with the trace and span ids of the
// active span, so log lines can be joined with Jaeger traces.
func Ctx(ctx context.Context) *zerolog.Logger {
	span := trace.SpanContextFromContext(ctx)
	if !span.IsValid() {
		return &root
	}
	l := root.With().
		Str("trace_id", span.TraceID().String()).
		Str("span_id", span.SpanID().String()).
		Logger()
	return &l
}
