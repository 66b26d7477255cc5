package telemetry

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/mauv0809/riichi-ledger"

// Tracer returns the tracer of the global provider. Without a configured
// provider every span is a no-op.
func Tracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

// Run executes fn inside a span named operation. Business errors are
// recorded on the span and logged at Debug; anything else is logged at Error.
func Run[T any](ctx context.Context, tracer trace.Tracer, operation, identifier string, fn func(ctx context.Context) (T, error)) (T, error) {
	var span trace.Span
	if tracer != nil {
		ctx, span = tracer.Start(ctx, operation, trace.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		code := apperr.CodeOf(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.MessageOf(err))
		span.SetAttributes(attribute.String("error.code", string(code)))
		if code == apperr.Internal {
			log.Error("Operation failed", "operation", operation, "identifier", identifier, "error", err)
		} else {
			log.Debug("Operation refused", "operation", operation, "identifier", identifier, "code", code, "message", apperr.MessageOf(err))
		}
	}
	return result, err
}
