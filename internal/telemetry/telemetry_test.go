package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/mauv0809/riichi-ledger/internal/apperr"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestRun(t *testing.T) {
	tracer := noop.NewTracerProvider().Tracer("test")
	ctx := context.Background()

	got, err := Run(ctx, tracer, "Test.Success", "id", func(ctx context.Context) (int, error) {
		return 42, nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 42, got)

	_, err = Run(ctx, tracer, "Test.Refused", "id", func(ctx context.Context) (int, error) {
		return 0, apperr.Precondition("nope")
	})
	assert.Equal(t, apperr.FailedPrecondition, apperr.CodeOf(err))

	boom := errors.New("boom")
	_, err = Run(ctx, nil, "Test.Internal", "id", func(ctx context.Context) (string, error) {
		return "", boom
	})
	assert.ErrorIs(t, err, boom)
}
