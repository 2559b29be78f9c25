package logctx

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/minishop-cart/internal/observability"
	"github.com/stretchr/testify/assert"
)

type recordingLogger struct {
	observability.Logger
	fields []observability.Field
}

func (r *recordingLogger) With(fields ...observability.Field) observability.Logger {
	return &recordingLogger{Logger: r.Logger, fields: append(append([]observability.Field(nil), r.fields...), fields...)}
}

func TestFromOr(t *testing.T) {
	fallback := observability.NopLogger()
	assert.Equal(t, fallback, FromOr(context.Background(), fallback))
	assert.Nil(t, From(context.Background()))

	stored := &recordingLogger{Logger: observability.NopLogger()}
	ctx := With(context.Background(), stored)
	assert.Same(t, stored, From(ctx))
	assert.Same(t, stored, FromOr(ctx, fallback))
}

func TestWithNilLoggerKeepsContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, ctx, With(ctx, nil))
}

func TestEnrich(t *testing.T) {
	base := &recordingLogger{Logger: observability.NopLogger()}
	ctx, logger := Enrich(context.Background(), base, observability.F("cart_id", "c1"))

	got, ok := logger.(*recordingLogger)
	if assert.True(t, ok) {
		assert.Equal(t, []observability.Field{observability.F("cart_id", "c1")}, got.fields)
	}
	assert.Same(t, logger, From(ctx))

	_, nested := Enrich(ctx, nil, observability.F("use_case", "cart.open"))
	assert.Len(t, nested.(*recordingLogger).fields, 2)
}
