package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"dsakyc/internal/kyc/tracer"
)

func TestNoopTracer(t *testing.T) {
	tr := tracer.NewNoop()
	ctx := context.Background()

	newCtx, span := tr.Start(ctx, tracer.SpanVerifyBank, tracer.String(tracer.AttrApplicationID, "app-1"))
	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)

	span.SetAttributes(tracer.Float64(tracer.AttrSimilarity, 0.9))
	span.AddEvent(tracer.EventReviewFlagged, tracer.String(tracer.AttrReason, "NAME_MISMATCH"))
	span.End(errors.New("boom"))
}

func TestOTelTracerWithNoopProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanVerifyPan,
		tracer.String("s", "v"),
		tracer.Bool("b", true),
		tracer.Int64("i", 1),
		tracer.Float64("f", 0.5),
	)
	require.NotNil(t, span)
	span.End(nil)
}

func TestDurationAttribute(t *testing.T) {
	attr := tracer.Duration("latency", 150*time.Millisecond)
	assert.Equal(t, int64(150), attr.Value)
}
