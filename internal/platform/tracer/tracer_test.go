package tracer_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"vaultledger/internal/platform/tracer"
)

func TestNoopTracer(t *testing.T) {
	ctx := context.Background()
	newCtx, span := tracer.NewNoop().Start(ctx, tracer.SpanAnchorRecord, tracer.String(tracer.AttrRecordID, "r1"))

	assert.Equal(t, ctx, newCtx)
	require.NotNil(t, span)
	assert.NotPanics(t, func() {
		span.SetAttributes(tracer.Bool("x", true))
		span.AddEvent(tracer.EventStepCompleted, tracer.String(tracer.AttrStep, "encrypt"))
		span.End(errors.New("boom"))
	})
}

func TestOTelTracerWithInjectedProvider(t *testing.T) {
	tr := tracer.NewOTel(tracer.WithOTelTracer(noop.NewTracerProvider().Tracer("test")))

	_, span := tr.Start(context.Background(), tracer.SpanFetchRecord,
		tracer.String(tracer.AttrRecordID, "r1"),
		tracer.Int64("n", 3),
		tracer.Duration("wait", 2*time.Second),
	)
	assert.NotPanics(t, func() {
		span.SetAttributes(tracer.String(tracer.AttrContentID, "bafk"))
		span.End(nil)
	})
}

func TestHashActor(t *testing.T) {
	assert.Empty(t, tracer.HashActor(""))
	h := tracer.HashActor("did:example:alice")
	assert.Len(t, h, 16)
	assert.Equal(t, h, tracer.HashActor("did:example:alice"))
	assert.NotEqual(t, h, tracer.HashActor("did:example:bob"))
}
