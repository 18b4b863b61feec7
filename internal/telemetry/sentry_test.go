package telemetry

import (
	"context"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_EmptyDSNIsNoop(t *testing.T) {
	shutdown, err := Init(Config{})
	require.NoError(t, err)
	shutdown()
}

func TestStartStage_ChildOfIngestion(t *testing.T) {
	ctx, parent := StartIngestion(context.Background(), "Employé Congés.pdf")
	defer parent.End()
	require.NotNil(t, parent.inner)

	_, stage := StartStage(ctx, "pipeline.extract")
	defer stage.End()

	require.NotNil(t, stage.inner)
	assert.Equal(t, parent.inner.SpanID, stage.inner.ParentSpanID)
	assert.Equal(t, "pipeline.extract", stage.inner.Op)
}

func TestStartStage_WithoutParentStartsOwnTransaction(t *testing.T) {
	_, stage := StartStage(context.Background(), "pipeline.chunk")
	defer stage.End()

	require.NotNil(t, stage.inner)
	var empty sentry.SpanID
	assert.Equal(t, empty, stage.inner.ParentSpanID)
}

func TestSpan_NilInnerIsSafe(t *testing.T) {
	s := &Span{}
	s.End()
	s.SetError(assert.AnError)
	assert.Equal(t, context.Background(), s.Context())
}
