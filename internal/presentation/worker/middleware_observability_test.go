package workerpresentation

import (
	"context"
	"testing"

	"github.com/Zhima-Mochi/jewelry-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/jewelry-checkout/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithEventContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	base := zaplogger.Wrap(zap.New(core))

	ctx := WithEventContext(context.Background(), base, "order.placed", map[string]string{
		"event_id": "evt-1",
		"order_id": "o1",
		"empty":    "",
	})
	logger := logctx.From(ctx)
	require.NotNil(t, logger)
	logger.Info("handled")

	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "order.placed", fields["event"])
	assert.Equal(t, "evt-1", fields["event_id"])
	assert.Equal(t, "o1", fields["order_id"])
	assert.NotContains(t, fields, "empty")
	assert.NotContains(t, fields, "trace_id")
}

func TestWithEventContext_GeneratesEventID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithEventContext(context.Background(), zaplogger.Wrap(zap.New(core)), "x", nil)
	logctx.From(ctx).Info("handled")

	assert.NotEmpty(t, logs.All()[0].ContextMap()["event_id"])
}
