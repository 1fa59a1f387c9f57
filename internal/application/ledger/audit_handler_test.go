package ledger

import (
	"context"
	"testing"

	"github.com/genlab/backend/internal/domain/ledger"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditHandler_Handle(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewAuditHandler(zap.New(core))

	output := newOutput(t, uuid.New(), "7.25")
	require.NoError(t, h.Handle(context.Background(), ledger.NewOutputEvent(ledger.EventTypeOutputRecorded, output)))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "ledger movement", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, ledger.EventTypeOutputRecorded, fields["event_type"])
	assert.Equal(t, output.InputID.String(), fields["input_id"])
	assert.Equal(t, "7.25", fields["quantity_output"])
}

func TestAuditHandler_EventTypes(t *testing.T) {
	h := NewAuditHandler(nil)
	assert.Contains(t, h.EventTypes(), ledger.EventTypeBatchCompensated)
	assert.Contains(t, h.EventTypes(), ledger.EventTypeInputConsumptionChanged)
}
