package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_CarriesPayloadAndCorrelation(t *testing.T) {
	payload := ImportCompletedEvent{
		RunID:        "run-1",
		PeriodID:     "p-2025-06",
		DataGroups:   []string{"earnings"},
		Mode:         "UPSERT",
		TotalRows:    5,
		SuccessCount: 3,
		FailedCount:  2,
		Success:      true,
	}

	event, err := NewEvent(EventImportCompleted, "payroll-service", "req-123", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventImportCompleted, event.Type)
	assert.Equal(t, "payroll-service", event.Source)
	assert.Equal(t, "req-123", event.CorrelationID)
	assert.False(t, event.Timestamp.IsZero())

	var decoded ImportCompletedEvent
	require.NoError(t, event.UnmarshalData(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestWithCorrelationID_ReadBackByPublisher(t *testing.T) {
	ctx := WithCorrelationID(context.Background(), "req-456")
	assert.Equal(t, "req-456", getCorrelationID(ctx))

	assert.Empty(t, getCorrelationID(context.Background()))
}
