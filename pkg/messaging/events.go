package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	// Import run lifecycle events
	EventImportCompleted = "payroll.import.completed"
	EventImportFailed    = "payroll.import.failed"
)

// Exchange names
const (
	ExchangePayrollEvents = "payroll.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            uuid.New().String(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// ImportCompletedEvent is published when an import run finishes, even when
// some rows failed. FailedCount > 0 with Success true means row-level
// failures only; Success false means the run itself aborted.
type ImportCompletedEvent struct {
	RunID        string    `json:"run_id"`
	PeriodID     string    `json:"period_id"`
	DataGroups   []string  `json:"data_groups"`
	Mode         string    `json:"mode"`
	TotalRows    int       `json:"total_rows"`
	SuccessCount int       `json:"success_count"`
	FailedCount  int       `json:"failed_count"`
	SkippedCount int       `json:"skipped_count"`
	Success      bool      `json:"success"`
	FinishedAt   time.Time `json:"finished_at"`
}

// ImportFailedEvent is published when an import run aborts before producing
// a usable result (for example, the store was unreachable).
type ImportFailedEvent struct {
	RunID    string `json:"run_id"`
	PeriodID string `json:"period_id"`
	Reason   string `json:"reason"`
}
