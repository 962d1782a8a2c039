package amqp

import (
	"encoding/json"
	"time"

	"spendview/internal/core"
)

// EventQueryExecuted is the event type and default routing key.
const EventQueryExecuted = "query.executed"

// QueryExecutedMessage is the audit record for one render pass.
// It never includes credentials or the connection string.
type QueryExecutedMessage struct {
	Event      string    `json:"event"`
	Label      string    `json:"label"`
	Slug       string    `json:"slug"`
	Rows       int       `json:"rows"`
	Columns    int       `json:"columns"`
	DurationMs int64     `json:"duration_ms"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executed_at"`
}

func NewQueryExecutedMessage(ev core.QueryEvent) *QueryExecutedMessage {
	executedAt := ev.ExecutedAt
	if executedAt.IsZero() {
		executedAt = time.Now().UTC()
	}
	return &QueryExecutedMessage{
		Event:      EventQueryExecuted,
		Label:      ev.Label,
		Slug:       ev.Slug,
		Rows:       ev.Rows,
		Columns:    ev.Columns,
		DurationMs: ev.Duration.Milliseconds(),
		Success:    ev.Success,
		Error:      ev.Error,
		ExecutedAt: executedAt,
	}
}

// ToJSON converts the message to JSON bytes
func (m *QueryExecutedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// QueryExecutedMessageFromJSON decodes a message published by PublishQueryExecuted
func QueryExecutedMessageFromJSON(data []byte) (*QueryExecutedMessage, error) {
	var msg QueryExecutedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
