package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type and subject literals for trade lifecycle events.
const (
	EventTypeTradeCreated = "trade.created.v1"
	EventSubjectTrades    = "/trades"
	EventSchemaVersion    = "1.0"
)

// Envelope is the canonical event envelope.
// All messages published to NATS must follow this format.
type Envelope struct {
	ID            uuid.UUID       `json:"id"`
	CorrelationID uuid.UUID       `json:"correlation_id"`
	Subject       string          `json:"subject"`
	EventType     string          `json:"event_type"`
	Version       string          `json:"version"`
	Timestamp     time.Time       `json:"timestamp"`
	Payload       json.RawMessage `json:"payload"`
}

// NewTradeCreatedEnvelope wraps a persisted trade (id already assigned) in a
// trade.created.v1 envelope stamped with the publish time.
func NewTradeCreatedEnvelope(trade Trade) (*Envelope, error) {
	payload, err := json.Marshal(trade)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:            uuid.New(),
		CorrelationID: uuid.New(),
		Subject:       EventSubjectTrades,
		EventType:     EventTypeTradeCreated,
		Version:       EventSchemaVersion,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}, nil
}
