package events

import (
	"encoding/json"
	"fmt"
	"time"
)

const eventVersion = 1

// EventEnvelope represents the shared envelope for v1 contracts.
type EventEnvelope struct {
	EventName     string          `json:"eventName"`
	EventVersion  int             `json:"eventVersion"`
	EventID       string          `json:"eventId"`
	CorrelationID string          `json:"correlationId,omitempty"`
	CausationID   string          `json:"causationId,omitempty"`
	Producer      string          `json:"producer"`
	PartitionKey  string          `json:"partitionKey"`
	Sequence      int64           `json:"sequence,omitempty"`
	OccurredAt    time.Time       `json:"occurredAt"`
	Schema        string          `json:"schema"`
	Payload       json.RawMessage `json:"payload"`
}

func (e EventEnvelope) Validate(expectedName string, expectedVersion int) error {
	if e.EventName != expectedName {
		return fmt.Errorf("unexpected eventName %q", e.EventName)
	}
	if e.EventVersion != expectedVersion {
		return fmt.Errorf("unexpected eventVersion %d", e.EventVersion)
	}
	if e.PartitionKey == "" {
		return fmt.Errorf("missing partitionKey")
	}
	if e.EventID == "" {
		return fmt.Errorf("missing eventId")
	}
	return nil
}

// ParseEnvelope decodes an enveloped message, leaving the payload raw.
func ParseEnvelope(body []byte) (EventEnvelope, error) {
	var env EventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return EventEnvelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

func newEnvelope(name, schema, producer string, meta EventMeta, seq int64, occurredAt time.Time) EventEnvelope {
	return EventEnvelope{
		EventName:     name,
		EventVersion:  eventVersion,
		EventID:       newEventID(),
		CorrelationID: meta.CorrelationID,
		CausationID:   meta.CausationID,
		Producer:      producer,
		PartitionKey:  meta.PartitionKey,
		Sequence:      seq,
		OccurredAt:    occurredAt,
		Schema:        schema,
	}
}
