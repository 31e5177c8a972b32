package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnStored is emitted after a conversation turn is
	// persisted to the memory graph.
	EventTypeTurnStored = "palace.turn.stored"
)

// TurnStoredEvent is a transport-neutral event payload for a stored
// conversation turn.
type TurnStoredEvent struct {
	SchemaVersion  int       `json:"schema_version"`
	EventType      string    `json:"event_type"`
	EventID        string    `json:"event_id"`
	EmittedAt      time.Time `json:"emitted_at"`
	ConversationID string    `json:"conversation_id"`
	TurnID         string    `json:"turn_id"`
	MemoryIDs      []string  `json:"memory_ids"`
	Salience       float64   `json:"salience,omitempty"`
}
