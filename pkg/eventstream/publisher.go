package eventstream

import "context"

// Publisher publishes memory events to an event stream backend.
type Publisher interface {
	PublishTurnStored(ctx context.Context, event *TurnStoredEvent) error
	Close() error
}
