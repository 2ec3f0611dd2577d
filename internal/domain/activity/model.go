package activity

import (
	"context"
	"time"
)

const (
	ActionKeysGenerated    = "keys_generated"
	ActionLicenseActivated = "license_activated"
	ActionKeyRevoked       = "key_revoked"

	ActionChannelAdded   = "channel_added"
	ActionChannelUpdated = "channel_updated"
	ActionChannelRemoved = "channel_removed"
)

// Event is a single audit record emitted by a state transition.
type Event struct {
	ActorID    *int64    `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Log is a persisted Event.
type Log struct {
	ID        int64     `db:"id" json:"id"`
	UserID    *int64    `db:"user_id" json:"user_id,omitempty"`
	Action    string    `db:"action" json:"action"`
	Details   string    `db:"details" json:"details"`
	Timestamp time.Time `db:"occurred_at" json:"timestamp"`
}

// Recorder accepts audit events. Implementations must not fail the caller:
// delivery problems are logged and dropped.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

type Repository interface {
	Insert(ctx context.Context, log *Log) (*Log, error)
	ListByUser(ctx context.Context, userID int64) ([]*Log, error)
	ListRecent(ctx context.Context, limit int) ([]*Log, error)
}

func Actor(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

// NopRecorder drops every event.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}
