package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
)

const (
	TypeActivityRecord = "activity:record"

	DefaultQueue    = "activity"
	DefaultMaxRetry = 5
)

type RecordActivityPayload struct {
	ActorID    *int64    `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	Details    string    `json:"details"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (p RecordActivityPayload) Event() activity.Event {
	return activity.Event{
		ActorID:    p.ActorID,
		Action:     p.Action,
		Details:    p.Details,
		OccurredAt: p.OccurredAt,
	}
}

func NewRecordActivityTask(ev activity.Event, opts ...asynq.Option) (*asynq.Task, error) {
	payload := RecordActivityPayload{
		ActorID:    ev.ActorID,
		Action:     ev.Action,
		Details:    ev.Details,
		OccurredAt: ev.OccurredAt.UTC(),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	allOpts := append([]asynq.Option{asynq.MaxRetry(DefaultMaxRetry)}, opts...)
	return asynq.NewTask(TypeActivityRecord, payloadBytes, allOpts...), nil
}
