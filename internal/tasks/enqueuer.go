package tasks

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"go.uber.org/zap"
)

// TaskEnqueuer is the part of *asynq.Client the enqueuer needs.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// ActivityEnqueuer records activity by handing it to the worker queue.
// Enqueue failures are logged and the event is dropped.
type ActivityEnqueuer struct {
	client TaskEnqueuer
	queue  string
	logger *zap.Logger
}

func NewActivityEnqueuer(client TaskEnqueuer, queue string, logger *zap.Logger) *ActivityEnqueuer {
	if queue == "" {
		queue = DefaultQueue
	}
	return &ActivityEnqueuer{
		client: client,
		queue:  queue,
		logger: logger.Named("ActivityEnqueuer"),
	}
}

var _ activity.Recorder = (*ActivityEnqueuer)(nil)

func (e *ActivityEnqueuer) Record(ctx context.Context, ev activity.Event) {
	task, err := NewRecordActivityTask(ev, asynq.Queue(e.queue))
	if err != nil {
		e.logger.Warn("Failed to build activity task", zap.String("action", ev.Action), zap.Error(err))
		return
	}

	info, err := e.client.EnqueueContext(ctx, task)
	if err != nil {
		e.logger.Warn("Failed to enqueue activity task", zap.String("action", ev.Action), zap.Error(err))
		return
	}
	e.logger.Debug("Activity task enqueued", zap.String("task_id", info.ID), zap.String("queue", info.Queue))
}
