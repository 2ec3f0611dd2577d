package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: DefaultQueue, Type: task.Type()}, nil
}

type fakeSaver struct {
	events []activity.Event
	err    error
}

func (f *fakeSaver) Save(_ context.Context, ev activity.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, ev)
	return nil
}

func TestEnqueuedActivityIsSavedByHandler(t *testing.T) {
	enq := &fakeEnqueuer{}
	recorder := NewActivityEnqueuer(enq, "", zap.NewNop())

	at := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	ev := activity.Event{
		ActorID:    activity.Actor(42),
		Action:     activity.ActionLicenseActivated,
		Details:    "License key activated: TEST-AAAA-BBBB-CCCC",
		OccurredAt: at,
	}
	recorder.Record(context.Background(), ev)
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, TypeActivityRecord, enq.tasks[0].Type())

	saver := &fakeSaver{}
	handler := NewRecordActivityHandler(saver, zap.NewNop())
	require.NoError(t, handler.ProcessTask(context.Background(), enq.tasks[0]))

	require.Len(t, saver.events, 1)
	got := saver.events[0]
	assert.Equal(t, ev.Action, got.Action)
	assert.Equal(t, ev.Details, got.Details)
	assert.Equal(t, int64(42), *got.ActorID)
	assert.True(t, at.Equal(got.OccurredAt))
}

func TestEnqueueFailureIsSwallowed(t *testing.T) {
	enq := &fakeEnqueuer{err: errors.New("redis: connection refused")}
	recorder := NewActivityEnqueuer(enq, "activity", zap.NewNop())

	assert.NotPanics(t, func() {
		recorder.Record(context.Background(), activity.Event{Action: activity.ActionKeyRevoked})
	})
	assert.Empty(t, enq.tasks)
}

func TestHandlerSkipsRetryForBadInput(t *testing.T) {
	handler := NewRecordActivityHandler(&fakeSaver{}, zap.NewNop())

	err := handler.ProcessTask(context.Background(), asynq.NewTask("other:type", nil))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = handler.ProcessTask(context.Background(), asynq.NewTask(TypeActivityRecord, []byte("{not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	invalid := NewRecordActivityHandler(&fakeSaver{err: ierr.ErrInvalidRequest}, zap.NewNop())
	task, err := NewRecordActivityTask(activity.Event{Action: ""})
	require.NoError(t, err)
	assert.ErrorIs(t, invalid.ProcessTask(context.Background(), task), asynq.SkipRetry)
}

func TestHandlerRetriesStoreFailures(t *testing.T) {
	handler := NewRecordActivityHandler(&fakeSaver{err: ierr.ErrDependency}, zap.NewNop())
	task, err := NewRecordActivityTask(activity.Event{Action: activity.ActionKeysGenerated})
	require.NoError(t, err)

	err = handler.ProcessTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, ierr.ErrDependency)
}
