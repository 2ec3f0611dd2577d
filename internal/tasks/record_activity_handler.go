package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"go.uber.org/zap"
)

type ActivitySaver interface {
	Save(ctx context.Context, ev activity.Event) error
}

type RecordActivityHandler struct {
	saver  ActivitySaver
	logger *zap.Logger
}

func NewRecordActivityHandler(saver ActivitySaver, logger *zap.Logger) *RecordActivityHandler {
	return &RecordActivityHandler{
		saver:  saver,
		logger: logger.Named("RecordActivityHandler"),
	}
}

func (h *RecordActivityHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	if t.Type() != TypeActivityRecord {
		return fmt.Errorf("unexpected task type: %s: %w", t.Type(), asynq.SkipRetry)
	}

	var p RecordActivityPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		h.logger.Error("Failed to unmarshal payload for activity task", zap.Error(err), zap.ByteString("payload", t.Payload()))
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	if err := h.saver.Save(ctx, p.Event()); err != nil {
		if errors.Is(err, ierr.ErrInvalidRequest) {
			h.logger.Warn("Dropping invalid activity event", zap.String("action", p.Action), zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to save activity: %w", err)
	}

	h.logger.Debug("Activity task processed", zap.String("action", p.Action))
	return nil
}
