package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"go.uber.org/zap"
)

const (
	DefaultActivityLimit = 20
	MaxActivityLimit     = 100

	// DefaultRecordTimeout bounds a single background save started by Record.
	DefaultRecordTimeout = 5 * time.Second
)

// ActivityService persists audit events and serves the activity feeds.
// It is also the in-process activity.Recorder.
type ActivityService struct {
	repo          activity.Repository
	clock         clock.Clock
	logger        *zap.Logger
	recordTimeout time.Duration
	pending       sync.WaitGroup
}

func NewActivityService(repo activity.Repository, clk clock.Clock, logger *zap.Logger) *ActivityService {
	if clk == nil {
		clk = clock.Real{}
	}
	return &ActivityService{
		repo:          repo,
		clock:         clk,
		logger:        logger.Named("ActivityService"),
		recordTimeout: DefaultRecordTimeout,
	}
}

var _ activity.Recorder = (*ActivityService)(nil)

// Record saves ev in the background and swallows any failure. The save is
// detached from ctx cancellation and bounded by the record timeout, so a slow
// activity store never holds up the calling operation.
func (s *ActivityService) Record(ctx context.Context, ev activity.Event) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = s.clock.Now()
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.recordTimeout)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer cancel()
		if err := s.Save(saveCtx, ev); err != nil {
			s.logger.Warn("Failed to record activity", zap.String("action", ev.Action), zap.Error(err))
		}
	}()
}

// Wait blocks until every save started by Record has finished.
func (s *ActivityService) Wait() {
	s.pending.Wait()
}

// Save persists ev and reports failures, for callers that retry.
func (s *ActivityService) Save(ctx context.Context, ev activity.Event) error {
	action := strings.TrimSpace(ev.Action)
	if action == "" {
		return fmt.Errorf("%w: activity action is required", ierr.ErrInvalidRequest)
	}

	occurredAt := ev.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = s.clock.Now()
	}

	entry := &activity.Log{
		UserID:    ev.ActorID,
		Action:    action,
		Details:   ev.Details,
		Timestamp: occurredAt.UTC(),
	}
	saved, err := s.repo.Insert(ctx, entry)
	if err != nil {
		return fmt.Errorf("repository error saving activity: %w", err)
	}

	s.logger.Debug("Activity recorded", zap.Int64("id", saved.ID), zap.String("action", action))
	return nil
}

func (s *ActivityService) ListForUser(ctx context.Context, userID int64) ([]*activity.Log, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ierr.ErrInvalidRequest)
	}
	logs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list activity for user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("repository error listing activity: %w", err)
	}
	return logs, nil
}

// ListRecent returns the newest entries across all users. Non-positive limits
// select the default; limits above MaxActivityLimit are clamped.
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]*activity.Log, error) {
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	if limit > MaxActivityLimit {
		limit = MaxActivityLimit
	}
	logs, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to list recent activity", zap.Int("limit", limit), zap.Error(err))
		return nil, fmt.Errorf("repository error listing activity: %w", err)
	}
	return logs, nil
}
