package service

import (
	"context"
	"fmt"

	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/domain/channel"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"go.uber.org/zap"
)

// ChannelService manages the channels each user tracks. Only the owner of a
// channel may change or remove it.
type ChannelService struct {
	repo     channel.Repository
	recorder activity.Recorder
	clock    clock.Clock
	logger   *zap.Logger
}

func NewChannelService(repo channel.Repository, recorder activity.Recorder, clk clock.Clock, logger *zap.Logger) *ChannelService {
	if recorder == nil {
		recorder = activity.NopRecorder{}
	}
	if clk == nil {
		clk = clock.Real{}
	}
	return &ChannelService{
		repo:     repo,
		recorder: recorder,
		clock:    clk,
		logger:   logger.Named("ChannelService"),
	}
}

func (s *ChannelService) Add(ctx context.Context, userID int64, name string) (*channel.Channel, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ierr.ErrInvalidRequest)
	}
	name, err := channel.NormalizeName(name)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, &channel.Channel{UserID: userID, Name: name})
	if err != nil {
		s.logger.Error("Failed to add tracked channel", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("repository error adding channel: %w", err)
	}

	s.recorder.Record(ctx, activity.Event{
		ActorID:    activity.Actor(userID),
		Action:     activity.ActionChannelAdded,
		Details:    fmt.Sprintf("Added channel to track: %s", created.Name),
		OccurredAt: s.clock.Now(),
	})
	s.logger.Info("Channel tracked", zap.Int64("id", created.ID), zap.Int64("user_id", userID))
	return created, nil
}

func (s *ChannelService) ListForUser(ctx context.Context, userID int64) ([]*channel.Channel, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ierr.ErrInvalidRequest)
	}
	channels, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list tracked channels", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("repository error listing channels: %w", err)
	}
	return channels, nil
}

// Update applies patch to a channel owned by userID. The activity entry names
// the channel as it was before the change.
func (s *ChannelService) Update(ctx context.Context, userID, id int64, patch channel.Patch) (*channel.Channel, error) {
	patch, err := patch.Normalize()
	if err != nil {
		return nil, err
	}
	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		s.logger.Error("Failed to update tracked channel", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}

	s.recorder.Record(ctx, activity.Event{
		ActorID:    activity.Actor(userID),
		Action:     activity.ActionChannelUpdated,
		Details:    fmt.Sprintf("Updated channel: %s", current.Name),
		OccurredAt: s.clock.Now(),
	})
	return updated, nil
}

func (s *ChannelService) Remove(ctx context.Context, userID, id int64) error {
	current, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to remove tracked channel", zap.Int64("id", id), zap.Error(err))
		return err
	}

	s.recorder.Record(ctx, activity.Event{
		ActorID:    activity.Actor(userID),
		Action:     activity.ActionChannelRemoved,
		Details:    fmt.Sprintf("Removed channel from tracking: %s", current.Name),
		OccurredAt: s.clock.Now(),
	})
	s.logger.Info("Channel untracked", zap.Int64("id", id), zap.Int64("user_id", userID))
	return nil
}

func (s *ChannelService) owned(ctx context.Context, userID, id int64) (*channel.Channel, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ierr.ErrInvalidRequest)
	}
	if id <= 0 {
		return nil, fmt.Errorf("%w: invalid channel id", ierr.ErrInvalidRequest)
	}

	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		s.logger.Warn("Channel access denied", zap.Int64("id", id), zap.Int64("user_id", userID))
		return nil, fmt.Errorf("%w: channel %d belongs to another user", ierr.ErrForbidden, id)
	}
	return current, nil
}
