package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/makkenzo/license-dashboard-api/internal/domain/channel"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"go.uber.org/zap"
)

const channelColumns = `
            id, user_id, channel_name, created_at, last_active,
            total_points_earned, total_watch_time_minutes`

type ChannelRepository struct {
	db     DB
	logger *zap.Logger
}

func NewChannelRepository(db DB, logger *zap.Logger) *ChannelRepository {
	return &ChannelRepository{
		db:     db,
		logger: logger.Named("ChannelRepository"),
	}
}

var _ channel.Repository = (*ChannelRepository)(nil)

func (r *ChannelRepository) Insert(ctx context.Context, ch *channel.Channel) (*channel.Channel, error) {
	query := `
        INSERT INTO tracked_channels (user_id, channel_name)
        VALUES ($1, $2)
        RETURNING` + channelColumns

	rec, err := scanChannel(r.db.QueryRow(ctx, query, ch.UserID, ch.Name))
	if err != nil {
		r.logger.Error("Failed to insert tracked channel", zap.Int64("user_id", ch.UserID), zap.Error(err))
		return nil, mapError(err, "insert tracked channel")
	}
	return rec, nil
}

func (r *ChannelRepository) FindByID(ctx context.Context, id int64) (*channel.Channel, error) {
	query := `SELECT` + channelColumns + `
        FROM tracked_channels
        WHERE id = $1`

	rec, err := scanChannel(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "find tracked channel")
	}
	return rec, nil
}

func (r *ChannelRepository) ListByUser(ctx context.Context, userID int64) ([]*channel.Channel, error) {
	query := `SELECT` + channelColumns + `
        FROM tracked_channels
        WHERE user_id = $1
        ORDER BY id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to query tracked channels", zap.Int64("user_id", userID), zap.Error(err))
		return nil, mapError(err, "list tracked channels")
	}

	channels, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*channel.Channel, error) {
		return scanChannel(row)
	})
	if err != nil {
		r.logger.Error("Failed to scan tracked channels", zap.Int64("user_id", userID), zap.Error(err))
		return nil, mapError(err, "list tracked channels")
	}
	if channels == nil {
		channels = make([]*channel.Channel, 0)
	}
	return channels, nil
}

// Update writes the set fields of patch; nil fields keep their stored value.
func (r *ChannelRepository) Update(ctx context.Context, id int64, patch channel.Patch) (*channel.Channel, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	query := `
        UPDATE tracked_channels SET
            channel_name             = COALESCE($2::text, channel_name),
            last_active              = COALESCE($3::timestamptz, last_active),
            total_points_earned      = COALESCE($4::bigint, total_points_earned),
            total_watch_time_minutes = COALESCE($5::bigint, total_watch_time_minutes)
        WHERE id = $1
        RETURNING` + channelColumns

	row := r.db.QueryRow(ctx, query, id, patch.Name, patch.LastActive, patch.TotalPointsEarned, patch.TotalWatchTimeMinutes)
	rec, err := scanChannel(row)
	if err != nil {
		r.logger.Error("Failed to update tracked channel", zap.Int64("id", id), zap.Error(err))
		return nil, mapError(err, "update tracked channel")
	}
	return rec, nil
}

func (r *ChannelRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tracked_channels WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete tracked channel", zap.Int64("id", id), zap.Error(err))
		return mapError(err, "delete tracked channel")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: channel %d", ierr.ErrNotFound, id)
	}
	return nil
}

func scanChannel(row pgx.Row) (*channel.Channel, error) {
	var c channel.Channel
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Name,
		&c.CreatedAt,
		&c.LastActive,
		&c.TotalPointsEarned,
		&c.TotalWatchTimeMinutes,
	)
	if err != nil {
		return nil, err
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.LastActive = c.LastActive.UTC()
	return &c, nil
}
