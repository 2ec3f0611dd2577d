package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"go.uber.org/zap"
)

type ActivityRepository struct {
	db     DB
	logger *zap.Logger
}

func NewActivityRepository(db DB, logger *zap.Logger) *ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger.Named("ActivityRepository"),
	}
}

var _ activity.Repository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Insert(ctx context.Context, log *activity.Log) (*activity.Log, error) {
	query := `
        INSERT INTO activity_logs (user_id, action, details, occurred_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id`

	saved := *log
	if err := r.db.QueryRow(ctx, query, log.UserID, log.Action, log.Details, log.Timestamp).Scan(&saved.ID); err != nil {
		r.logger.Error("Failed to insert activity log", zap.String("action", log.Action), zap.Error(err))
		return nil, mapError(err, "insert activity log")
	}
	return &saved, nil
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64) ([]*activity.Log, error) {
	query := `
        SELECT id, user_id, action, details, occurred_at
        FROM activity_logs
        WHERE user_id = $1
        ORDER BY occurred_at DESC, id DESC`
	return r.list(ctx, "list activity by user", query, userID)
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*activity.Log, error) {
	query := `
        SELECT id, user_id, action, details, occurred_at
        FROM activity_logs
        ORDER BY occurred_at DESC, id DESC
        LIMIT $1`
	return r.list(ctx, "list recent activity", query, limit)
}

func (r *ActivityRepository) list(ctx context.Context, op, query string, args ...any) ([]*activity.Log, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query activity logs", zap.String("op", op), zap.Error(err))
		return nil, mapError(err, op)
	}

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*activity.Log, error) {
		var l activity.Log
		if err := row.Scan(&l.ID, &l.UserID, &l.Action, &l.Details, &l.Timestamp); err != nil {
			return nil, err
		}
		l.Timestamp = l.Timestamp.UTC()
		return &l, nil
	})
	if err != nil {
		r.logger.Error("Failed to scan activity logs", zap.String("op", op), zap.Error(err))
		return nil, mapError(err, op)
	}
	return logs, nil
}
