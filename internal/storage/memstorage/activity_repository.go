package memstorage

import (
	"context"
	"sort"
	"sync"

	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
)

type ActivityRepository struct {
	mu     sync.RWMutex
	logs   []*activity.Log
	nextID int64
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{nextID: 1}
}

var _ activity.Repository = (*ActivityRepository)(nil)

func (r *ActivityRepository) Insert(ctx context.Context, log *activity.Log) (*activity.Log, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec := *log
	rec.ID = r.nextID
	r.nextID++
	r.logs = append(r.logs, &rec)

	out := rec
	return &out, nil
}

func (r *ActivityRepository) ListByUser(ctx context.Context, userID int64) ([]*activity.Log, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*activity.Log, 0)
	for _, l := range r.logs {
		if l.UserID != nil && *l.UserID == userID {
			c := *l
			out = append(out, &c)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*activity.Log, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*activity.Log, 0, len(r.logs))
	for _, l := range r.logs {
		c := *l
		out = append(out, &c)
	}
	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func sortNewestFirst(logs []*activity.Log) {
	sort.SliceStable(logs, func(i, j int) bool {
		if logs[i].Timestamp.Equal(logs[j].Timestamp) {
			return logs[i].ID > logs[j].ID
		}
		return logs[i].Timestamp.After(logs[j].Timestamp)
	})
}
