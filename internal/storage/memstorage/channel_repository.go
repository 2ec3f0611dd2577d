package memstorage

import (
	"context"
	"fmt"
	"sync"

	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/domain/channel"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
)

type ChannelRepository struct {
	mu       sync.RWMutex
	channels map[int64]*channel.Channel
	order    []int64
	nextID   int64
	clock    clock.Clock
}

func NewChannelRepository(clk clock.Clock) *ChannelRepository {
	if clk == nil {
		clk = clock.Real{}
	}
	return &ChannelRepository{
		channels: make(map[int64]*channel.Channel),
		nextID:   1,
		clock:    clk,
	}
}

var _ channel.Repository = (*ChannelRepository)(nil)

// Insert assigns the id and creation time. A new channel starts with zero
// totals and LastActive equal to CreatedAt.
func (r *ChannelRepository) Insert(ctx context.Context, ch *channel.Channel) (*channel.Channel, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now().UTC()
	rec := &channel.Channel{
		ID:         r.nextID,
		UserID:     ch.UserID,
		Name:       ch.Name,
		CreatedAt:  now,
		LastActive: now,
	}
	r.nextID++
	r.channels[rec.ID] = rec
	r.order = append(r.order, rec.ID)
	return rec.Clone(), nil
}

func (r *ChannelRepository) FindByID(ctx context.Context, id int64) (*channel.Channel, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d", ierr.ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (r *ChannelRepository) ListByUser(ctx context.Context, userID int64) ([]*channel.Channel, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*channel.Channel, 0)
	for _, id := range r.order {
		if rec, ok := r.channels[id]; ok && rec.UserID == userID {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (r *ChannelRepository) Update(ctx context.Context, id int64, patch channel.Patch) (*channel.Channel, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.channels[id]
	if !ok {
		return nil, fmt.Errorf("%w: channel %d", ierr.ErrNotFound, id)
	}
	rec.Apply(patch)
	return rec.Clone(), nil
}

func (r *ChannelRepository) Delete(ctx context.Context, id int64) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.channels[id]; !ok {
		return fmt.Errorf("%w: channel %d", ierr.ErrNotFound, id)
	}
	delete(r.channels, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
