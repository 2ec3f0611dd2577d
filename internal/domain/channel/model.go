package channel

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/makkenzo/license-dashboard-api/internal/ierr"
)

const MaxNameLength = 64

// Channel is a streaming channel a user follows for watch-time rewards.
type Channel struct {
	ID                    int64     `db:"id" json:"id"`
	UserID                int64     `db:"user_id" json:"user_id"`
	Name                  string    `db:"channel_name" json:"channel_name"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
	LastActive            time.Time `db:"last_active" json:"last_active"`
	TotalPointsEarned     int64     `db:"total_points_earned" json:"total_points_earned"`
	TotalWatchTimeMinutes int64     `db:"total_watch_time_minutes" json:"total_watch_time_minutes"`
}

func (c *Channel) Clone() *Channel {
	cp := *c
	return &cp
}

// Apply copies the set fields of p onto c. p must already be normalized.
func (c *Channel) Apply(p Patch) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.LastActive != nil {
		c.LastActive = *p.LastActive
	}
	if p.TotalPointsEarned != nil {
		c.TotalPointsEarned = *p.TotalPointsEarned
	}
	if p.TotalWatchTimeMinutes != nil {
		c.TotalWatchTimeMinutes = *p.TotalWatchTimeMinutes
	}
}

// Patch lists the fields an owner may change. Nil fields are left alone.
type Patch struct {
	Name                  *string
	LastActive            *time.Time
	TotalPointsEarned     *int64
	TotalWatchTimeMinutes *int64
}

func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.LastActive == nil && p.TotalPointsEarned == nil && p.TotalWatchTimeMinutes == nil
}

// Normalize trims the name and rejects values the store would refuse.
func (p Patch) Normalize() (Patch, error) {
	if p.Name != nil {
		name, err := NormalizeName(*p.Name)
		if err != nil {
			return p, err
		}
		p.Name = &name
	}
	if p.TotalPointsEarned != nil && *p.TotalPointsEarned < 0 {
		return p, fmt.Errorf("%w: total_points_earned must not be negative", ierr.ErrInvalidRequest)
	}
	if p.TotalWatchTimeMinutes != nil && *p.TotalWatchTimeMinutes < 0 {
		return p, fmt.Errorf("%w: total_watch_time_minutes must not be negative", ierr.ErrInvalidRequest)
	}
	if p.LastActive != nil {
		at := p.LastActive.UTC()
		p.LastActive = &at
	}
	return p, nil
}

func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: channel name is required", ierr.ErrInvalidRequest)
	}
	if len(name) > MaxNameLength {
		return "", fmt.Errorf("%w: channel name must be at most %d characters", ierr.ErrInvalidRequest, MaxNameLength)
	}
	return name, nil
}

type Repository interface {
	Insert(ctx context.Context, ch *Channel) (*Channel, error)
	FindByID(ctx context.Context, id int64) (*Channel, error)
	ListByUser(ctx context.Context, userID int64) ([]*Channel, error)
	Update(ctx context.Context, id int64, patch Patch) (*Channel, error)
	Delete(ctx context.Context, id int64) error
}
