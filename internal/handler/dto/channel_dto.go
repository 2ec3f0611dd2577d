package dto

import (
	"time"

	"github.com/makkenzo/license-dashboard-api/internal/domain/channel"
)

type CreateChannelRequest struct {
	ChannelName string `json:"channel_name" binding:"required,max=64"`
}

// UpdateChannelRequest carries a partial update; omitted fields keep their
// stored values.
type UpdateChannelRequest struct {
	ChannelName           *string    `json:"channel_name" binding:"omitempty,min=1,max=64"`
	LastActive            *time.Time `json:"last_active"`
	TotalPointsEarned     *int64     `json:"total_points_earned" binding:"omitempty,gte=0"`
	TotalWatchTimeMinutes *int64     `json:"total_watch_time_minutes" binding:"omitempty,gte=0"`
}

func (r UpdateChannelRequest) Patch() channel.Patch {
	return channel.Patch{
		Name:                  r.ChannelName,
		LastActive:            r.LastActive,
		TotalPointsEarned:     r.TotalPointsEarned,
		TotalWatchTimeMinutes: r.TotalWatchTimeMinutes,
	}
}

type ChannelIDParam struct {
	ID int64 `uri:"id" binding:"required,gte=1"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
