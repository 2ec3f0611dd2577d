package service

import (
	"context"
	"testing"
	"time"

	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/domain/channel"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/makkenzo/license-dashboard-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newChannelEnv(t *testing.T) (*ChannelService, *recorderSpy, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(testEpoch)
	rec := &recorderSpy{}
	return NewChannelService(memstorage.NewChannelRepository(clk), rec, clk, zap.NewNop()), rec, clk
}

func TestChannelLifecycle(t *testing.T) {
	svc, rec, clk := newChannelEnv(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, 42, "  shroud ")
	require.NoError(t, err)
	assert.Equal(t, "shroud", added.Name)
	assert.Equal(t, int64(42), added.UserID)
	assert.Equal(t, testEpoch, added.LastActive)

	clk.Advance(time.Hour)
	name := "shroud_tv"
	points := int64(300)
	updated, err := svc.Update(ctx, 42, added.ID, channel.Patch{Name: &name, TotalPointsEarned: &points})
	require.NoError(t, err)
	assert.Equal(t, "shroud_tv", updated.Name)
	assert.Equal(t, int64(300), updated.TotalPointsEarned)

	mine, err := svc.ListForUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	require.NoError(t, svc.Remove(ctx, 42, added.ID))
	mine, err = svc.ListForUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, mine)

	var details []string
	for _, ev := range rec.Events() {
		require.NotNil(t, ev.ActorID)
		assert.Equal(t, int64(42), *ev.ActorID)
		details = append(details, ev.Action+": "+ev.Details)
	}
	assert.Equal(t, []string{
		activity.ActionChannelAdded + ": Added channel to track: shroud",
		activity.ActionChannelUpdated + ": Updated channel: shroud",
		activity.ActionChannelRemoved + ": Removed channel from tracking: shroud_tv",
	}, details)
}

func TestChannelOwnership(t *testing.T) {
	svc, rec, _ := newChannelEnv(t)
	ctx := context.Background()

	added, err := svc.Add(ctx, 42, "shroud")
	require.NoError(t, err)

	minutes := int64(10)
	_, err = svc.Update(ctx, 7, added.ID, channel.Patch{TotalWatchTimeMinutes: &minutes})
	assert.ErrorIs(t, err, ierr.ErrForbidden)
	assert.ErrorIs(t, svc.Remove(ctx, 7, added.ID), ierr.ErrForbidden)

	stored, err := svc.ListForUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Zero(t, stored[0].TotalWatchTimeMinutes)

	others, err := svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, others)

	assert.Len(t, rec.Events(), 1, "denied changes are not recorded")
}

func TestChannelErrors(t *testing.T) {
	svc, rec, _ := newChannelEnv(t)
	ctx := context.Background()

	_, err := svc.Add(ctx, 42, "   ")
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)
	_, err = svc.Add(ctx, 0, "shroud")
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)

	name := "xqc"
	_, err = svc.Update(ctx, 42, 99, channel.Patch{Name: &name})
	assert.ErrorIs(t, err, ierr.ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, 42, 99), ierr.ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, 42, 0), ierr.ErrInvalidRequest)

	added, err := svc.Add(ctx, 42, "shroud")
	require.NoError(t, err)
	negative := int64(-5)
	_, err = svc.Update(ctx, 42, added.ID, channel.Patch{TotalPointsEarned: &negative})
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)

	_, err = svc.ListForUser(ctx, -1)
	assert.ErrorIs(t, err, ierr.ErrInvalidRequest)

	assert.Len(t, rec.Events(), 1)
}
