package memstorage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)

func insert(t *testing.T, r *LicenseRepository, key string) *licensekey.LicenseKey {
	t.Helper()
	rec, err := r.Insert(context.Background(), &licensekey.LicenseKey{
		Key:          key,
		KeyType:      licensekey.TypeStandard,
		DurationDays: 30,
	})
	require.NoError(t, err)
	return rec
}

func TestInsertAssignsDefaults(t *testing.T) {
	r := NewLicenseRepository(clock.NewFakeClock(epoch))
	now := epoch

	rec, err := r.Insert(context.Background(), &licensekey.LicenseKey{
		Key:          "TEST-0001-0002-0003",
		KeyType:      licensekey.TypePremium,
		DurationDays: 7,
		UsedAt:       &now,
		IsActive:     false,
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, epoch, rec.CreatedAt)
	assert.True(t, rec.IsActive)
	assert.Nil(t, rec.UsedAt)
	assert.Nil(t, rec.UsedBy)
	assert.Nil(t, rec.RevokedAt)
}

func TestInsertDuplicateKey(t *testing.T) {
	r := NewLicenseRepository(nil)
	insert(t, r, "TEST-0001-0002-0003")

	_, err := r.Insert(context.Background(), &licensekey.LicenseKey{Key: "TEST-0001-0002-0003"})
	assert.ErrorIs(t, err, ierr.ErrDuplicateKey)
}

func TestFindByKeyAndID(t *testing.T) {
	r := NewLicenseRepository(nil)
	rec := insert(t, r, "TEST-0001-0002-0003")

	byKey, err := r.FindByKey(context.Background(), rec.Key)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byKey.ID)

	byID, err := r.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Key, byID.Key)

	_, err = r.FindByKey(context.Background(), "missing")
	assert.ErrorIs(t, err, ierr.ErrNotFound)
	_, err = r.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	r := NewLicenseRepository(nil)
	rec := insert(t, r, "TEST-0001-0002-0003")
	rec.IsActive = false

	again, err := r.FindByID(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.True(t, again.IsActive)
}

func TestUpdateClaimIsWriteOnce(t *testing.T) {
	r := NewLicenseRepository(nil)
	rec := insert(t, r, "TEST-0001-0002-0003")

	updated, err := r.Update(context.Background(), rec.ID, licensekey.Patch{Claim: &licensekey.Claim{At: epoch, By: 42}})
	require.NoError(t, err)
	require.NotNil(t, updated.UsedBy)
	assert.Equal(t, int64(42), *updated.UsedBy)
	assert.Equal(t, epoch, *updated.UsedAt)

	_, err = r.Update(context.Background(), rec.ID, licensekey.Patch{Claim: &licensekey.Claim{At: epoch, By: 7}})
	assert.ErrorIs(t, err, ierr.ErrAlreadyUsed)

	_, err = r.Update(context.Background(), uuid.New(), licensekey.Patch{Deactivate: true})
	assert.ErrorIs(t, err, ierr.ErrNotFound)
}

func TestFindByUserAndListings(t *testing.T) {
	r := NewLicenseRepository(nil)
	a := insert(t, r, "TEST-000A-0000-0000")
	b := insert(t, r, "TEST-000B-0000-0000")
	c := insert(t, r, "TEST-000C-0000-0000")
	insert(t, r, "TEST-000D-0000-0000")

	ctx := context.Background()
	_, err := r.Update(ctx, c.ID, licensekey.Patch{Claim: &licensekey.Claim{At: epoch, By: 42}})
	require.NoError(t, err)
	_, err = r.Update(ctx, a.ID, licensekey.Patch{Claim: &licensekey.Claim{At: epoch.Add(time.Hour), By: 42}})
	require.NoError(t, err)
	_, err = r.Update(ctx, b.ID, licensekey.Patch{Revocation: &licensekey.Revocation{At: epoch, By: 1}, Deactivate: true})
	require.NoError(t, err)

	mine, err := r.FindByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, a.ID, mine[0].ID, "insertion order")
	assert.Equal(t, c.ID, mine[1].ID)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	unused, err := r.ListUnused(ctx)
	require.NoError(t, err)
	require.Len(t, unused, 1)
	assert.Equal(t, "TEST-000D-0000-0000", unused[0].Key)

	none, err := r.FindByUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCanceledContext(t *testing.T) {
	r := NewLicenseRepository(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ierr.ErrDependency)
	assert.Equal(t, ierr.CodeDependency, ierr.Code(err))

	_, err = NewActivityRepository().Insert(ctx, &activity.Log{Action: activity.ActionKeyRevoked})
	assert.ErrorIs(t, err, ierr.ErrDependency)

	deadline, cancelDeadline := context.WithTimeout(context.Background(), -time.Second)
	defer cancelDeadline()
	_, err = r.FindByKey(deadline, "TEST-0001-0002-0003")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, ierr.CodeDependency, ierr.Code(err))
}

func TestActivityRepositoryOrdering(t *testing.T) {
	r := NewActivityRepository()
	ctx := context.Background()

	for i, ev := range []struct {
		user   *int64
		action string
	}{
		{activity.Actor(42), activity.ActionLicenseActivated},
		{activity.Actor(1), activity.ActionKeysGenerated},
		{activity.Actor(42), activity.ActionLicenseActivated},
		{nil, activity.ActionKeyRevoked},
	} {
		_, err := r.Insert(ctx, &activity.Log{
			UserID:    ev.user,
			Action:    ev.action,
			Timestamp: epoch.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	mine, err := r.ListByUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, int64(3), mine[0].ID)
	assert.Equal(t, int64(1), mine[1].ID)

	recent, err := r.ListRecent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, int64(4), recent[0].ID)
	assert.Equal(t, int64(3), recent[1].ID)
}
