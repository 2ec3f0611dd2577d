package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	testEpoch   = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	licenseCols = []string{
		"id", "license_key", "key_type", "duration_days", "created_at",
		"used_at", "used_by", "revoked_at", "revoked_by", "is_active",
	}
)

const (
	updateLicenseSQL  = `^UPDATE license_keys SET .* WHERE id = \$1 AND \(\$3::bigint IS NULL OR used_by IS NULL\) RETURNING`
	findLicenseByID   = `FROM license_keys WHERE id = \$1$`
	findLicenseByUser = `FROM license_keys WHERE used_by = \$1 ORDER BY seq$`
)

type argMatcher func(any) bool

func (m argMatcher) Match(v any) bool { return m(v) }

func timeArg(want time.Time) pgxmock.Argument {
	return argMatcher(func(v any) bool {
		got, ok := v.(*time.Time)
		return ok && got != nil && got.Equal(want)
	})
}

func int64Arg(want int64) pgxmock.Argument {
	return argMatcher(func(v any) bool {
		got, ok := v.(*int64)
		return ok && got != nil && *got == want
	})
}

func nilTimeArg() pgxmock.Argument {
	return argMatcher(func(v any) bool {
		got, ok := v.(*time.Time)
		return ok && got == nil
	})
}

func nilInt64Arg() pgxmock.Argument {
	return argMatcher(func(v any) bool {
		got, ok := v.(*int64)
		return ok && got == nil
	})
}

func newMockLicenseRepo(t *testing.T) (*LicenseRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewLicenseRepository(mock, zap.NewNop()), mock
}

func licenseRows(mock pgxmock.PgxPoolIface, keys ...*licensekey.LicenseKey) *pgxmock.Rows {
	rows := mock.NewRows(licenseCols)
	for _, k := range keys {
		rows.AddRow(k.ID, k.Key, string(k.KeyType), k.DurationDays, k.CreatedAt,
			k.UsedAt, k.UsedBy, k.RevokedAt, k.RevokedBy, k.IsActive)
	}
	return rows
}

func storedKey(key string) *licensekey.LicenseKey {
	return &licensekey.LicenseKey{
		ID:           uuid.New(),
		Key:          key,
		KeyType:      licensekey.TypeStandard,
		DurationDays: 30,
		CreatedAt:    testEpoch,
		IsActive:     true,
	}
}

func TestLicenseUpdateClaimWritesPair(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	k := storedKey("TEST-AAAA-BBBB-CCCC")
	claimedAt := testEpoch.Add(time.Hour)

	claimed := *k
	claimed.UsedAt, claimed.UsedBy = &claimedAt, ptr(int64(42))
	mock.ExpectQuery(updateLicenseSQL).
		WithArgs(k.ID, timeArg(claimedAt), int64Arg(42), nilTimeArg(), nilInt64Arg(), false).
		WillReturnRows(licenseRows(mock, &claimed))

	// Claim timestamps are stored in UTC regardless of the caller's zone.
	local := claimedAt.In(time.FixedZone("UTC+3", 3*3600))
	rec, err := repo.Update(context.Background(), k.ID, licensekey.Patch{
		Claim: &licensekey.Claim{At: local, By: 42},
	})
	require.NoError(t, err)
	assert.True(t, rec.IsClaimed())
	assert.Equal(t, int64(42), *rec.UsedBy)
	assert.Equal(t, time.UTC, rec.UsedAt.Location())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseUpdateRevocationWritesPair(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	k := storedKey("TEST-AAAA-BBBB-CCCC")
	revokedAt := testEpoch.Add(2 * time.Hour)

	revoked := *k
	revoked.RevokedAt, revoked.RevokedBy, revoked.IsActive = &revokedAt, ptr(int64(1)), false
	mock.ExpectQuery(updateLicenseSQL).
		WithArgs(k.ID, nilTimeArg(), nilInt64Arg(), timeArg(revokedAt), int64Arg(1), true).
		WillReturnRows(licenseRows(mock, &revoked))

	rec, err := repo.Update(context.Background(), k.ID, licensekey.Patch{
		Revocation: &licensekey.Revocation{At: revokedAt, By: 1},
		Deactivate: true,
	})
	require.NoError(t, err)
	assert.True(t, rec.IsRevoked())
	assert.False(t, rec.IsActive)
	assert.Nil(t, rec.UsedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseUpdateClaimOnClaimedKey(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	k := storedKey("TEST-AAAA-BBBB-CCCC")
	k.UsedAt, k.UsedBy = &testEpoch, ptr(int64(7))

	mock.ExpectQuery(updateLicenseSQL).
		WithArgs(k.ID, pgxmock.AnyArg(), int64Arg(42), nilTimeArg(), nilInt64Arg(), false).
		WillReturnRows(mock.NewRows(licenseCols))
	mock.ExpectQuery(findLicenseByID).
		WithArgs(k.ID).
		WillReturnRows(licenseRows(mock, k))

	_, err := repo.Update(context.Background(), k.ID, licensekey.Patch{
		Claim: &licensekey.Claim{At: testEpoch.Add(time.Hour), By: 42},
	})
	assert.ErrorIs(t, err, ierr.ErrAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseUpdateMissingID(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	id := uuid.New()

	mock.ExpectQuery(updateLicenseSQL).
		WithArgs(id, pgxmock.AnyArg(), int64Arg(42), nilTimeArg(), nilInt64Arg(), false).
		WillReturnRows(mock.NewRows(licenseCols))
	mock.ExpectQuery(findLicenseByID).
		WithArgs(id).
		WillReturnRows(mock.NewRows(licenseCols))

	_, err := repo.Update(context.Background(), id, licensekey.Patch{
		Claim: &licensekey.Claim{At: testEpoch, By: 42},
	})
	assert.ErrorIs(t, err, ierr.ErrNotFound)
	assert.NotErrorIs(t, err, ierr.ErrAlreadyUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseUpdateEmptyPatchReads(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	k := storedKey("TEST-AAAA-BBBB-CCCC")

	mock.ExpectQuery(findLicenseByID).WithArgs(k.ID).WillReturnRows(licenseRows(mock, k))

	rec, err := repo.Update(context.Background(), k.ID, licensekey.Patch{})
	require.NoError(t, err)
	assert.Equal(t, k.Key, rec.Key)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseUpdateDriverError(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	id := uuid.New()

	mock.ExpectQuery(updateLicenseSQL).
		WithArgs(id, nilTimeArg(), nilInt64Arg(), pgxmock.AnyArg(), int64Arg(1), true).
		WillReturnError(errors.New("conn closed"))

	_, err := repo.Update(context.Background(), id, licensekey.Patch{
		Revocation: &licensekey.Revocation{At: testEpoch, By: 1},
		Deactivate: true,
	})
	assert.ErrorIs(t, err, ierr.ErrDependency)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseFindByUserKeepsInsertionOrder(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	first, second := storedKey("TEST-0001-0001-0001"), storedKey("TEST-0002-0002-0002")
	first.UsedAt, first.UsedBy = &testEpoch, ptr(int64(42))
	second.UsedAt, second.UsedBy = &testEpoch, ptr(int64(42))

	mock.ExpectQuery(findLicenseByUser).
		WithArgs(int64(42)).
		WillReturnRows(licenseRows(mock, first, second))

	keys, err := repo.FindByUser(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, first.ID, keys[0].ID)
	assert.Equal(t, second.ID, keys[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseListings(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)
	k := storedKey("TEST-0001-0001-0001")

	mock.ExpectQuery(`FROM license_keys ORDER BY seq$`).WillReturnRows(licenseRows(mock, k))
	mock.ExpectQuery(`WHERE used_by IS NULL AND revoked_at IS NULL AND is_active ORDER BY seq$`).
		WillReturnRows(mock.NewRows(licenseCols))

	all, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)

	unused, err := repo.ListUnused(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, unused)
	assert.Empty(t, unused)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseInsertDuplicate(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)

	mock.ExpectQuery(`^INSERT INTO license_keys`).
		WithArgs(pgxmock.AnyArg(), "TEST-AAAA-BBBB-CCCC", "premium", 14).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Insert(context.Background(), &licensekey.LicenseKey{
		Key:          "TEST-AAAA-BBBB-CCCC",
		KeyType:      licensekey.TypePremium,
		DurationDays: 14,
	})
	assert.ErrorIs(t, err, ierr.ErrDuplicateKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLicenseFindByKeyNotFound(t *testing.T) {
	repo, mock := newMockLicenseRepo(t)

	mock.ExpectQuery(`FROM license_keys WHERE license_key = \$1$`).
		WithArgs("TEST-FFFF-FFFF-FFFF").
		WillReturnRows(mock.NewRows(licenseCols))

	_, err := repo.FindByKey(context.Background(), "TEST-FFFF-FFFF-FFFF")
	assert.ErrorIs(t, err, ierr.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func ptr[T any](v T) *T {
	return &v
}
