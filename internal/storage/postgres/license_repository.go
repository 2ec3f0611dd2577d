package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"go.uber.org/zap"
)

const licenseColumns = `
            id, license_key, key_type, duration_days, created_at,
            used_at, used_by, revoked_at, revoked_by, is_active`

type LicenseRepository struct {
	db     DB
	logger *zap.Logger
}

func NewLicenseRepository(db DB, logger *zap.Logger) *LicenseRepository {
	return &LicenseRepository{
		db:     db,
		logger: logger.Named("LicenseRepository"),
	}
}

var _ licensekey.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) Insert(ctx context.Context, k *licensekey.LicenseKey) (*licensekey.LicenseKey, error) {
	query := `
        INSERT INTO license_keys (id, license_key, key_type, duration_days)
        VALUES ($1, $2, $3, $4)
        RETURNING` + licenseColumns

	row := r.db.QueryRow(ctx, query, uuid.New(), k.Key, string(k.KeyType), k.DurationDays)
	rec, err := scanLicenseKey(row)
	if err != nil {
		if isUniqueViolation(err) {
			r.logger.Warn("Attempted to insert duplicate license key", zap.String("license_key", k.Key))
		} else {
			r.logger.Error("Failed to insert license key", zap.Error(err))
		}
		return nil, mapError(err, "insert license key")
	}

	r.logger.Debug("License key inserted", zap.String("id", rec.ID.String()))
	return rec, nil
}

func (r *LicenseRepository) FindByKey(ctx context.Context, key string) (*licensekey.LicenseKey, error) {
	query := `SELECT` + licenseColumns + `
        FROM license_keys
        WHERE license_key = $1`

	rec, err := scanLicenseKey(r.db.QueryRow(ctx, query, key))
	if err != nil {
		return nil, mapError(err, "find license key")
	}
	return rec, nil
}

func (r *LicenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*licensekey.LicenseKey, error) {
	query := `SELECT` + licenseColumns + `
        FROM license_keys
        WHERE id = $1`

	rec, err := scanLicenseKey(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err, "find license key by id")
	}
	return rec, nil
}

func (r *LicenseRepository) FindByUser(ctx context.Context, userID int64) ([]*licensekey.LicenseKey, error) {
	query := `SELECT` + licenseColumns + `
        FROM license_keys
        WHERE used_by = $1
        ORDER BY seq`
	return r.list(ctx, "find license keys by user", query, userID)
}

func (r *LicenseRepository) List(ctx context.Context) ([]*licensekey.LicenseKey, error) {
	query := `SELECT` + licenseColumns + `
        FROM license_keys
        ORDER BY seq`
	return r.list(ctx, "list license keys", query)
}

func (r *LicenseRepository) ListUnused(ctx context.Context) ([]*licensekey.LicenseKey, error) {
	query := `SELECT` + licenseColumns + `
        FROM license_keys
        WHERE used_by IS NULL AND revoked_at IS NULL AND is_active
        ORDER BY seq`
	return r.list(ctx, "list unused license keys", query)
}

// Update applies patch in a single statement. The claim and revocation pairs
// are only written when currently empty; a claim against a claimed key
// matches no row and is reported as ierr.ErrAlreadyUsed.
func (r *LicenseRepository) Update(ctx context.Context, id uuid.UUID, patch licensekey.Patch) (*licensekey.LicenseKey, error) {
	if patch.IsEmpty() {
		return r.FindByID(ctx, id)
	}

	var (
		usedAt, revokedAt *time.Time
		usedBy, revokedBy *int64
	)
	if patch.Claim != nil {
		at := patch.Claim.At.UTC()
		usedAt, usedBy = &at, &patch.Claim.By
	}
	if patch.Revocation != nil {
		at := patch.Revocation.At.UTC()
		revokedAt, revokedBy = &at, &patch.Revocation.By
	}

	query := `
        UPDATE license_keys SET
            used_at    = CASE WHEN used_by IS NULL THEN COALESCE($2::timestamptz, used_at) ELSE used_at END,
            used_by    = COALESCE(used_by, $3::bigint),
            revoked_at = COALESCE(revoked_at, $4::timestamptz),
            revoked_by = CASE WHEN revoked_at IS NULL THEN COALESCE($5::bigint, revoked_by) ELSE revoked_by END,
            is_active  = is_active AND NOT $6::boolean
        WHERE id = $1 AND ($3::bigint IS NULL OR used_by IS NULL)
        RETURNING` + licenseColumns

	row := r.db.QueryRow(ctx, query, id, usedAt, usedBy, revokedAt, revokedBy, patch.Deactivate)
	rec, err := scanLicenseKey(row)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.logger.Error("Failed to update license key", zap.String("id", id.String()), zap.Error(err))
		return nil, mapError(err, "update license key")
	}

	current, findErr := r.FindByID(ctx, id)
	if findErr != nil {
		return nil, findErr
	}
	return nil, fmt.Errorf("%w: %s", ierr.ErrAlreadyUsed, current.Key)
}

func (r *LicenseRepository) list(ctx context.Context, op, query string, args ...any) ([]*licensekey.LicenseKey, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query license keys", zap.String("op", op), zap.Error(err))
		return nil, mapError(err, op)
	}
	defer rows.Close()

	keys := make([]*licensekey.LicenseKey, 0)
	for rows.Next() {
		rec, err := scanLicenseKey(rows)
		if err != nil {
			r.logger.Error("Failed to scan license key row", zap.String("op", op), zap.Error(err))
			return nil, mapError(err, op)
		}
		keys = append(keys, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err, op)
	}
	return keys, nil
}

func scanLicenseKey(row pgx.Row) (*licensekey.LicenseKey, error) {
	var (
		k       licensekey.LicenseKey
		keyType string
	)
	err := row.Scan(
		&k.ID,
		&k.Key,
		&keyType,
		&k.DurationDays,
		&k.CreatedAt,
		&k.UsedAt,
		&k.UsedBy,
		&k.RevokedAt,
		&k.RevokedBy,
		&k.IsActive,
	)
	if err != nil {
		return nil, err
	}
	k.KeyType = licensekey.KeyType(keyType)
	k.CreatedAt = k.CreatedAt.UTC()
	k.UsedAt = utcPtr(k.UsedAt)
	k.RevokedAt = utcPtr(k.RevokedAt)
	return &k, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
