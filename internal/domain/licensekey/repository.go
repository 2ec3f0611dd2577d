package licensekey

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the durable key store. It enforces key uniqueness and the
// write-once claim pair; every other business rule belongs to the service.
//
// Lookups return ierr.ErrNotFound for missing records, Insert returns
// ierr.ErrDuplicateKey for an existing key string, and Update returns
// ierr.ErrAlreadyUsed when a claim targets a key that is already claimed.
type Repository interface {
	Insert(ctx context.Context, key *LicenseKey) (*LicenseKey, error)
	FindByKey(ctx context.Context, key string) (*LicenseKey, error)
	FindByID(ctx context.Context, id uuid.UUID) (*LicenseKey, error)
	FindByUser(ctx context.Context, userID int64) ([]*LicenseKey, error)
	List(ctx context.Context) ([]*LicenseKey, error)
	ListUnused(ctx context.Context) ([]*LicenseKey, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*LicenseKey, error)
}
