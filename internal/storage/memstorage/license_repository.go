package memstorage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
)

// LicenseRepository keeps keys in process memory. Records are copied on the
// way in and out.
type LicenseRepository struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]*licensekey.LicenseKey
	byKey map[string]uuid.UUID
	order []uuid.UUID
	clock clock.Clock
}

func NewLicenseRepository(clk clock.Clock) *LicenseRepository {
	if clk == nil {
		clk = clock.Real{}
	}
	return &LicenseRepository{
		byID:  make(map[uuid.UUID]*licensekey.LicenseKey),
		byKey: make(map[string]uuid.UUID),
		clock: clk,
	}
}

var _ licensekey.Repository = (*LicenseRepository)(nil)

func (r *LicenseRepository) Insert(ctx context.Context, key *licensekey.LicenseKey) (*licensekey.LicenseKey, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	if strings.TrimSpace(key.Key) == "" {
		return nil, fmt.Errorf("%w: license key string is empty", ierr.ErrInvalidRequest)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[key.Key]; exists {
		return nil, fmt.Errorf("%w: %s", ierr.ErrDuplicateKey, key.Key)
	}

	rec := &licensekey.LicenseKey{
		ID:           uuid.New(),
		Key:          key.Key,
		KeyType:      key.KeyType,
		DurationDays: key.DurationDays,
		CreatedAt:    r.clock.Now(),
		IsActive:     true,
	}
	r.byID[rec.ID] = rec
	r.byKey[rec.Key] = rec.ID
	r.order = append(r.order, rec.ID)

	return rec.Clone(), nil
}

func (r *LicenseRepository) FindByKey(ctx context.Context, key string) (*licensekey.LicenseKey, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: license key", ierr.ErrNotFound)
	}
	return r.byID[id].Clone(), nil
}

func (r *LicenseRepository) FindByID(ctx context.Context, id uuid.UUID) (*licensekey.LicenseKey, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: license key %s", ierr.ErrNotFound, id)
	}
	return rec.Clone(), nil
}

func (r *LicenseRepository) FindByUser(ctx context.Context, userID int64) ([]*licensekey.LicenseKey, error) {
	return r.filter(ctx, func(k *licensekey.LicenseKey) bool {
		return k.UsedBy != nil && *k.UsedBy == userID
	})
}

func (r *LicenseRepository) List(ctx context.Context) ([]*licensekey.LicenseKey, error) {
	return r.filter(ctx, func(*licensekey.LicenseKey) bool { return true })
}

func (r *LicenseRepository) ListUnused(ctx context.Context) ([]*licensekey.LicenseKey, error) {
	return r.filter(ctx, func(k *licensekey.LicenseKey) bool {
		return !k.IsClaimed() && !k.IsRevoked() && k.IsActive
	})
}

func (r *LicenseRepository) Update(ctx context.Context, id uuid.UUID, patch licensekey.Patch) (*licensekey.LicenseKey, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: license key %s", ierr.ErrNotFound, id)
	}
	if patch.Claim != nil && rec.IsClaimed() {
		return nil, fmt.Errorf("%w: %s", ierr.ErrAlreadyUsed, rec.Key)
	}

	rec.Apply(patch)
	return rec.Clone(), nil
}

func (r *LicenseRepository) filter(ctx context.Context, keep func(*licensekey.LicenseKey) bool) ([]*licensekey.LicenseKey, error) {
	if err := checkContext(ctx); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*licensekey.LicenseKey, 0)
	for _, id := range r.order {
		rec := r.byID[id]
		if keep(rec) {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}
