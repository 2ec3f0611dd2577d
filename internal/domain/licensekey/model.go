package licensekey

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
)

type KeyType string

const (
	TypeStandard KeyType = "standard"
	TypePremium  KeyType = "premium"
	TypeLifetime KeyType = "lifetime"
)

func (t KeyType) Valid() bool {
	switch t {
	case TypeStandard, TypePremium, TypeLifetime:
		return true
	}
	return false
}

func ParseKeyType(s string) (KeyType, error) {
	t := KeyType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown key type %q", ierr.ErrInvalidRequest, s)
	}
	return t, nil
}

// State is the display state of a key, independent of entitlement expiry.
type State string

const (
	StateUnclaimed State = "unclaimed"
	StateClaimed   State = "claimed"
	StateRevoked   State = "revoked"
)

type LicenseKey struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	Key          string     `db:"license_key" json:"key"`
	KeyType      KeyType    `db:"key_type" json:"key_type"`
	DurationDays int        `db:"duration_days" json:"duration_days"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UsedAt       *time.Time `db:"used_at" json:"used_at,omitempty"`
	UsedBy       *int64     `db:"used_by" json:"used_by,omitempty"`
	RevokedAt    *time.Time `db:"revoked_at" json:"revoked_at,omitempty"`
	RevokedBy    *int64     `db:"revoked_by" json:"revoked_by,omitempty"`
	IsActive     bool       `db:"is_active" json:"is_active"`
}

func (k *LicenseKey) IsClaimed() bool {
	return k.UsedAt != nil && k.UsedBy != nil
}

func (k *LicenseKey) IsRevoked() bool {
	return k.RevokedAt != nil
}

func (k *LicenseKey) State() State {
	switch {
	case k.IsRevoked():
		return StateRevoked
	case k.IsClaimed():
		return StateClaimed
	default:
		return StateUnclaimed
	}
}

// ExpiresAt is the end of the entitlement window. It is nil for unclaimed
// keys and for lifetime keys, which never expire.
func (k *LicenseKey) ExpiresAt() *time.Time {
	if k.UsedAt == nil || k.KeyType == TypeLifetime {
		return nil
	}
	end := k.UsedAt.Add(time.Duration(k.DurationDays) * 24 * time.Hour)
	return &end
}

// IsEntitled reports whether the key grants its claimer an active license at now.
func (k *LicenseKey) IsEntitled(now time.Time) bool {
	if !k.IsClaimed() || k.IsRevoked() || !k.IsActive {
		return false
	}
	end := k.ExpiresAt()
	return end == nil || now.Before(*end)
}

// Clone returns a deep copy so stores never hand out their own records.
func (k *LicenseKey) Clone() *LicenseKey {
	if k == nil {
		return nil
	}
	c := *k
	c.UsedAt = clonePtr(k.UsedAt)
	c.UsedBy = clonePtr(k.UsedBy)
	c.RevokedAt = clonePtr(k.RevokedAt)
	c.RevokedBy = clonePtr(k.RevokedBy)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Claim binds a key to a user. Timestamp and user are always written together.
type Claim struct {
	At time.Time
	By int64
}

// Revocation records who revoked a key and when.
type Revocation struct {
	At time.Time
	By int64
}

// Patch is the set of fields an update may change. Nil members are left as is.
type Patch struct {
	Claim      *Claim
	Revocation *Revocation
	Deactivate bool
}

func (p Patch) IsEmpty() bool {
	return p.Claim == nil && p.Revocation == nil && !p.Deactivate
}

// Apply merges p into k. A claim is only applied to an unclaimed key and a
// revocation only to a key that has not been revoked, so neither pair is ever
// overwritten.
func (k *LicenseKey) Apply(p Patch) {
	if p.Claim != nil && !k.IsClaimed() {
		at, by := p.Claim.At, p.Claim.By
		k.UsedAt, k.UsedBy = &at, &by
	}
	if p.Revocation != nil && !k.IsRevoked() {
		at, by := p.Revocation.At, p.Revocation.By
		k.RevokedAt, k.RevokedBy = &at, &by
	}
	if p.Deactivate {
		k.IsActive = false
	}
}
