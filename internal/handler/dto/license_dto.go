package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
)

type GenerateKeysRequest struct {
	Count        int    `json:"count" binding:"required,gte=1,lte=100"`
	KeyType      string `json:"key_type" binding:"required,oneof=standard premium lifetime"`
	DurationDays int    `json:"duration_days" binding:"required,gte=1"`
	Prefix       string `json:"prefix" binding:"omitempty,alphanum,max=16"`
}

type KeyRequest struct {
	Key string `json:"key" binding:"required,max=128"`
}

type ListKeysRequest struct {
	Unused bool `form:"unused"`
}

type LicenseKeyResponse struct {
	ID           uuid.UUID          `json:"id"`
	Key          string             `json:"key"`
	KeyType      licensekey.KeyType `json:"key_type"`
	DurationDays int                `json:"duration_days"`
	State        licensekey.State   `json:"state"`
	IsActive     bool               `json:"is_active"`
	CreatedAt    time.Time          `json:"created_at"`
	UsedAt       *time.Time         `json:"used_at,omitempty"`
	UsedBy       *int64             `json:"used_by,omitempty"`
	RevokedAt    *time.Time         `json:"revoked_at,omitempty"`
	RevokedBy    *int64             `json:"revoked_by,omitempty"`
	ExpiresAt    *time.Time         `json:"expires_at,omitempty"`
}

func NewLicenseKeyResponse(k *licensekey.LicenseKey) *LicenseKeyResponse {
	return &LicenseKeyResponse{
		ID:           k.ID,
		Key:          k.Key,
		KeyType:      k.KeyType,
		DurationDays: k.DurationDays,
		State:        k.State(),
		IsActive:     k.IsActive,
		CreatedAt:    k.CreatedAt,
		UsedAt:       k.UsedAt,
		UsedBy:       k.UsedBy,
		RevokedAt:    k.RevokedAt,
		RevokedBy:    k.RevokedBy,
		ExpiresAt:    k.ExpiresAt(),
	}
}

func NewLicenseKeyResponses(keys []*licensekey.LicenseKey) []*LicenseKeyResponse {
	out := make([]*LicenseKeyResponse, len(keys))
	for i, k := range keys {
		out[i] = NewLicenseKeyResponse(k)
	}
	return out
}

// LicenseStatusResponse is the caller's most recently activated key plus
// whether it is still inside its entitlement window.
type LicenseStatusResponse struct {
	*LicenseKeyResponse
	Lifetime bool `json:"lifetime"`
	Entitled bool `json:"entitled"`
}

func NewLicenseStatusResponse(k *licensekey.LicenseKey, now time.Time) *LicenseStatusResponse {
	return &LicenseStatusResponse{
		LicenseKeyResponse: NewLicenseKeyResponse(k),
		Lifetime:           k.KeyType == licensekey.TypeLifetime,
		Entitled:           k.IsEntitled(now),
	}
}
