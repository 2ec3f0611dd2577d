package dto

import (
	"time"

	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
)

type DashboardSummaryResponse struct {
	TotalKeys     int64                        `json:"totalKeys"`
	StateCounts   map[licensekey.State]int64   `json:"stateCounts"`
	TypeCounts    map[licensekey.KeyType]int64 `json:"typeCounts"`
	EntitledCount int64                        `json:"entitledCount"`
	ExpiringSoon  ExpiringSoonSummary          `json:"expiringSoon"`
}

type ExpiringSoonSummary struct {
	Count        int64        `json:"count"`
	PeriodDays   int          `json:"periodDays"`
	NextToExpire *LicenseInfo `json:"nextToExpire,omitempty"`
}

type LicenseInfo struct {
	Key       string    `json:"key"`
	ExpiresAt time.Time `json:"expiresAt"`
	UsedBy    int64     `json:"usedBy"`
}
