package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
	"github.com/makkenzo/license-dashboard-api/internal/handler/dto"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/makkenzo/license-dashboard-api/internal/lock"
	"github.com/makkenzo/license-dashboard-api/internal/metrics"
	"go.uber.org/zap"
)

const (
	DefaultMaxGenerateAttempts = 10
	ExpiringSoonDays           = 7
)

// KeyGenerator produces candidate key strings; uniqueness is checked here.
type KeyGenerator interface {
	Generate(prefix string) (string, error)
}

type LicenseOptions struct {
	MaxBatch            int
	MaxGenerateAttempts int
	Clock               clock.Clock
	Metrics             *metrics.Metrics
}

type GenerateRequest struct {
	Count        int
	KeyType      string
	DurationDays int
	Prefix       string
	ActorID      int64
}

type LicenseService struct {
	repo        licensekey.Repository
	generator   KeyGenerator
	locker      lock.Locker
	recorder    activity.Recorder
	clock       clock.Clock
	metrics     *metrics.Metrics
	maxBatch    int
	maxAttempts int
	logger      *zap.Logger
}

func NewLicenseService(
	repo licensekey.Repository,
	generator KeyGenerator,
	locker lock.Locker,
	recorder activity.Recorder,
	opts LicenseOptions,
	logger *zap.Logger,
) *LicenseService {
	s := &LicenseService{
		repo:        repo,
		generator:   generator,
		locker:      locker,
		recorder:    recorder,
		clock:       opts.Clock,
		metrics:     opts.Metrics,
		maxBatch:    opts.MaxBatch,
		maxAttempts: opts.MaxGenerateAttempts,
		logger:      logger.Named("LicenseService"),
	}
	if s.clock == nil {
		s.clock = clock.Real{}
	}
	if s.maxBatch <= 0 || s.maxBatch > config.MaxBatchLimit {
		s.maxBatch = config.MaxBatchLimit
	}
	if s.maxAttempts <= 0 {
		s.maxAttempts = DefaultMaxGenerateAttempts
	}
	if s.locker == nil {
		s.locker = lock.NewKeyedMutex()
	}
	if s.recorder == nil {
		s.recorder = activity.NopRecorder{}
	}
	return s
}

// Generate creates req.Count new keys and returns them in creation order.
func (s *LicenseService) Generate(ctx context.Context, req GenerateRequest) ([]*licensekey.LicenseKey, error) {
	if req.Count < 1 || req.Count > s.maxBatch {
		return nil, fmt.Errorf("%w: count must be between 1 and %d", ierr.ErrInvalidRequest, s.maxBatch)
	}
	keyType, err := licensekey.ParseKeyType(req.KeyType)
	if err != nil {
		return nil, err
	}
	if req.DurationDays < 1 {
		return nil, fmt.Errorf("%w: duration_days must be at least 1", ierr.ErrInvalidRequest)
	}

	s.logger.Info("Generating license keys",
		zap.Int("count", req.Count),
		zap.String("type", string(keyType)),
		zap.Int("duration_days", req.DurationDays),
		zap.String("prefix", req.Prefix),
	)

	created := make([]*licensekey.LicenseKey, 0, req.Count)
	for i := 0; i < req.Count; i++ {
		rec, err := s.createUnique(ctx, req.Prefix, keyType, req.DurationDays)
		if err != nil {
			s.logger.Error("Failed to generate license key batch",
				zap.Int("created", len(created)),
				zap.Int("requested", req.Count),
				zap.Error(err),
			)
			s.metrics.KeysGenerated(string(keyType), len(created))
			if len(created) > 0 {
				s.recorder.Record(ctx, activity.Event{
					ActorID:    activity.Actor(req.ActorID),
					Action:     activity.ActionKeysGenerated,
					Details:    fmt.Sprintf("Generated %d of %d license keys of type %s before failure", len(created), req.Count, keyType),
					OccurredAt: s.clock.Now(),
				})
			}
			return nil, err
		}
		created = append(created, rec)
	}

	s.metrics.KeysGenerated(string(keyType), len(created))
	s.recorder.Record(ctx, activity.Event{
		ActorID:    activity.Actor(req.ActorID),
		Action:     activity.ActionKeysGenerated,
		Details:    fmt.Sprintf("Generated %d new license keys of type %s", len(created), keyType),
		OccurredAt: s.clock.Now(),
	})

	s.logger.Info("License keys generated", zap.Int("count", len(created)), zap.String("type", string(keyType)))
	return created, nil
}

func (s *LicenseService) createUnique(ctx context.Context, prefix string, keyType licensekey.KeyType, durationDays int) (*licensekey.LicenseKey, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		candidate, err := s.generator.Generate(prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ierr.ErrInternalServer, err)
		}

		_, err = s.repo.FindByKey(ctx, candidate)
		if err == nil {
			s.logger.Warn("Generated license key already exists, drawing again", zap.Int("attempt", attempt))
			s.metrics.GenerationCollision()
			continue
		}
		if !errors.Is(err, ierr.ErrNotFound) {
			return nil, err
		}

		rec, err := s.repo.Insert(ctx, &licensekey.LicenseKey{
			Key:          candidate,
			KeyType:      keyType,
			DurationDays: durationDays,
		})
		if errors.Is(err, ierr.ErrDuplicateKey) {
			s.logger.Warn("License key inserted concurrently, drawing again", zap.Int("attempt", attempt))
			s.metrics.GenerationCollision()
			continue
		}
		if err != nil {
			return nil, err
		}
		return rec, nil
	}

	return nil, fmt.Errorf("%w: no unique license key after %d attempts", ierr.ErrDependency, s.maxAttempts)
}

func (s *LicenseService) List(ctx context.Context) ([]*licensekey.LicenseKey, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list license keys", zap.Error(err))
		return nil, fmt.Errorf("repository error listing license keys: %w", err)
	}
	return keys, nil
}

func (s *LicenseService) ListUnused(ctx context.Context) ([]*licensekey.LicenseKey, error) {
	keys, err := s.repo.ListUnused(ctx)
	if err != nil {
		s.logger.Error("Failed to list unused license keys", zap.Error(err))
		return nil, fmt.Errorf("repository error listing unused license keys: %w", err)
	}
	return keys, nil
}

// Activate claims key for userID. Checks run in a fixed order under the
// per-key lock so concurrent attempts cannot both succeed.
func (s *LicenseService) Activate(ctx context.Context, key string, userID int64) (*licensekey.LicenseKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: license key is required", ierr.ErrInvalidRequest)
	}
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ierr.ErrInvalidRequest)
	}

	activated, err := s.activate(ctx, key, userID)
	if err != nil {
		s.metrics.Activation(ierr.Code(err))
		s.logger.Info("License activation rejected",
			zap.String("key", key),
			zap.Int64("user_id", userID),
			zap.String("reason", ierr.Code(err)),
		)
		return nil, err
	}
	s.metrics.Activation("ok")

	s.recorder.Record(ctx, activity.Event{
		ActorID:    activity.Actor(userID),
		Action:     activity.ActionLicenseActivated,
		Details:    fmt.Sprintf("License key activated: %s", key),
		OccurredAt: *activated.UsedAt,
	})

	s.logger.Info("License key activated", zap.String("id", activated.ID.String()), zap.Int64("user_id", userID))
	return activated, nil
}

func (s *LicenseService) activate(ctx context.Context, key string, userID int64) (*licensekey.LicenseKey, error) {
	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: lock license key: %v", ierr.ErrDependency, err)
	}
	defer unlock()

	lic, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	switch {
	case lic.UsedBy != nil:
		return nil, ierr.ErrAlreadyUsed
	case lic.RevokedAt != nil:
		return nil, ierr.ErrRevoked
	case !lic.IsActive:
		return nil, ierr.ErrInactive
	}

	return s.repo.Update(ctx, lic.ID, licensekey.Patch{
		Claim: &licensekey.Claim{At: s.clock.Now(), By: userID},
	})
}

// Revoke permanently deactivates key. Revoking an already revoked key returns
// the stored record unchanged.
func (s *LicenseService) Revoke(ctx context.Context, key string, adminID int64) (*licensekey.LicenseKey, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("%w: license key is required", ierr.ErrInvalidRequest)
	}
	if adminID <= 0 {
		return nil, fmt.Errorf("%w: admin id must be positive", ierr.ErrInvalidRequest)
	}

	unlock, err := s.locker.Lock(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: lock license key: %v", ierr.ErrDependency, err)
	}
	defer unlock()

	lic, err := s.repo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if lic.IsRevoked() {
		s.metrics.Revocation("already_revoked")
		s.logger.Debug("License key already revoked", zap.String("id", lic.ID.String()))
		return lic, nil
	}

	revoked, err := s.repo.Update(ctx, lic.ID, licensekey.Patch{
		Revocation: &licensekey.Revocation{At: s.clock.Now(), By: adminID},
		Deactivate: true,
	})
	if err != nil {
		s.logger.Error("Failed to revoke license key", zap.String("id", lic.ID.String()), zap.Error(err))
		return nil, err
	}
	s.metrics.Revocation("revoked")

	s.recorder.Record(ctx, activity.Event{
		ActorID:    activity.Actor(adminID),
		Action:     activity.ActionKeyRevoked,
		Details:    fmt.Sprintf("Revoked license key: %s", key),
		OccurredAt: *revoked.RevokedAt,
	})

	s.logger.Info("License key revoked", zap.String("id", revoked.ID.String()), zap.Int64("revoked_by", adminID))
	return revoked, nil
}

// StatusFor returns the user's most recently activated key that is still
// active and unrevoked. Expiry is not considered here.
func (s *LicenseService) StatusFor(ctx context.Context, userID int64) (*licensekey.LicenseKey, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user id must be positive", ierr.ErrInvalidRequest)
	}

	keys, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to load license keys for user", zap.Int64("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("repository error loading user keys: %w", err)
	}

	var latest *licensekey.LicenseKey
	for _, k := range keys {
		if !k.IsActive || k.RevokedAt != nil || k.UsedAt == nil {
			continue
		}
		if latest == nil || k.UsedAt.After(*latest.UsedAt) {
			latest = k
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("%w: no active license", ierr.ErrNotFound)
	}
	return latest, nil
}

// Now exposes the service clock so callers compute entitlement consistently.
func (s *LicenseService) Now() time.Time {
	return s.clock.Now()
}

func (s *LicenseService) GetDashboardSummary(ctx context.Context) (*dto.DashboardSummaryResponse, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list license keys for summary", zap.Error(err))
		return nil, fmt.Errorf("repository error building summary: %w", err)
	}

	now := s.clock.Now()
	horizon := now.AddDate(0, 0, ExpiringSoonDays)
	summary := &dto.DashboardSummaryResponse{
		TotalKeys:   int64(len(keys)),
		StateCounts: make(map[licensekey.State]int64),
		TypeCounts:  make(map[licensekey.KeyType]int64),
		ExpiringSoon: dto.ExpiringSoonSummary{
			PeriodDays: ExpiringSoonDays,
		},
	}

	var expiring []*licensekey.LicenseKey
	for _, k := range keys {
		summary.StateCounts[k.State()]++
		summary.TypeCounts[k.KeyType]++
		if !k.IsEntitled(now) {
			continue
		}
		summary.EntitledCount++
		if end := k.ExpiresAt(); end != nil && end.Before(horizon) {
			expiring = append(expiring, k)
		}
	}

	if len(expiring) > 0 {
		sort.Slice(expiring, func(i, j int) bool {
			return expiring[i].ExpiresAt().Before(*expiring[j].ExpiresAt())
		})
		next := expiring[0]
		summary.ExpiringSoon.Count = int64(len(expiring))
		summary.ExpiringSoon.NextToExpire = &dto.LicenseInfo{
			Key:       next.Key,
			ExpiresAt: *next.ExpiresAt(),
			UsedBy:    *next.UsedBy,
		}
	}

	return summary, nil
}
