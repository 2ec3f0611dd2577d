package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/domain/activity"
	"github.com/makkenzo/license-dashboard-api/internal/domain/channel"
	"github.com/makkenzo/license-dashboard-api/internal/domain/licensekey"
	"github.com/makkenzo/license-dashboard-api/internal/storage/memstorage"
	"github.com/makkenzo/license-dashboard-api/internal/storage/postgres"
	"go.uber.org/zap"
)

// Stores bundles the repositories selected by storage.driver. Pool is nil
// for the in-memory driver.
type Stores struct {
	Licenses licensekey.Repository
	Activity activity.Repository
	Channels channel.Repository
	Pool     *pgxpool.Pool
}

func (s *Stores) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func Open(ctx context.Context, cfg *config.Config, clk clock.Clock, logger *zap.Logger) (*Stores, error) {
	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("Using in-memory storage; data is lost on restart")
		return &Stores{
			Licenses: memstorage.NewLicenseRepository(clk),
			Activity: memstorage.NewActivityRepository(),
			Channels: memstorage.NewChannelRepository(clk),
		}, nil

	case config.StoragePostgres:
		pool, err := postgres.NewPgxPool(ctx, &cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Database.AutoMigrate {
			if err := postgres.RunMigrations(pool, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return &Stores{
			Licenses: postgres.NewLicenseRepository(pool, logger),
			Activity: postgres.NewActivityRepository(pool, logger),
			Channels: postgres.NewChannelRepository(pool, logger),
			Pool:     pool,
		}, nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}
