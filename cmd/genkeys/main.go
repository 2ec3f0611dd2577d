package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/makkenzo/license-dashboard-api/internal/clock"
	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/keygen"
	"github.com/makkenzo/license-dashboard-api/internal/service"
	"github.com/makkenzo/license-dashboard-api/internal/storage"
	"github.com/makkenzo/license-dashboard-api/pkg/logger"
)

// genkeys creates a batch of keys directly against the configured store and
// prints one key per line.
func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	count := flag.Int("count", 1, "Number of keys to generate")
	keyType := flag.String("type", "standard", "Key type: standard, premium or lifetime")
	durationDays := flag.Int("days", 30, "Entitlement length in days")
	prefix := flag.String("prefix", "", "Key prefix (defaults to license.defaultPrefix)")
	actor := flag.Int64("actor", 0, "Admin user id recorded in the activity log")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Storage.Driver == config.StorageMemory {
		log.Fatal("genkeys needs a persistent store; set STORAGE_DRIVER=postgres")
	}

	appLogger, err := logger.NewZapLogger("warn", cfg.Log.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	ctx := context.Background()
	clk := clock.Real{}

	stores, err := storage.Open(ctx, cfg, clk, appLogger)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer stores.Close()

	generator := keygen.New(
		keygen.WithDefaultPrefix(cfg.License.DefaultPrefix),
		keygen.WithSegmentBytes(cfg.License.SegmentBytes),
	)
	activityService := service.NewActivityService(stores.Activity, clk, appLogger)
	licenseService := service.NewLicenseService(
		stores.Licenses,
		generator,
		nil,
		activityService,
		service.LicenseOptions{
			MaxBatch:            cfg.License.MaxBatch,
			MaxGenerateAttempts: cfg.License.MaxGenerateAttempts,
			Clock:               clk,
		},
		appLogger,
	)

	keys, err := licenseService.Generate(ctx, service.GenerateRequest{
		Count:        *count,
		KeyType:      *keyType,
		DurationDays: *durationDays,
		Prefix:       *prefix,
		ActorID:      *actor,
	})
	activityService.Wait()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to generate keys: %v\n", err)
		os.Exit(1)
	}

	for _, k := range keys {
		fmt.Println(k.Key)
	}
}
