package storage

import (
	"context"
	"testing"

	"github.com/makkenzo/license-dashboard-api/internal/config"
	"github.com/makkenzo/license-dashboard-api/internal/storage/memstorage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenMemory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageMemory}}

	stores, err := Open(context.Background(), cfg, nil, zap.NewNop())
	require.NoError(t, err)
	defer stores.Close()

	assert.IsType(t, &memstorage.LicenseRepository{}, stores.Licenses)
	assert.IsType(t, &memstorage.ActivityRepository{}, stores.Activity)
	assert.IsType(t, &memstorage.ChannelRepository{}, stores.Channels)
	assert.Nil(t, stores.Pool)
}

func TestOpenUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
	_, err := Open(context.Background(), cfg, nil, zap.NewNop())
	assert.Error(t, err)
}
