package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil, "noop"))

	assert.ErrorIs(t, mapError(pgx.ErrNoRows, "find"), ierr.ErrNotFound)

	dup := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505", ConstraintName: "license_keys_license_key_key"})
	assert.ErrorIs(t, mapError(dup, "insert"), ierr.ErrDuplicateKey)

	check := &pgconn.PgError{Code: "23514"}
	err := mapError(check, "update")
	assert.ErrorIs(t, err, ierr.ErrDependency)
	assert.NotErrorIs(t, err, ierr.ErrDuplicateKey)

	assert.ErrorIs(t, mapError(errors.New("conn reset"), "list"), ierr.ErrDependency)
}

func TestRunMigrationsRequiresPool(t *testing.T) {
	assert.Error(t, RunMigrations(nil, zap.NewNop()))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := embeddedMigrations.ReadDir("migrations")
	assert.NoError(t, err)

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	assert.Positive(t, ups)
	assert.Equal(t, ups, downs)
}
