// Package memstorage holds process-local repositories used for development,
// tests and single-instance deployments.
package memstorage

import (
	"context"
	"fmt"

	"github.com/makkenzo/license-dashboard-api/internal/ierr"
)

// checkContext reports an ended request context as a dependency failure so
// the API answers 503 instead of a bare internal error.
func checkContext(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ierr.ErrDependency, err)
	}
	return nil
}
