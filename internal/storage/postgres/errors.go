package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/makkenzo/license-dashboard-api/internal/ierr"
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// mapError translates driver errors into the store's sentinel errors.
func mapError(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		return fmt.Errorf("%w: %s", ierr.ErrNotFound, op)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s", ierr.ErrDuplicateKey, op)
	default:
		return fmt.Errorf("%w: database error on %s: %v", ierr.ErrDependency, op, err)
	}
}
