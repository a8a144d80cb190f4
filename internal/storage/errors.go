package storage

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrConditionNotMet reports a conditional write that matched no row.
	ErrConditionNotMet = errors.New("condition not met")
)

// IsSerializationFailure reports whether err is a Postgres serialization_failure (40001),
// the abort raised when two serializable transactions collide.
func IsSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}
