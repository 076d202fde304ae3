package store

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate value")
	// ErrInvalidReference is returned when a write points at a row that
	// does not exist.
	ErrInvalidReference = errors.New("invalid reference")
	// ErrNotFound is returned by operations that must touch an existing row.
	ErrNotFound = errors.New("not found")
)

// PostgreSQL error codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// translate maps PostgreSQL constraint violations to store sentinels and
// keeps the driver error in the chain. Other errors pass through.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return errors.Join(ErrDuplicate, err)
	case pgForeignKeyViolation:
		return errors.Join(ErrInvalidReference, err)
	}
	return err
}
