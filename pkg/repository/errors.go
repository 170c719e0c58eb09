package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes translated by Errors.Map.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// Errors names the domain errors a repository reports for common
// database failures. A nil field leaves that failure unmapped.
type Errors struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates err into the domain error for its cause: sql.ErrNoRows
// to NotFound, unique violations to Duplicate, and foreign key or check
// violations to Invalid. Other errors are returned unchanged.
func (e Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) && e.NotFound != nil {
		return e.NotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		if e.Duplicate != nil {
			return e.Duplicate
		}
	case pgForeignKeyViolation, pgCheckViolation:
		if e.Invalid != nil {
			return errors.Join(e.Invalid, errors.New(pgErr.Message))
		}
	}
	return err
}
