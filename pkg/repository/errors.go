package repository

import (
	"database/sql"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the domains translate.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeNotNull         = "23502"
)

// Errors names the domain errors a repository maps driver failures onto.
// Nil fields leave the matching driver error unchanged.
type Errors struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates err into the domain error configured in e. sql.ErrNoRows
// becomes NotFound, unique violations become Duplicate, and check or
// not-null violations become Invalid. The original error stays in the chain.
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
	case codeUniqueViolation:
		if e.Duplicate != nil {
			return errors.Join(e.Duplicate, err)
		}
	case codeCheckViolation, codeNotNull:
		if e.Invalid != nil {
			return errors.Join(e.Invalid, err)
		}
	}
	return err
}
