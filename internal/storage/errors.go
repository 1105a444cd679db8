// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound            = errors.New("resource not found")
	ErrDuplicateKey        = errors.New("duplicate key violation")
	ErrForeignKeyViolation = errors.New("foreign key violation")
	ErrCheckViolation      = errors.New("check constraint violation")
)

const (
	pgErrCodeUniqueViolation     = "23505"
	pgErrCodeForeignKeyViolation = "23503"
	pgErrCodeCheckViolation      = "23514"
)

// ConstraintError names the constraint behind an integrity violation. It
// unwraps to one of the sentinels above.
type ConstraintError struct {
	Constraint string
	Detail     string

	kind error
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return e.kind.Error()
	}
	return fmt.Sprintf("%s on %s", e.kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.kind
}

func pgCode(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

func IsDuplicateKeyError(err error) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == pgErrCodeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == pgErrCodeForeignKeyViolation
}

func IsCheckViolation(err error) bool {
	pgErr, ok := pgCode(err)
	return ok && pgErr.Code == pgErrCodeCheckViolation
}

// integrityError maps a PostgreSQL integrity violation onto a ConstraintError,
// what describes the failed write. Any other error is returned unchanged.
func integrityError(err error, what string) error {
	pgErr, ok := pgCode(err)
	if !ok {
		return err
	}

	var kind error
	switch pgErr.Code {
	case pgErrCodeUniqueViolation:
		kind = ErrDuplicateKey
	case pgErrCodeForeignKeyViolation:
		kind = ErrForeignKeyViolation
	case pgErrCodeCheckViolation:
		kind = ErrCheckViolation
	default:
		return err
	}

	return fmt.Errorf("%s: %w", what, &ConstraintError{Constraint: pgErr.ConstraintName, Detail: pgErr.Detail, kind: kind})
}
