// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate is returned when attempting to insert a record that already exists.
	ErrDuplicate = errors.New("duplicate record")
	// ErrForeignKey is returned when a referenced row is missing.
	ErrForeignKey = errors.New("referenced record does not exist")
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidRecord is returned by ImportData for records that violate a
	// column limit.
	ErrInvalidRecord = errors.New("invalid import record")
)

// PostgreSQL SQLSTATE codes mapped by MapDBError.
const (
	sqlStateUniqueViolation     = "23505"
	sqlStateForeignKeyViolation = "23503"
)

// MapDBError inspects low-level driver errors and maps common constraint
// violations and empty results to package-level sentinel errors. Errors that
// carry a *pgconn.PgError are mapped by SQLSTATE; anything else falls back to
// a string match.
func MapDBError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case sqlStateUniqueViolation:
			return ErrDuplicate
		case sqlStateForeignKeyViolation:
			return ErrForeignKey
		}
		return err
	}
	le := strings.ToLower(err.Error())
	if strings.Contains(le, "duplicate") || strings.Contains(le, sqlStateUniqueViolation) {
		return ErrDuplicate
	}
	if strings.Contains(le, "foreign key") || strings.Contains(le, sqlStateForeignKeyViolation) {
		return ErrForeignKey
	}
	return err
}
