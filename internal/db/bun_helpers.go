// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"database/sql"

	"github.com/uptrace/bun"
)

// execRawProvider is a small interface used to accept either *bun.DB or bun.Tx
// since both expose NewRaw(...) returning *bun.RawQuery.
type execRawProvider interface {
	NewRaw(query string, args ...interface{}) *bun.RawQuery
}

// ExecRaw executes a raw SQL statement using the provided Bun DB or transaction.
func ExecRaw(ctx context.Context, exec execRawProvider, query string, args ...interface{}) (sql.Result, error) {
	return exec.NewRaw(query, args...).Exec(ctx)
}

// QueryRawInto runs a raw query and scans the result into dest using Bun's RawQuery.Scan.
func QueryRawInto(ctx context.Context, exec execRawProvider, dest interface{}, query string, args ...interface{}) error {
	return exec.NewRaw(query, args...).Scan(ctx, dest)
}

// execAffected runs query and reports whether it touched at least one row.
func execAffected(ctx context.Context, exec execRawProvider, query string, args ...interface{}) (bool, error) {
	res, err := ExecRaw(ctx, exec, query, args...)
	if err != nil {
		return false, MapDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// queryExists scans a single boolean, typically SELECT EXISTS(...).
func queryExists(ctx context.Context, exec execRawProvider, query string, args ...interface{}) (bool, error) {
	var ok bool
	if err := QueryRawInto(ctx, exec, &ok, query, args...); err != nil {
		return false, MapDBError(err)
	}
	return ok, nil
}

// queryList scans a single column into a slice. The result is never nil so
// callers can tell an empty list from a failed lookup.
func queryList[T any](ctx context.Context, exec execRawProvider, query string, args ...interface{}) ([]T, error) {
	out := make([]T, 0)
	if err := QueryRawInto(ctx, exec, &out, query, args...); err != nil {
		return nil, MapDBError(err)
	}
	return out, nil
}
