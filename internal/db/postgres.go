// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/uptrace/bun"

	"github.com/sustc/sustc/internal/logging"
)

// allTables lists every table created by the schema, parents before children.
var allTables = []string{
	"user_auth", "user_profile", "user_follow",
	"video", "video_stat", "video_like", "video_coin", "video_fav", "video_view",
	"danmu", "danmu_like",
}

// queryer is the subset of *bun.DB and bun.Tx the store issues queries on.
type queryer interface {
	execRawProvider
	NewSelect() *bun.SelectQuery
	NewInsert() *bun.InsertQuery
	NewUpdate() *bun.UpdateQuery
	NewDelete() *bun.DeleteQuery
}

// PostgresStore is the PostgreSQL implementation of the Store interface.
// Queries go through bun; bulk loading uses the pgx pool directly for COPY.
type PostgresStore struct {
	pool *pgxpool.Pool
	db   *bun.DB
	bun  queryer
	inTx bool
	opts Options
}

var _ Store = (*PostgresStore)(nil)

// BunDB exposes the underlying bun handle, mainly for tests.
func (s *PostgresStore) BunDB() *bun.DB { return s.db }

// RunInTx implements Store. Nested calls reuse the outer transaction.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(&PostgresStore{pool: s.pool, db: s.db, bun: tx, inTx: true, opts: s.opts})
	})
}

// Close releases the bun handle and the pool.
func (s *PostgresStore) Close() error {
	if s.inTx {
		return nil
	}
	err := s.db.Close()
	s.pool.Close()
	return err
}

// Sum implements Store with a database round trip.
func (s *PostgresStore) Sum(ctx context.Context, a, b int) (int, error) {
	var n int
	if err := QueryRawInto(ctx, s.bun, &n, "SELECT ?::INTEGER + ?::INTEGER", a, b); err != nil {
		return 0, fmt.Errorf("sum: %w", err)
	}
	return n, nil
}

// Truncate empties every table of the public schema when the store was
// opened with AllowTruncate. Otherwise it only logs.
func (s *PostgresStore) Truncate(ctx context.Context) error {
	if !s.opts.AllowTruncate {
		logging.Infof("truncate is disabled; set database.allow_truncate to enable it")
		return nil
	}
	const q = `
DO $$
DECLARE
    t RECORD;
BEGIN
    FOR t IN SELECT tablename FROM pg_tables WHERE schemaname = 'public'
    LOOP
        EXECUTE 'TRUNCATE TABLE ' || QUOTE_IDENT(t.tablename) || ' CASCADE';
    END LOOP;
END $$;`
	if _, err := s.pool.Exec(ctx, q); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	storeEvent("schema truncated", "schema", "public")
	return nil
}
