// Copyright (c) 2026 SUSTC Team
// SUSTC - video platform database service
// This source code is licensed under the MIT license found in the LICENSE file.

// package db provides the data access layer for SUSTC.
// It abstracts the backend (PostgreSQL or the in-memory store) behind the
// Store interface so the services interact with either in a uniform way.
package db // import "github.com/sustc/sustc/internal/db"

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"github.com/sustc/sustc/internal/model"
)

// Backend names accepted by New.
const (
	TypePostgres = "postgres"
	TypeMemory   = "memory"
)

// Options configures a store.
type Options struct {
	Type           string
	DSN            string
	MaxConns       int32
	ConnectRetries uint
	AllowTruncate  bool
	// Workers bounds the password hashing fan-out of ImportData.
	Workers int
	// BatchSize is the number of rows sent per COPY call.
	BatchSize int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) batchSize() int {
	if o.BatchSize > 0 {
		return o.BatchSize
	}
	return model.CopyBatchSize
}

// New opens the backend selected by opts.Type.
func New(ctx context.Context, opts Options) (Store, error) {
	switch opts.Type {
	case TypePostgres, "pgx", "":
		return Open(ctx, opts)
	case TypeMemory:
		return NewMemStore(opts), nil
	default:
		return nil, fmt.Errorf("unsupported database type for store creation: '%s'", opts.Type)
	}
}

// Open connects a pgx pool to opts.DSN, retrying while the server comes up,
// and wraps it in a bun DB for the query layer.
func Open(ctx context.Context, opts Options) (*PostgresStore, error) {
	start := time.Now()
	pcfg, err := pgxpool.ParseConfig(opts.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database dsn: %w", err)
	}

	// Pool limits can be overridden via environment variables for CI or
	// production tuning.
	if opts.MaxConns > 0 {
		pcfg.MaxConns = opts.MaxConns
	}
	if v := os.Getenv("SUSTC_DB_MAX_CONNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pcfg.MaxConns = int32(n)
		}
	}
	pcfg.MaxConnLifetime = 30 * time.Minute
	if v := os.Getenv("SUSTC_DB_CONN_MAX_LIFETIME_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			pcfg.MaxConnLifetime = time.Duration(n) * time.Second
		}
	}
	pcfg.MaxConnIdleTime = time.Minute
	if v := os.Getenv("SUSTC_DB_CONN_MAX_IDLE_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			pcfg.MaxConnIdleTime = time.Duration(n) * time.Second
		}
	}

	var pool *pgxpool.Pool
	retryCount := 0
	err = retry.Do(func() error {
		p, err := pgxpool.NewWithConfig(ctx, pcfg)
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := p.Ping(pingCtx); err != nil {
			p.Close()
			storeEvent("ping failed, retrying", "host", pcfg.ConnConfig.Host, "err", err)
			return err
		}
		pool = p
		return nil
	},
		retry.Context(ctx),
		retry.Attempts(opts.ConnectRetries+1),
		retry.Delay(time.Second),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) { retryCount++ }),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d retries: %w", retryCount, err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	bunDB := bun.NewDB(sqlDB, pgdialect.New())
	storeEvent("pool opened", "elapsed", time.Since(start), "max_conns", pcfg.MaxConns, "retries", retryCount)

	return &PostgresStore{pool: pool, db: bunDB, bun: bunDB, opts: opts}, nil
}
