// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/canonical/taskboard/internal/logging"
	"github.com/canonical/taskboard/internal/monitoring"
	"github.com/canonical/taskboard/internal/tracing"
)

var _ DBClientInterface = (*DBClient)(nil)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	TracingEnabled  bool
}

// DBClient owns the pgx pool and the database/sql handle squirrel runs on.
type DBClient struct {
	pool *pgxpool.Pool
	db   *sql.DB

	begin func(context.Context) (TxInterface, error)

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func builder(runner sq.BaseRunner) sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(sq.Dollar).RunWith(runner)
}

// Statement returns a builder running on the request transaction, opening it
// on first use. Outside of WithTx statements run directly on the pool. When
// the transaction cannot be opened every statement fails with that error, so
// row locks are never silently dropped.
func (d *DBClient) Statement(ctx context.Context) sq.StatementBuilderType {
	lt := lazyTxFromContext(ctx)
	if lt == nil {
		return builder(d.db)
	}

	tx, err := lt.get()
	if err != nil {
		d.logger.Errorf("statement refused: %v", err)
		return builder(failedRunner{err: err})
	}

	return builder(tx)
}

func (d *DBClient) beginReadCommitted(ctx context.Context) (TxInterface, error) {
	tx, err := d.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (d *DBClient) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

func (d *DBClient) Close() {
	if d.db != nil {
		_ = d.db.Close()
	}

	if d.pool != nil {
		d.pool.Close()
	}
}

func poolConfig(cfg Config) (*pgxpool.Config, error) {
	c, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid DSN: %w", err)
	}

	if cfg.TracingEnabled {
		c.ConnConfig.Tracer = otelpgx.NewTracer()
	}

	if cfg.MaxConns > 0 {
		c.MaxConns = cfg.MaxConns
	}
	c.MinConns = cfg.MinConns

	if cfg.MaxConnLifetime > 0 {
		c.MaxConnLifetime = cfg.MaxConnLifetime
		c.MaxConnLifetimeJitter = cfg.MaxConnLifetime / 10
	}
	if cfg.MaxConnIdleTime > 0 {
		c.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	return c, nil
}

// NewDBClient opens the pool and checks the database answers before
// returning.
func NewDBClient(cfg Config, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) (*DBClient, error) {
	c, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), c)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if cfg.TracingEnabled {
		if err := otelpgx.RecordStats(pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to record database pool stats: %w", err)
		}
	}

	d := &DBClient{
		pool:    pool,
		db:      stdlib.OpenDBFromPool(pool),
		tracer:  tracer,
		monitor: monitor,
		logger:  logger,
	}
	d.begin = d.beginReadCommitted

	if err := d.db.Ping(); err != nil {
		d.Close()
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	return d, nil
}
