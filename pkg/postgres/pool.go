package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PoolOption configures Connect.
type PoolOption func(*PoolConfig)

type PoolConfig struct {
	DSN            string
	MinConns       int
	MaxConns       int
	ConnectTimeout time.Duration
}

func WithDSN(dsn string) PoolOption {
	return func(c *PoolConfig) {
		c.DSN = dsn
	}
}

func WithConns(minConns, maxConns int) PoolOption {
	return func(c *PoolConfig) {
		c.MinConns = minConns
		c.MaxConns = maxConns
	}
}

func WithConnectTimeout(d time.Duration) PoolOption {
	return func(c *PoolConfig) {
		c.ConnectTimeout = d
	}
}

// Connect creates a pool and pings it, retrying with exponential backoff
// until ConnectTimeout elapses.
func Connect(ctx context.Context, opts ...PoolOption) (*pgxpool.Pool, error) {
	cfg := &PoolConfig{MinConns: 1, MaxConns: 8, ConnectTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.DSN == "" {
		return nil, fmt.Errorf("dsn is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = cfg.ConnectTimeout
	if err := backoff.Retry(func() error { return pool.Ping(ctx) }, backoff.WithContext(bo, ctx)); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}
