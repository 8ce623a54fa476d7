package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	dbMaxConns        = 25
	dbMaxConnIdleTime = 5 * time.Minute
	dbMaxConnLifetime = 2 * time.Hour
)

// NewPostgresPool opens the connection pool the wallet and catalog stores
// run on, verifying connectivity before handing it out. Pool limits keep a
// burst of settlement traffic from exhausting Postgres connections.
func NewPostgresPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	if url == "" {
		return nil, fmt.Errorf("database url is required")
	}

	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	cfg.MaxConns = dbMaxConns
	cfg.MaxConnIdleTime = dbMaxConnIdleTime
	cfg.MaxConnLifetime = dbMaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return pool, nil
}
