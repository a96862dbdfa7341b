package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps pgxpool.Pool and provides a shared connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects to PostgreSQL and checks that PostGIS is installed.
// maxConns <= 0 keeps the pgx default.
func New(ctx context.Context, dsn string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db := &DB{Pool: pool}
	if _, err := db.PostGISVersion(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// PostGISVersion pings the database through the PostGIS extension and
// returns its version string.
func (db *DB) PostGISVersion(ctx context.Context) (string, error) {
	var v string
	if err := db.Pool.QueryRow(ctx, `SELECT postgis_lib_version()`).Scan(&v); err != nil {
		return "", fmt.Errorf("postgis: %w", err)
	}
	return v, nil
}

// Close releases pool resources.
func (db *DB) Close() {
	db.Pool.Close()
}
