// Package db opens the Postgres pool behind the postgres record store. The
// catalogue is one JSONB document, so the pool stays small and every query
// is a single row read or upsert.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lyzr/imagestore/common/config"
	"github.com/lyzr/imagestore/common/logger"
)

const (
	applicationName = "imagestore"
	connectTimeout  = 5 * time.Second
	pingTimeout     = 3 * time.Second
)

// DB is the pool used by store.PostgresStore. Query methods come from the
// embedded pool.
type DB struct {
	*pgxpool.Pool
	log *logger.Logger
}

// PoolConfig turns the Postgres settings into a pool config without
// connecting
func PoolConfig(cfg *config.Config) (*pgxpool.Config, error) {
	pc, err := pgxpool.ParseConfig(cfg.DatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	d := cfg.Database
	pc.MaxConns = int32(d.MaxConns)
	pc.MinConns = int32(d.MinConns)
	pc.MaxConnLifetime = d.MaxLifetime
	pc.MaxConnIdleTime = d.MaxIdleTime
	pc.ConnConfig.ConnectTimeout = connectTimeout
	pc.ConnConfig.RuntimeParams["application_name"] = applicationName

	return pc, nil
}

// Open connects and pings. A pool that cannot reach the server is closed
// before returning so startup fails fast.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*DB, error) {
	pc, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	database := &DB{Pool: pool, log: log}
	if err := database.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("document database connected",
		"host", cfg.Database.Host,
		"db", cfg.Database.Database,
		"max_conns", pc.MaxConns,
	)
	return database, nil
}

// Ping checks the server with a short deadline; used by the detailed health
// check
func (db *DB) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return db.Pool.Ping(ctx)
}

func (db *DB) Close() {
	db.log.Info("closing document database pool")
	db.Pool.Close()
}
