package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"fleetwatch/internal/config"
)

// NewPool construye y devuelve un pool de conexiones configurado.
func NewPool(ctx context.Context, cfg *config.ServerConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 30 * time.Second
	poolCfg.ConnConfig.ConnectTimeout = 5 * time.Second

	return pgxpool.NewWithConfig(ctx, poolCfg)
}

// Ping verifica conectividad con la base de datos.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vessels (
	id                   BIGSERIAL PRIMARY KEY,
	imo                  BIGINT NOT NULL UNIQUE,
	mmsi                 BIGINT NOT NULL DEFAULT 0,
	name                 TEXT NOT NULL,
	vessel_type          TEXT NOT NULL DEFAULT '',
	flag                 TEXT NOT NULL DEFAULT '',
	status               TEXT NOT NULL DEFAULT 'offline',
	last_position_lat    DOUBLE PRECISION,
	last_position_lon    DOUBLE PRECISION,
	last_speed           DOUBLE PRECISION,
	last_heading         DOUBLE PRECISION,
	last_position_update TIMESTAMPTZ,
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vessel_positions (
	id        BIGSERIAL PRIMARY KEY,
	vessel_id BIGINT NOT NULL REFERENCES vessels(id) ON DELETE CASCADE,
	latitude  DOUBLE PRECISION NOT NULL,
	longitude DOUBLE PRECISION NOT NULL,
	speed     DOUBLE PRECISION,
	heading   DOUBLE PRECISION,
	timestamp TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS vessel_positions_vessel_ts_idx
	ON vessel_positions (vessel_id, timestamp DESC);
`

// EnsureSchema crea las tablas del simulador si no existen.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, schema)
	return err
}
