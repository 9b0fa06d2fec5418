package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	driverPostgres = "postgres"
	driverSQLite   = "sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	link     TEXT    NOT NULL UNIQUE,
	created  DATETIME,
	name     TEXT    NOT NULL DEFAULT '',
	price    REAL,
	location TEXT    NOT NULL DEFAULT '',
	cl_id    INTEGER NOT NULL UNIQUE
);`

const postgresSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id       BIGSERIAL PRIMARY KEY,
	link     TEXT   NOT NULL UNIQUE,
	created  TIMESTAMPTZ,
	name     TEXT   NOT NULL DEFAULT '',
	price    DOUBLE PRECISION,
	location TEXT   NOT NULL DEFAULT '',
	cl_id    BIGINT NOT NULL UNIQUE
);`

// Open connects to the listing database and makes sure the listings table
// exists. A postgres:// or postgresql:// DSN selects PostgreSQL, anything
// else is treated as a path to a local SQLite file (an optional sqlite://
// prefix is stripped).
func Open(ctx context.Context, dsn string) (*sqlx.DB, error) {
	driver, source, err := resolveDSN(dsn)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == driverSQLite {
		// One writer keeps the per-item commits strictly ordered.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	schema := sqliteSchema
	if driver == driverPostgres {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create listings table: %w", err)
	}

	log.Info().Str("driver", driver).Msg("Database connection successful")
	return db, nil
}

func resolveDSN(dsn string) (driver, source string, err error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres, dsn, nil
	}

	path := strings.TrimPrefix(dsn, "sqlite://")
	if path == "" {
		return "", "", fmt.Errorf("empty database path")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", "", fmt.Errorf("failed to create directory for database: %w", err)
		}
	}

	return driverSQLite, fmt.Sprintf("%s?_busy_timeout=5000&_journal=WAL", path), nil
}
