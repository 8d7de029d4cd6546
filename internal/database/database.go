package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"mentorship/internal/config"

	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB is the booking ledger and mentor store. All booking writes go through it.
type DB struct {
	*sql.DB
	dialect dialect
	path    string
	logger  *zerolog.Logger
}

// Open picks the dialect from the database config.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresDB(cfg.Postgres.DSN(), cfg.Postgres.MaxConnections, logger)
	case config.DriverSQLite, "":
		return NewDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// NewDB opens (and migrates) a SQLite ledger. ":memory:" is accepted for tests.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	dsn := "file::memory:?_foreign_keys=on"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps :memory: databases shared and serialises
	// writers inside one process; other processes wait on busy_timeout.
	sqlDB.SetMaxOpenConns(1)

	return initDB(sqlDB, sqliteDialect, path, logger)
}

// NewPostgresDB opens (and migrates) a Postgres ledger.
func NewPostgresDB(dsn string, maxConns int, logger *zerolog.Logger) (*DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}

	return initDB(sqlDB, postgresDialect, "", logger)
}

func initDB(sqlDB *sql.DB, d dialect, path string, logger *zerolog.Logger) (*DB, error) {
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: sqlDB, dialect: d, path: path, logger: logger}
	if err := db.migrate(context.Background()); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	if logger != nil {
		logger.Info().Str("driver", d.name).Str("path", path).Msg("database initialized")
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	for _, query := range db.dialect.schema {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Driver reports the dialect name ("sqlite" or "postgres").
func (db *DB) Driver() string {
	return db.dialect.name
}

// Ping satisfies readiness checks.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) q(query string) string {
	return db.dialect.rebind(query)
}
