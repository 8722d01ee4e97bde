package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

// NewPgxPool creates a new PostgreSQL connection pool.
func NewPgxPool(ctx context.Context, databaseURL string, ping bool) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}

	// pgxpool.ParseConfig automatically reads environment variables like PGHOST, PGUSER, etc.
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config from URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if ping {
		if err := pool.Ping(ctx); err != nil {
			pool.Close() // Close the pool if ping fails
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
	}

	slog.Debug("Connected to PostgreSQL database")
	return pool, nil
}

// ClosePgxPool closes the PostgreSQL connection pool.
func ClosePgxPool(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
		slog.Debug("PostgreSQL connection pool closed")
	}
}

// NewSQLX opens a database/sql handle on the pgx driver for the read-only reports.
func NewSQLX(ctx context.Context, databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL cannot be empty")
	}
	db, err := sqlx.ConnectContext(ctx, "pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open report connection: %w", err)
	}
	return db, nil
}

// MigrateUp applies every pending migration found at migrationsPath (a golang-migrate source URL).
// It reports whether anything changed.
func MigrateUp(databaseURL, migrationsPath string) (bool, error) {
	m, closeDB, err := newMigrate(databaseURL, migrationsPath)
	if err != nil {
		return false, err
	}
	defer closeDB()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		return false, closeMigrate(m)
	}
	if err != nil {
		return false, fmt.Errorf("failed to apply migrations: %w", err)
	}
	return true, closeMigrate(m)
}

// MigrateDown reverts the last steps migrations.
func MigrateDown(databaseURL, migrationsPath string, steps int) error {
	m, closeDB, err := newMigrate(databaseURL, migrationsPath)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return closeMigrate(m)
}

func newMigrate(databaseURL, migrationsPath string) (*migrate.Migrate, func(), error) {
	// Using pgx/v5/stdlib driver to be compatible with the main pool
	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database connection for migrations: %w", err)
	}
	closeDB := func() {
		if cerr := migrationDB.Close(); cerr != nil {
			slog.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}
	if err := migrationDB.Ping(); err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("failed to ping database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("could not create postgres driver instance for migrations: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(migrationsPath, "postgres", driver)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("could not create migrate instance: %w", err)
	}
	return m, closeDB, nil
}

// closeMigrate checks for source and database errors left by a run.
func closeMigrate(m *migrate.Migrate) error {
	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return fmt.Errorf("migration source error: %w", sourceErr)
	}
	if dbErr != nil {
		return fmt.Errorf("migration database error: %w", dbErr)
	}
	return nil
}
