package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"fxconvert/internal/config"
)

// MigrateUp applies pending migrations from cfg.MigrationsPath. It reports
// whether anything was applied.
func MigrateUp(cfg config.DatabaseConfig) (bool, error) {
	if cfg.DSN == "" {
		return false, fmt.Errorf("database.dsn is required")
	}
	if cfg.MigrationsPath == "" {
		return false, fmt.Errorf("database.migrations_path is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return false, fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return false, fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return false, fmt.Errorf("create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL(cfg.MigrationsPath), "postgres", driver)
	if err != nil {
		return false, fmt.Errorf("create migrator: %w", err)
	}

	upErr := m.Up()
	sourceErr, dbErr := m.Close()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return false, fmt.Errorf("apply migrations: %w", upErr)
	}
	if sourceErr != nil {
		return false, fmt.Errorf("close migration source: %w", sourceErr)
	}
	if dbErr != nil {
		return false, fmt.Errorf("close migration database: %w", dbErr)
	}

	return upErr == nil, nil
}

func sourceURL(path string) string {
	return "file://" + filepath.ToSlash(path)
}
