package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

const dayMigrationsPath = "migrations/day"

//go:embed migrations/day/*.sql
var migrationsFS embed.FS

// MigrateDayDB applies day-store migrations. Idempotent: an up-to-date
// database is left untouched.
func MigrateDayDB(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate %s: nil db", dayMigrationsPath)
	}

	sourceDriver, err := iofs.New(migrationsFS, dayMigrationsPath)
	if err != nil {
		return fmt.Errorf("migrate %s: init source: %w", dayMigrationsPath, err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("migrate %s: init db driver: %w", dayMigrationsPath, err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("migrate %s: init migrator: %w", dayMigrationsPath, err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate %s: up: %w", dayMigrationsPath, err)
	}
	return nil
}
