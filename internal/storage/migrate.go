package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaVersion is the migration that creates the expense table without data.
const schemaVersion = 1

// CreateDemoDatabase creates (or upgrades) a SQLite file holding the expense
// table and a year of sample rows.
func CreateDemoDatabase(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		return m.Up()
	})
}

// CreateSchema creates an empty expense table in a SQLite file.
func CreateSchema(dbPath string) error {
	return withMigrator(dbPath, func(m *migrate.Migrate) error {
		return m.Migrate(schemaVersion)
	})
}

func withMigrator(dbPath string, run func(*migrate.Migrate) error) error {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create db directory: %w", err)
		}
	}

	// Use a separate read-write connection; sessions open the file read-only
	migrateDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open migration database: %w", err)
	}
	defer migrateDB.Close()

	driver, err := sqlite.WithInstance(migrateDB, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	defer m.Close()

	if err := run(m); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
