// Package db is the SQLite catalog of conversions: one row per input file
// with a summary of every variable written.
package db

import (
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	_ "modernc.org/sqlite"

	"github.com/banshee-data/ctdconvert/internal/monitoring"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

type DB struct {
	*sql.DB
}

// getMigrationsFS returns the embedded migration files rooted at the
// migrations directory.
func getMigrationsFS() (fs.FS, error) {
	return fs.Sub(embeddedMigrations, "migrations")
}

// OpenDB opens the database without touching the schema. The migrate
// subcommand uses it so that migrations stay in control.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	return &DB{db}, nil
}

// NewDB opens the database and brings the schema up to date.
func NewDB(path string) (*DB, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}

	migrationsFS, err := getMigrationsFS()
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := db.MigrateUp(migrationsFS); err != nil {
		db.Close()
		return nil, err
	}

	version, _, _ := db.MigrateVersion(migrationsFS)
	monitoring.Logf("catalog %s at schema version %d", path, version)
	return db, nil
}
