// Package database provides database migration tooling.
package database

import (
	"embed"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5" // pgx5 database driver
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var fs embed.FS

// migrationsFromSource returns a migration source driver from the embedded migrations.
func migrationsFromSource() source.Driver {
	d, err := iofs.New(fs, "migrations")
	if err != nil {
		panic(err)
	}
	return d
}

// Migrator is the interface for the migration tooling.
type Migrator interface {
	Up() error
	Down() error
	Steps(int) error
	Version() (uint, bool, error)
}

// NewFromConnectionString returns a new migration instance from the given
// connection string. Standard postgres:// URLs are accepted and routed to
// the pgx5 driver.
func NewFromConnectionString(connString string) (Migrator, error) {
	if strings.HasPrefix(connString, "postgres://") {
		connString = "pgx5://" + strings.TrimPrefix(connString, "postgres://")
	}
	return migrate.NewWithSourceInstance("iofs", migrationsFromSource(), connString)
}
