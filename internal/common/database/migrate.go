package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationStatus is the schema version after a migration command.
type MigrationStatus struct {
	Version uint
	Dirty   bool
	Changed bool
}

// Migrate runs command ("up", "down" or "version") against databaseURL using
// the SQL files under dir.
func Migrate(databaseURL, dir, command string) (MigrationStatus, error) {
	m, err := migrate.New(fmt.Sprintf("file://%s", dir), databaseURL)
	if err != nil {
		return MigrationStatus{}, fmt.Errorf("failed to create migration instance: %w", err)
	}
	defer m.Close()

	var status MigrationStatus
	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "version":
	default:
		return status, fmt.Errorf("unknown migration command %q (use: up, down, version)", command)
	}

	switch {
	case errors.Is(err, migrate.ErrNoChange):
	case err != nil:
		return status, fmt.Errorf("migration %s failed: %w", command, err)
	default:
		status.Changed = command != "version"
	}

	status.Version, status.Dirty, err = m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return status, fmt.Errorf("failed to read migration version: %w", err)
	}
	return status, nil
}
