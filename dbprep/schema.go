// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package dbprep

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// newMigrator builds a migrator over the embedded migration files.
func newMigrator(databaseURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("reading migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, databaseURL)
}

// SchemaUp brings the database to the latest schema. Already being
// there is not an error.
func SchemaUp(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return fmt.Errorf("installing schema: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("installing schema: %w", err)
	}
	return nil
}

// SchemaDown tears the schema all the way down.
func SchemaDown(databaseURL string) error {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return fmt.Errorf("removing schema: %w", err)
	}
	defer m.Close()
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("removing schema: %w", err)
	}
	return nil
}

// SchemaVersion reports the schema version the database is at, zero
// when no migrations have run yet.
func SchemaVersion(databaseURL string) (uint, error) {
	m, err := newMigrator(databaseURL)
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	defer m.Close()
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return version, fmt.Errorf("schema version %d is dirty, repair it by hand", version)
	}
	return version, nil
}
