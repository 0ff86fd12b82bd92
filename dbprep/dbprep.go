// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

// Package dbprep installs the database schema and seeds the built-in
// puzzle bank. The daemon runs EnsureData at startup; the sudoctl
// tool exposes the rest for operators and tests.
package dbprep

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/grayfold/sudori/storage"
)

// EnsureData migrates the database to the latest schema and seeds
// the puzzle bank. It is idempotent, so every startup runs it.
func EnsureData(ctx context.Context, databaseURL string, log *slog.Logger) error {
	inVersion, err := SchemaVersion(databaseURL)
	if err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}
	if err := SchemaUp(databaseURL); err != nil {
		return err
	}
	outVersion, err := SchemaVersion(databaseURL)
	if err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}
	if outVersion == 0 {
		return fmt.Errorf("schema still at version 0 after migration")
	}
	if inVersion != outVersion {
		log.Info("migrated schema", "from", inVersion, "to", outVersion)
	}
	return SeedData(ctx, databaseURL, log)
}

// RemoveData tears down the schema, and the bank with it.
func RemoveData(databaseURL string) error {
	version, err := SchemaVersion(databaseURL)
	if err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}
	if version > 0 {
		if err := SchemaDown(databaseURL); err != nil {
			return err
		}
	}
	return nil
}

// ReinitializeAll flushes the cache, drops the schema, and rebuilds
// everything from scratch.
func ReinitializeAll(ctx context.Context, cfg storage.Config, log *slog.Logger) error {
	if err := ClearCache(ctx, cfg.RedisURL); err != nil {
		return err
	}
	if err := RemoveData(cfg.DatabaseURL); err != nil {
		return err
	}
	return EnsureData(ctx, cfg.DatabaseURL, log)
}
