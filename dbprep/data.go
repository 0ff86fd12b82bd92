// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package dbprep

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"gopkg.in/yaml.v3"

	"github.com/grayfold/sudori/gridio"
	"github.com/grayfold/sudori/storage"
)

/*

the built-in puzzle bank

*/

//go:embed bank.yaml
var bankYAML []byte

// A BankPuzzle is one entry of the built-in library: a named,
// difficulty-rated set of givens in 81-digit form.
type BankPuzzle struct {
	Name       string `yaml:"name"`
	Difficulty string `yaml:"difficulty"`
	Givens     string `yaml:"givens"`
}

// Bank returns the built-in puzzle library in bank order.
func Bank() ([]BankPuzzle, error) {
	var doc struct {
		Puzzles []BankPuzzle `yaml:"puzzles"`
	}
	if err := yaml.Unmarshal(bankYAML, &doc); err != nil {
		return nil, fmt.Errorf("parsing puzzle bank: %w", err)
	}
	return doc.Puzzles, nil
}

/*

seeding the bank into the database

*/

// SeedData inserts the bank into the puzzles table inside one
// transaction. Rows already present, keyed by the signature of
// their givens, stay as they are, so reseeding on every startup is
// harmless.
func SeedData(ctx context.Context, databaseURL string, log *slog.Logger) error {
	bank, err := Bank()
	if err != nil {
		return err
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("seeding puzzle bank: %w", err)
	}
	defer pool.Close()

	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("seeding puzzle bank: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()
	for _, bp := range bank {
		g, err := gridio.Parse(bp.Givens)
		if err != nil {
			return fmt.Errorf("bank puzzle %q: %w", bp.Name, err)
		}
		if cells := g.Conflicts(); len(cells) > 0 {
			return fmt.Errorf("bank puzzle %q: givens conflict at %d cells", bp.Name, len(cells))
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO puzzles (id, name, difficulty, givens, created_at)
			 VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (id) DO NOTHING`,
			storage.Signature(bp.Givens), bp.Name, bp.Difficulty, bp.Givens, now)
		if err != nil {
			return fmt.Errorf("seeding puzzle %q: %w", bp.Name, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("seeding puzzle bank: %w", err)
	}
	log.Info("seeded puzzle bank", "puzzles", len(bank))
	return nil
}
