// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/jackc/pgx/v5"
)

/*

The puzzle library

*/

// puzzleTTL is how long a library entry may sit in the cache.
const puzzleTTL = 24 * time.Hour

// ErrNoPuzzle reports a puzzle ID that is in neither the cache nor
// the database.
var ErrNoPuzzle = errors.New("no such puzzle")

// A SavedPuzzle is one library entry: the givens, and the solution
// when one was recorded at save time. Grids travel as 81-digit
// strings here; the engine's Grid type never touches a wire or a
// table.
type SavedPuzzle struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Difficulty string    `json:"difficulty"`
	Givens     string    `json:"givens"`
	Solution   string    `json:"solution,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Signature returns the content address of a givens string: the
// leading sixteen hex digits of its SHA-256. Identical givens get
// identical IDs, so reseeding and duplicate saves are harmless.
func Signature(givens string) string {
	sum := sha256.Sum256([]byte(givens))
	return hex.EncodeToString(sum[:])[:16]
}

// puzzleKey gives the redis key for a cached library entry.
func puzzleKey(id string) string {
	return keyPrefix + ":PID:" + id
}

// PuzzleByID fetches one library entry, trying the cache first and
// falling back to the database, refreshing the cache on the way
// out. Cache trouble is logged and absorbed; only the database is
// load-bearing.
func (s *Store) PuzzleByID(ctx context.Context, id string) (*SavedPuzzle, error) {
	p, err := s.cachedPuzzle(ctx, id)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, redis.ErrNil) {
		s.log.Warn("puzzle cache read failed", "id", id, "err", err)
	}
	p, err = s.databasePuzzle(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.cachePuzzle(ctx, p); err != nil {
		s.log.Warn("puzzle cache write failed", "id", id, "err", err)
	}
	return p, nil
}

// SavePuzzle inserts a library entry, quietly keeping the existing
// row when the same givens were saved before, and primes the cache.
func (s *Store) SavePuzzle(ctx context.Context, p *SavedPuzzle) error {
	if p.ID == "" {
		p.ID = Signature(p.Givens)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO puzzles (id, name, difficulty, givens, solution, created_at)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
		 ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Difficulty, p.Givens, p.Solution, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving puzzle %q: %w", p.ID, err)
	}
	if err := s.cachePuzzle(ctx, p); err != nil {
		s.log.Warn("puzzle cache write failed", "id", p.ID, "err", err)
	}
	return nil
}

// ListPuzzles returns the library, optionally filtered to one
// difficulty, ordered by difficulty then name.
func (s *Store) ListPuzzles(ctx context.Context, difficulty string) ([]*SavedPuzzle, error) {
	const base = `SELECT id, name, difficulty, givens, COALESCE(solution, ''), created_at FROM puzzles`
	var rows pgx.Rows
	var err error
	if difficulty == "" {
		rows, err = s.db.Query(ctx, base+` ORDER BY difficulty, name`)
	} else {
		rows, err = s.db.Query(ctx, base+` WHERE difficulty = $1 ORDER BY name`, difficulty)
	}
	if err != nil {
		return nil, fmt.Errorf("listing puzzles: %w", err)
	}
	defer rows.Close()
	var out []*SavedPuzzle
	for rows.Next() {
		p := new(SavedPuzzle)
		if err := rows.Scan(&p.ID, &p.Name, &p.Difficulty, &p.Givens, &p.Solution, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("listing puzzles: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing puzzles: %w", err)
	}
	return out, nil
}

// databasePuzzle reads one row from postgres.
func (s *Store) databasePuzzle(ctx context.Context, id string) (*SavedPuzzle, error) {
	p := new(SavedPuzzle)
	err := s.db.QueryRow(ctx,
		`SELECT id, name, difficulty, givens, COALESCE(solution, ''), created_at
		 FROM puzzles WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Difficulty, &p.Givens, &p.Solution, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoPuzzle
	}
	if err != nil {
		return nil, fmt.Errorf("reading puzzle %q: %w", id, err)
	}
	return p, nil
}

// cachedPuzzle reads a library entry from redis. A miss surfaces as
// redis.ErrNil.
func (s *Store) cachedPuzzle(ctx context.Context, id string) (*SavedPuzzle, error) {
	conn, err := s.cache.GetContext(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	blob, err := redis.Bytes(conn.Do("GET", puzzleKey(id)))
	if err != nil {
		return nil, err
	}
	p := new(SavedPuzzle)
	if err := json.Unmarshal(blob, p); err != nil {
		return nil, err
	}
	return p, nil
}

// cachePuzzle writes a library entry through to redis.
func (s *Store) cachePuzzle(ctx context.Context, p *SavedPuzzle) error {
	blob, err := json.Marshal(p)
	if err != nil {
		return err
	}
	conn, err := s.cache.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("SET", puzzleKey(p.ID), blob, "EX", int64(puzzleTTL/time.Second))
	return err
}

// DropCachedPuzzle evicts one library entry from the cache. Used by
// tests and by reseeding.
func (s *Store) DropCachedPuzzle(ctx context.Context, id string) error {
	conn, err := s.cache.GetContext(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Do("DEL", puzzleKey(id))
	return err
}
