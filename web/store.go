// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package web

import (
	"context"

	"github.com/grayfold/sudori/storage"
)

// A Store is what the handlers need from persistent storage. It is
// satisfied by *storage.Store; tests substitute an in-memory fake.
type Store interface {
	PuzzleByID(ctx context.Context, id string) (*storage.SavedPuzzle, error)
	SavePuzzle(ctx context.Context, p *storage.SavedPuzzle) error
	ListPuzzles(ctx context.Context, difficulty string) ([]*storage.SavedPuzzle, error)
	LoadSession(ctx context.Context, sid string) (*storage.Session, error)
	SaveSession(ctx context.Context, sess *storage.Session) error
	DeleteSession(ctx context.Context, sid string) error
	Ping(ctx context.Context) error
}
