// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gomodule/redigo/redis"
)

/*

Sessions

*/

// sessionTTL is how long an untouched session survives in redis.
const sessionTTL = 14 * 24 * time.Hour

// ErrNoSession reports a session ID the cache has never seen, or
// one that has aged out.
var ErrNoSession = errors.New("no such session")

// A Session tracks one player's work in progress: the puzzle they
// are on, the digits they have entered over its givens, and their
// move and hint counters. Sessions live only in redis; everything
// here can be abandoned without losing library data.
type Session struct {
	SID      string `redis:"-" json:"sid"`
	PuzzleID string `redis:"puzzleID" json:"puzzle_id"`
	Entries  string `redis:"entries" json:"entries"` // 81 digits, the player's overlay
	Moves    int    `redis:"moves" json:"moves"`
	Hints    int    `redis:"hints" json:"hints"`
	Created  int64  `redis:"created" json:"created"` // unix seconds
	Updated  int64  `redis:"updated" json:"updated"`
}

// sessionKey gives the redis key for a session hash.
func sessionKey(sid string) string {
	return keyPrefix + ":SID:" + sid
}

// SaveSession writes the session hash and refreshes its TTL.
func (s *Store) SaveSession(ctx context.Context, sess *Session) error {
	conn, err := s.cache.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("saving session %q: %w", sess.SID, err)
	}
	defer conn.Close()
	sess.Updated = time.Now().Unix()
	key := sessionKey(sess.SID)
	if err := conn.Send("HSET", redis.Args{}.Add(key).AddFlat(sess)...); err != nil {
		return fmt.Errorf("saving session %q: %w", sess.SID, err)
	}
	if _, err := conn.Do("EXPIRE", key, int64(sessionTTL/time.Second)); err != nil {
		return fmt.Errorf("saving session %q: %w", sess.SID, err)
	}
	return nil
}

// LoadSession reads a session hash back. Unknown IDs come back as
// ErrNoSession.
func (s *Store) LoadSession(ctx context.Context, sid string) (*Session, error) {
	conn, err := s.cache.GetContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", sid, err)
	}
	defer conn.Close()
	values, err := redis.Values(conn.Do("HGETALL", sessionKey(sid)))
	if err != nil {
		return nil, fmt.Errorf("loading session %q: %w", sid, err)
	}
	if len(values) == 0 {
		return nil, ErrNoSession
	}
	sess := &Session{SID: sid}
	if err := redis.ScanStruct(values, sess); err != nil {
		return nil, fmt.Errorf("decoding session %q: %w", sid, err)
	}
	return sess, nil
}

// DeleteSession drops a session outright.
func (s *Store) DeleteSession(ctx context.Context, sid string) error {
	conn, err := s.cache.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("deleting session %q: %w", sid, err)
	}
	defer conn.Close()
	if _, err := conn.Do("DEL", sessionKey(sid)); err != nil {
		return fmt.Errorf("deleting session %q: %w", sid, err)
	}
	return nil
}
