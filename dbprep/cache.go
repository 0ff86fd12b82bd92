// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

package dbprep

import (
	"context"
	"fmt"

	"github.com/gomodule/redigo/redis"
)

// ClearCache flushes redis. Sessions and cached library entries are
// all rebuildable, so this is safe whenever the database is about to
// be reloaded.
func ClearCache(ctx context.Context, redisURL string) error {
	conn, err := redis.DialURLContext(ctx, redisURL)
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	defer conn.Close()
	if _, err := conn.Do("FLUSHALL"); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}
