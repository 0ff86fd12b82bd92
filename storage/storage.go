// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

// Package storage joins the two backends the service keeps state
// in: redis for sessions and the puzzle cache, postgres for the
// puzzle library itself. Redis content is disposable; everything in
// it can be rebuilt from postgres and the embedded seed bank.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"

	"github.com/gomodule/redigo/redis"
	"github.com/jackc/pgx/v5/pgxpool"
)

// keyPrefix namespaces every redis key the service writes.
const keyPrefix = "sudori"

// Config carries the connection targets for both backends.
type Config struct {
	RedisURL    string
	DatabaseURL string
}

// ConfigFromEnv reads REDIS_URL and DATABASE_URL, with localhost
// defaults for development.
func ConfigFromEnv() Config {
	cfg := Config{
		RedisURL:    os.Getenv("REDIS_URL"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
	}
	if cfg.RedisURL == "" {
		cfg.RedisURL = "redis://localhost:6379/"
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = "postgres://localhost/sudori?sslmode=disable"
	}
	return cfg
}

// A Store is an open handle on both backends. Methods are safe for
// concurrent use; the pools do the heavy lifting.
type Store struct {
	cache *redis.Pool
	db    *pgxpool.Pool
	log   *slog.Logger
}

// Connect opens both backends and pings each one, so a service that
// starts is a service that can reach its state.
func Connect(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	cache := &redis.Pool{
		MaxIdle:     3,
		IdleTimeout: 4 * time.Minute,
		DialContext: func(ctx context.Context) (redis.Conn, error) {
			return redis.DialURLContext(ctx, cfg.RedisURL)
		},
		// connections can go away without warning; ping stale ones
		// before handing them out
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
	conn, err := cache.GetContext(ctx)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("connecting to cache at %s: %w", redacted(cfg.RedisURL), err)
	}
	if _, err := conn.Do("PING"); err != nil {
		conn.Close()
		cache.Close()
		return nil, fmt.Errorf("pinging cache at %s: %w", redacted(cfg.RedisURL), err)
	}
	conn.Close()

	db, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("connecting to database at %s: %w", redacted(cfg.DatabaseURL), err)
	}
	if err := db.Ping(ctx); err != nil {
		cache.Close()
		db.Close()
		return nil, fmt.Errorf("pinging database at %s: %w", redacted(cfg.DatabaseURL), err)
	}

	log.Info("storage connected",
		"cache", redacted(cfg.RedisURL),
		"database", redacted(cfg.DatabaseURL))
	return &Store{cache: cache, db: db, log: log}, nil
}

// Close releases both backends.
func (s *Store) Close() {
	s.db.Close()
	if err := s.cache.Close(); err != nil {
		s.log.Warn("closing cache pool", "err", err)
	}
}

// Ping checks both backends, for health endpoints.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.cache.GetContext(ctx)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	_, err = conn.Do("PING")
	conn.Close()
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	return nil
}

// redacted strips credentials from a connection URL for logs.
func redacted(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "(unparseable URL)"
	}
	return u.Redacted()
}
