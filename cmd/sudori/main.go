// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

// Command sudori runs the web service: it prepares the database,
// connects storage, and serves the JSON API until interrupted.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/grayfold/sudori/dbprep"
	"github.com/grayfold/sudori/storage"
	"github.com/grayfold/sudori/web"
)

func main() {
	log := newLogger(os.Getenv("LOG_LEVEL"))
	if err := run(log); err != nil {
		log.Error("service failed", "err", err)
		os.Exit(1)
	}
}

// newLogger builds the service logger, text to stderr, level from
// LOG_LEVEL (debug, info, warn, error; default info).
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func run(log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storageCfg := storage.ConfigFromEnv()
	if err := dbprep.EnsureData(ctx, storageCfg.DatabaseURL, log); err != nil {
		return err
	}
	store, err := storage.Connect(ctx, storageCfg, log)
	if err != nil {
		return err
	}
	defer store.Close()

	webCfg := web.ConfigFromEnv()
	srv := &http.Server{
		Addr:              webCfg.Addr,
		Handler:           web.New(webCfg, store, log).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("serving", "addr", webCfg.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
