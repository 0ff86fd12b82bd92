// sudori - a sudoku solving and verification service.
// Copyright (C) 2026 the sudori authors.
//
// Licensed under the MIT license. See the LICENSE file for details.

// Command sudoctl is the operator's CLI: it prepares and clears the
// storage backends, and offers offline batch solving, verification,
// and a view of the embedded puzzle bank.
package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/grayfold/sudori/dbprep"
	"github.com/grayfold/sudori/storage"
)

var rootCmd = &cobra.Command{
	Use:           "sudoctl",
	Short:         "Operate a sudori deployment",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// opsLogger is the logger the storage-touching subcommands share.
func opsLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

func init() {
	prepareCmd := &cobra.Command{
		Use:   "prepare",
		Short: "Migrate the database schema and seed the puzzle bank",
		Long: `Bring the database up to the current schema and load the embedded
puzzle bank. Safe to run repeatedly: migrations and seeding are both
idempotent. Targets come from DATABASE_URL and REDIS_URL, with
localhost defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := storage.ConfigFromEnv()
			return dbprep.EnsureData(cmd.Context(), cfg.DatabaseURL, opsLogger())
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Flush the cache, rebuild the schema, and reseed",
		Long: `Destroy all stored state and start over: flush redis, tear the
database schema down and back up, and reseed the puzzle bank. User
puzzles and sessions are lost.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := storage.ConfigFromEnv()
			return dbprep.ReinitializeAll(cmd.Context(), cfg, opsLogger())
		},
	}

	rootCmd.AddCommand(prepareCmd, clearCmd)
}
