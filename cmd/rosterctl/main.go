// Package main is the operator CLI for the roster store.
//
// It reads the same storage the API writes to, so it is configured through the
// same GEMA_* environment variables.
//
// Usage:
//
//	rosterctl dates                                  # Recorded dates, newest first
//	rosterctl history                                # Every record, newest first
//	rosterctl day --date 2024-01-01                  # Per-date table
//	rosterctl export --date 2024-01-01 --out ./out   # Write penilaian_<date>.xlsx
//	rosterctl version
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-roster-api/internal/config"
	"github.com/noah-isme/gema-roster-api/internal/database"
	"github.com/noah-isme/gema-roster-api/internal/service"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
)

// openRoster loads the roster from configured storage. Tests swap it for an
// in-memory store.
var openRoster = func(ctx context.Context, logger zerolog.Logger) (service.RosterService, func() error, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load configuration: %w", err)
	}

	storage, err := database.Open(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s storage: %w", cfg.StorageDriver, err)
	}

	roster := service.NewRosterService(storage.KeyValue, service.RosterOptions{Key: cfg.RosterKey}, logger)
	if err := roster.Load(ctx); err != nil && !errors.Is(err, service.ErrRosterCorrupt) {
		_ = storage.Close()
		return nil, nil, err
	}

	return roster, storage.Close, nil
}

var rootCmd = &cobra.Command{
	Use:   "rosterctl",
	Short: "Inspect and export the daily conduct roster",
	Long: `rosterctl reads the roster persisted by the GEMA roster API.

Storage is selected with GEMA_STORAGE_DRIVER (memory, redis, sqlite, postgres)
and the matching GEMA_SQLITE_PATH, GEMA_REDIS_URL or GEMA_DATABASE_URL.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rosterctl %s\n", version)
		fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("verbose", false, "log storage activity to stderr")
	rootCmd.AddCommand(versionCmd)
}

// withRoster opens the roster for the duration of fn.
func withRoster(cmd *cobra.Command, fn func(roster service.RosterService, out io.Writer) error) error {
	logger := zerolog.Nop()
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).With().Timestamp().Logger()
	}

	roster, closeFn, err := openRoster(cmd.Context(), logger)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(roster, cmd.OutOrStdout())
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
