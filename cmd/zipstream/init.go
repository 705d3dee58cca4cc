package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/sagarc03/zipstream/config"
	"github.com/sagarc03/zipstream/database"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the job history tables",
	Long: `Create the job history tables in the configured database and
check their schema. Run this once before serving with history enabled.

Examples:
  # SQLite file next to the binary
  zipstream init --db-dsn zipstream.db

  # PostgreSQL
  zipstream init --db-type postgres --db-dsn postgres://zipstream@localhost/zipstream`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	addDatabaseFlags(initCmd)
	rootCmd.AddCommand(initCmd)
}

// addDatabaseFlags registers the history database flags on cmd.
func addDatabaseFlags(cmd *cobra.Command) {
	cmd.Flags().String("db-type", "", "history database type: sqlite, postgres (default: sqlite)")
	cmd.Flags().String("db-dsn", "", "history database DSN (default: zipstream.db)")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.FromContext(ctx)
	if err != nil {
		return err
	}

	db, err := database.Open(ctx, cfg.Database, true)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	slog.Info("job history initialized",
		"type", cfg.Database.Type,
		"table", cfg.Database.Tables.Jobs,
	)
	return nil
}
