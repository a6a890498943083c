// Package cli implements the amciu command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"amciuday/internal/db"
	"amciuday/internal/ingredient"
	"amciuday/internal/logger"
	"amciuday/internal/store"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

var errNoDatabase = errors.New("no database configured: set DATABASE_URL or pass --database-url")

// NewRootCommand returns the "amciu" command with every subcommand attached.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "amciu",
		Short: "Tools for the Amciu Day recipe service",
		Long: `amciu works with the ingredient synonym table and the recipe database
behind the Amciu Day API.

Examples:
  amciu normalize "Pomidory" "jajka"    # print canonical keys
  amciu table check --strict            # validate the synonym table
  amciu scrape --meal dinner URL...     # build seed JSON from recipe pages
  amciu seed recipes.json               # import seed recipes`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("table", os.Getenv("SYNONYMS_PATH"), "Synonym table file (default: embedded table)")
	cmd.PersistentFlags().String("log-level", envOr("LOG_LEVEL", "info"), "Log level for diagnostics on stderr")

	cmd.AddCommand(NormalizeCommand())
	cmd.AddCommand(TableCommand())
	cmd.AddCommand(RenormalizeCommand())
	cmd.AddCommand(SeedCommand())
	cmd.AddCommand(ScrapeCommand())
	cmd.AddCommand(TokenCommand())

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func cmdLogger(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logger.NewWithWriter(cmd.ErrOrStderr(), level)
}

func loadEngine(cmd *cobra.Command) (*ingredient.Engine, error) {
	path, _ := cmd.Flags().GetString("table")
	engine, err := ingredient.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load synonym table: %w", err)
	}
	log := cmdLogger(cmd)
	for _, w := range engine.Table().Warnings() {
		log.Warn("synonym_table_warning", "warning", w)
	}
	return engine, nil
}

func addDatabaseFlag(cmd *cobra.Command) {
	cmd.Flags().String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")
}

// openStore migrates the database and returns a store over a new pool. The
// caller closes the pool.
func openStore(ctx context.Context, cmd *cobra.Command) (*store.Store, *pgxpool.Pool, error) {
	url, _ := cmd.Flags().GetString("database-url")
	if url == "" {
		return nil, nil, errNoDatabase
	}
	if err := db.Migrate(url); err != nil {
		return nil, nil, err
	}
	pool, err := db.NewPool(ctx, url)
	if err != nil {
		return nil, nil, err
	}
	return store.New(pool), pool, nil
}
