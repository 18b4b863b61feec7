package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/carozum/bot-support-client/internal/config"
	"github.com/carozum/bot-support-client/internal/database"
)

// IngestCmd returns the one-shot ingestion command, useful for backfills and
// for reprocessing a file without going through the drop directory.
func IngestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingest <pdf-path>",
		Short: "Ingest a single PDF without watching",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := args[0]
	if !strings.EqualFold(filepath.Ext(path), ".pdf") {
		return fmt.Errorf("%s is not a PDF", path)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pipe, err := buildPipeline(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	pipe.OnCreated(ctx, path)
	return nil
}
