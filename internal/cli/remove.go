package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/carozum/bot-support-client/internal/artifact"
	"github.com/carozum/bot-support-client/internal/config"
	"github.com/carozum/bot-support-client/internal/database"
	"github.com/carozum/bot-support-client/internal/repository"
)

// RemoveCmd returns the command deleting everything ingested for one file.
func RemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <pdf-filename>",
		Short: "Delete all rows and the artifact for an ingested PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runRemove,
	}
}

func runRemove(cmd *cobra.Command, args []string) error {
	filename := filepath.Base(args[0])

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	ctx := context.Background()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	loader := repository.NewLoader(pool, logger)
	removed, err := loader.RemoveFile(ctx, filename)
	if err != nil {
		return err
	}
	if !removed {
		fmt.Printf("%s was not ingested, nothing to remove\n", filename)
	} else {
		fmt.Printf("removed %s and its chunks and QA pairs\n", filename)
	}

	store := artifact.NewStore(cfg.OutputDir, logger)
	if err := store.Remove(ctx, filename); err != nil {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}
