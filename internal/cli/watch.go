// Package cli wires configuration, dependencies and commands for the
// ingestion daemon.
package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/carozum/bot-support-client/internal/artifact"
	"github.com/carozum/bot-support-client/internal/chunker"
	"github.com/carozum/bot-support-client/internal/config"
	"github.com/carozum/bot-support-client/internal/database"
	"github.com/carozum/bot-support-client/internal/extract"
	"github.com/carozum/bot-support-client/internal/openai"
	"github.com/carozum/bot-support-client/internal/pipeline"
	"github.com/carozum/bot-support-client/internal/qa"
	"github.com/carozum/bot-support-client/internal/repository"
	"github.com/carozum/bot-support-client/internal/server"
	"github.com/carozum/bot-support-client/internal/telemetry"
	"github.com/carozum/bot-support-client/internal/tokenizer"
	"github.com/carozum/bot-support-client/internal/watcher"

	openaiapi "github.com/sashabaranov/go-openai"
)

// WatchCmd returns the watch command, the daemon's default mode.
func WatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the drop directory and ingest PDFs as they arrive",
		RunE:  runWatch,
	}

	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

func initTelemetry(cfg *config.Config) func() {
	if cfg.SentryDSN == "" {
		return func() {}
	}

	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}

	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
	})
	if err != nil {
		return func() {}
	}
	return shutdown
}

func buildPipeline(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (*pipeline.Pipeline, error) {
	if !cfg.HasOpenAI() {
		return nil, fmt.Errorf("OPENAI_API_KEY is required for captioning and QA generation")
	}

	counter, err := tokenizer.New()
	if err != nil {
		return nil, fmt.Errorf("failed to load tokenizer: %w", err)
	}

	aiClient := openai.NewClientWithConfig(openai.Config{
		APIKey:       cfg.OpenAIAPIKey,
		CaptionModel: cfg.CaptionModel,
		QAModel:      cfg.QAModel,
		EmbedModel:   openaiapi.EmbeddingModel(cfg.EmbedModel),
	})

	extractor := extract.New(extract.NewTesseractOCR(cfg.OCRLanguage), aiClient, logger)

	chk := chunker.New(aiClient, counter, chunker.Config{
		MinSplitTokens:      cfg.ChunkMinTokens,
		MaxSplitTokens:      cfg.ChunkMaxTokens,
		WindowSize:          cfg.ChunkWindowSize,
		ThresholdAdjustment: cfg.ChunkThresholdAdjust,
	}, logger)

	store := artifact.NewStore(cfg.OutputDir, logger)
	if cfg.HasS3() {
		mirror, err := artifact.NewS3Mirror(ctx, artifact.S3MirrorConfig{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKey,
			SecretAccessKey: cfg.S3SecretKey,
			Bucket:          cfg.S3Bucket,
			UsePathStyle:    true,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create artifact mirror: %w", err)
		}
		if err := mirror.EnsureBucket(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure artifact bucket: %w", err)
		}
		logger.Info().Str("bucket", cfg.S3Bucket).Msg("artifact mirror ready")
		store = store.WithMirror(mirror)
	}

	loader := repository.NewLoader(pool, logger)

	return pipeline.New(extractor, chk, qa.New(aiClient, logger), loader, store, logger), nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	shutdownTelemetry := initTelemetry(cfg)
	defer shutdownTelemetry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

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

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.NewRouter(repository.NewSourceFileRepository(pool), logger),
	}
	go func() {
		logger.Info().Str("port", cfg.Port).Msg("ops server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("ops server failed")
		}
	}()

	watchErr := watcher.New(cfg.DropDir, pipe, logger).Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("ops server forced to shut down")
	}

	if watchErr != nil && watchErr != context.Canceled {
		return watchErr
	}
	logger.Info().Msg("shut down")
	return nil
}
