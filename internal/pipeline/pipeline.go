// Package pipeline drives one PDF through extraction, chunking, QA synthesis,
// artifact export and persistence, and handles the symmetric deletion flow.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carozum/bot-support-client/internal/artifact"
	"github.com/carozum/bot-support-client/internal/chunker"
	"github.com/carozum/bot-support-client/internal/domain"
	"github.com/carozum/bot-support-client/internal/extract"
	"github.com/carozum/bot-support-client/internal/repository"
	"github.com/carozum/bot-support-client/internal/telemetry"
)

// Extractor linearizes one PDF into a reading-ordered text document.
type Extractor interface {
	ExtractDocument(ctx context.Context, path string) (*extract.Result, error)
}

// Chunker splits a linearized document into token-bounded chunks.
type Chunker interface {
	ChunkDocument(ctx context.Context, text string) ([]chunker.TextChunk, error)
}

// Synthesizer generates QA pairs for one chunk; failures yield an empty list.
type Synthesizer interface {
	Synthesize(ctx context.Context, content string, tokenCount int) []domain.QAPair
}

// Loader is the persistence side of the pipeline.
type Loader interface {
	AlreadyIngested(ctx context.Context, filename string) (bool, error)
	LoadFile(ctx context.Context, filename string, chunks []domain.Chunk) (*repository.LoadResult, error)
	RemoveFile(ctx context.Context, filename string) (bool, error)
}

// ArtifactStore writes and removes the per-file JSON export.
type ArtifactStore interface {
	Write(ctx context.Context, prefix, title string, entries []artifact.Entry) (string, error)
	Remove(ctx context.Context, pdfFilename string) error
}

// Pipeline processes drop-directory events one file at a time.
type Pipeline struct {
	extractor Extractor
	chunker   Chunker
	qa        Synthesizer
	loader    Loader
	artifacts ArtifactStore
	logger    zerolog.Logger
}

func New(extractor Extractor, chunker Chunker, qa Synthesizer, loader Loader, artifacts ArtifactStore, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		chunker:   chunker,
		qa:        qa,
		loader:    loader,
		artifacts: artifacts,
		logger:    logger,
	}
}

// OnCreated runs the full ingestion pipeline for a newly dropped PDF. Every
// failure is logged and leaves the file unprocessed and reprocessable; the
// watcher keeps running regardless.
func (p *Pipeline) OnCreated(ctx context.Context, path string) {
	filename := filepath.Base(path)
	logger := p.logger.With().Str("file", filename).Str("run_id", uuid.NewString()).Logger()
	logger.Info().Msg("new pdf detected")

	ctx, span := telemetry.StartIngestion(ctx, filename)
	defer span.End()

	if err := p.ingest(ctx, path, filename, logger); err != nil {
		span.SetError(err)
		logger.Error().Err(err).Msg("ingestion failed, file left for reprocessing")
	}
}

func (p *Pipeline) ingest(ctx context.Context, path, filename string, logger zerolog.Logger) error {
	ingested, err := p.loader.AlreadyIngested(ctx, filename)
	if err != nil {
		return fmt.Errorf("failed to check ingestion state: %w", err)
	}
	if ingested {
		logger.Info().Msg("file already ingested, ignored")
		return nil
	}

	extractCtx, extractSpan := telemetry.StartStage(ctx, "pipeline.extract")
	result, err := p.extractor.ExtractDocument(extractCtx, path)
	extractSpan.End()
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	chunkCtx, chunkSpan := telemetry.StartStage(ctx, "pipeline.chunk")
	textChunks, err := p.chunker.ChunkDocument(chunkCtx, result.Text)
	chunkSpan.End()
	if err != nil {
		return fmt.Errorf("chunking failed: %w", err)
	}
	logger.Info().Int("chunks", len(textChunks)).Msg("document chunked")

	qaCtx, qaSpan := telemetry.StartStage(ctx, "pipeline.qa")
	chunks := make([]domain.Chunk, 0, len(textChunks))
	for i, tc := range textChunks {
		chunk := domain.Chunk{
			Title:      fmt.Sprintf("Chunk %d", i+1),
			Content:    tc.Content,
			TokenCount: tc.TokenCount,
		}
		// QA failure is tolerated: the chunk is persisted without pairs.
		chunk.QAPairs = p.qa.Synthesize(qaCtx, tc.Content, tc.TokenCount)
		chunks = append(chunks, chunk)
	}
	qaSpan.End()

	if _, err := p.artifacts.Write(ctx, result.Prefix, result.Title, artifact.FromChunks(filename, chunks)); err != nil {
		return fmt.Errorf("artifact write failed: %w", err)
	}

	loadCtx, loadSpan := telemetry.StartStage(ctx, "pipeline.load")
	summary, err := p.loader.LoadFile(loadCtx, filename, chunks)
	loadSpan.End()
	if err != nil {
		return fmt.Errorf("persistence failed: %w", err)
	}
	if summary.AlreadyIngested {
		logger.Info().Msg("file appeared in store during processing, nothing written")
		return nil
	}

	logger.Info().
		Int("chunks", summary.InsertedChunks).
		Int("qa_pairs", summary.InsertedQAPairs).
		Msg("ingestion complete")
	return nil
}

// OnDeleted removes the source row (cascading to chunks and QA pairs) and the
// JSON artifact for a PDF that disappeared from the drop directory. A missing
// row or artifact is a no-op.
func (p *Pipeline) OnDeleted(ctx context.Context, path string) {
	filename := filepath.Base(path)
	logger := p.logger.With().Str("file", filename).Str("run_id", uuid.NewString()).Logger()
	logger.Info().Msg("pdf removed, cleaning up")

	if _, err := p.loader.RemoveFile(ctx, filename); err != nil {
		telemetry.CaptureError(ctx, err)
		logger.Error().Err(err).Msg("failed to remove rows for deleted pdf")
		return
	}

	if err := p.artifacts.Remove(ctx, filename); err != nil {
		telemetry.CaptureError(ctx, err)
		logger.Error().Err(err).Msg("failed to remove artifact for deleted pdf")
	}
}
