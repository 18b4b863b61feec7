package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/carozum/bot-support-client/internal/domain"
)

// Loader idempotently writes a source file with its chunks and QA pairs in a
// single transaction, and handles the symmetric cascade removal.
type Loader struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

func NewLoader(pool *pgxpool.Pool, logger zerolog.Logger) *Loader {
	return &Loader{pool: pool, logger: logger}
}

// LoadResult reports what a LoadFile call wrote.
type LoadResult struct {
	SourceID        int64
	InsertedChunks  int
	InsertedQAPairs int
	AlreadyIngested bool
}

// AlreadyIngested reports whether a committed source row exists for filename.
func (l *Loader) AlreadyIngested(ctx context.Context, filename string) (bool, error) {
	return NewSourceFileRepository(l.pool).Exists(ctx, filename)
}

// LoadFile inserts the source row, its chunks and their QA pairs as one
// transaction. If the source row already exists the whole call is a no-op.
// Any failure rolls back entirely, leaving the file eligible for
// reprocessing: "already ingested" means a committed source row, nothing less.
func (l *Loader) LoadFile(ctx context.Context, filename string, chunks []domain.Chunk) (*LoadResult, error) {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	repo := NewSourceFileRepositoryWithTx(tx)

	sourceID, inserted, err := repo.InsertFile(ctx, filename)
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to insert source file", err)
	}
	if !inserted {
		l.logger.Info().Str("file", filename).Msg("file already ingested, skipping")
		return &LoadResult{AlreadyIngested: true}, nil
	}

	result := &LoadResult{SourceID: sourceID}
	for _, chunk := range chunks {
		if chunk.Content == "" {
			return nil, domain.ErrEmptyChunk
		}
		chunkID, err := repo.InsertChunk(ctx, sourceID, chunk.Title, chunk.Content, chunk.Page, chunk.TokenCount)
		if err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to insert chunk", err)
		}
		result.InsertedChunks++

		for _, pair := range chunk.QAPairs {
			if err := repo.InsertQA(ctx, chunkID, pair.Question, pair.Answer); err != nil {
				return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to insert qa pair", err)
			}
			result.InsertedQAPairs++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to commit", err)
	}

	l.logger.Info().
		Str("file", filename).
		Int("chunks", result.InsertedChunks).
		Int("qa_pairs", result.InsertedQAPairs).
		Msg("file loaded")
	return result, nil
}

// RemoveFile deletes the source row for filename; the store cascades to its
// chunks and QA pairs. A missing row is reported, not an error.
func (l *Loader) RemoveFile(ctx context.Context, filename string) (bool, error) {
	deleted, err := NewSourceFileRepository(l.pool).DeleteByFilename(ctx, filename)
	if err != nil {
		return false, domain.NewDomainErrorWithCause(domain.ErrCodePersistence, "failed to remove source file", err)
	}
	if deleted {
		l.logger.Info().Str("file", filename).Msg("source row removed, chunks and qa cascade")
	} else {
		l.logger.Info().Str("file", filename).Msg("no source row for file, maybe already removed")
	}
	return deleted, nil
}
