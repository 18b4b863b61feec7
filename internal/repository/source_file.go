package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// dbtx is the slice of pgx shared by pools and transactions, so a repository
// works inside or outside a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SourceFileRepository persists source files, chunks and QA pairs. Filename
// uniqueness on aide_ligne_fichier is the system's sole deduplication key;
// both child tables cascade on delete.
type SourceFileRepository struct {
	db dbtx
}

func NewSourceFileRepository(pool *pgxpool.Pool) *SourceFileRepository {
	return &SourceFileRepository{db: pool}
}

func NewSourceFileRepositoryWithTx(tx pgx.Tx) *SourceFileRepository {
	return &SourceFileRepository{db: tx}
}

// InsertFile inserts the source row. ingested reports whether the row was
// actually created: false means a row with that filename already existed and
// nothing was written.
func (r *SourceFileRepository) InsertFile(ctx context.Context, filename string) (id int64, ingested bool, err error) {
	err = r.db.QueryRow(ctx,
		`INSERT INTO aide_ligne_fichier (nom_fichier) VALUES ($1)
		 ON CONFLICT (nom_fichier) DO NOTHING
		 RETURNING id_source`,
		filename,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert source file: %w", err)
	}
	return id, true, nil
}

// Exists reports whether a source row for filename is committed.
func (r *SourceFileRepository) Exists(ctx context.Context, filename string) (bool, error) {
	var one int
	err := r.db.QueryRow(ctx,
		`SELECT 1 FROM aide_ligne_fichier WHERE nom_fichier = $1`, filename,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check source file: %w", err)
	}
	return true, nil
}

// DeleteByFilename removes the source row; chunks and QA pairs go with it via
// ON DELETE CASCADE. deleted is false when no row matched, which is not an
// error: the file may simply never have been ingested.
func (r *SourceFileRepository) DeleteByFilename(ctx context.Context, filename string) (deleted bool, err error) {
	var id int64
	err = r.db.QueryRow(ctx,
		`DELETE FROM aide_ligne_fichier WHERE nom_fichier = $1 RETURNING id_source`,
		filename,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to delete source file: %w", err)
	}
	return true, nil
}

// InsertChunk inserts one chunk for a source and returns its id.
func (r *SourceFileRepository) InsertChunk(ctx context.Context, sourceID int64, title, content string, page *int, tokenCount int) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx,
		`INSERT INTO aide_ligne_chunk (titre, contenu, id_source, page, nombre_tokens)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id_chunk`,
		title, content, sourceID, page, tokenCount,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chunk: %w", err)
	}
	return id, nil
}

// InsertQA inserts one question/answer pair for a chunk.
func (r *SourceFileRepository) InsertQA(ctx context.Context, chunkID int64, question, answer string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO aide_ligne_qa (question, "réponse", id_chunk) VALUES ($1, $2, $3)`,
		question, answer, chunkID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert qa pair: %w", err)
	}
	return nil
}

// Counts returns row counts for the three tables, used by the ops endpoint.
func (r *SourceFileRepository) Counts(ctx context.Context) (files, chunks, qas int64, err error) {
	err = r.db.QueryRow(ctx,
		`SELECT
			(SELECT count(*) FROM aide_ligne_fichier),
			(SELECT count(*) FROM aide_ligne_chunk),
			(SELECT count(*) FROM aide_ligne_qa)`,
	).Scan(&files, &chunks, &qas)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return files, chunks, qas, nil
}
