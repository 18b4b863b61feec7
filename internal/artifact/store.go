// Package artifact writes the per-file JSON export of the ingested data and
// removes it when the source PDF disappears.
package artifact

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/carozum/bot-support-client/internal/domain"
	"github.com/carozum/bot-support-client/internal/extract"
)

// Entry is one chunk in the JSON artifact. Field names are part of the export
// contract, including the accented réponse key.
type Entry struct {
	Titre             string    `json:"titre"`
	Contenu           string    `json:"contenu"`
	Page              *int      `json:"page"`
	NomFichier        string    `json:"nom_fichier"`
	NombreTokens      int       `json:"nombre_tokens"`
	QuestionsReponses []QAEntry `json:"questions_reponses"`
}

type QAEntry struct {
	Question string `json:"question"`
	Reponse  string `json:"réponse"`
}

// Mirror replicates artifacts to secondary storage. Optional.
type Mirror interface {
	Upload(ctx context.Context, key string, body []byte) error
	Delete(ctx context.Context, key string) error
}

// Store writes artifacts into the output directory, optionally mirroring them.
type Store struct {
	dir    string
	mirror Mirror
	logger zerolog.Logger
}

func NewStore(dir string, logger zerolog.Logger) *Store {
	return &Store{dir: dir, logger: logger}
}

// WithMirror attaches a secondary store; mirror failures are logged, never
// fatal.
func (s *Store) WithMirror(m Mirror) *Store {
	s.mirror = m
	return s
}

// Name returns the artifact filename for a derived (prefix, title) pair.
func Name(prefix, title string) string {
	return fmt.Sprintf("%s %s_QA.json", prefix, title)
}

// FromChunks converts assembled chunks into artifact entries.
func FromChunks(filename string, chunks []domain.Chunk) []Entry {
	entries := make([]Entry, 0, len(chunks))
	for _, c := range chunks {
		qa := make([]QAEntry, 0, len(c.QAPairs))
		for _, p := range c.QAPairs {
			qa = append(qa, QAEntry{Question: p.Question, Reponse: p.Answer})
		}
		entries = append(entries, Entry{
			Titre:             c.Title,
			Contenu:           c.Content,
			Page:              c.Page,
			NomFichier:        filename,
			NombreTokens:      c.TokenCount,
			QuestionsReponses: qa,
		})
	}
	return entries
}

// Write serializes the entries to `{prefix} {title}_QA.json` in the output
// directory and returns the full path.
func (s *Store) Write(ctx context.Context, prefix, title string, entries []Entry) (string, error) {
	data, err := json.MarshalIndent(entries, "", "    ")
	if err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeArtifact, "failed to marshal artifact", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeArtifact, "failed to create output directory", err)
	}

	name := Name(prefix, title)
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", domain.NewDomainErrorWithCause(domain.ErrCodeArtifact, "failed to write artifact", err)
	}
	s.logger.Info().Str("artifact", path).Msg("artifact written")

	if s.mirror != nil {
		if err := s.mirror.Upload(ctx, name, data); err != nil {
			s.logger.Warn().Err(err).Str("key", name).Msg("artifact mirror upload failed")
		}
	}
	return path, nil
}

// Remove deletes the artifact corresponding to the given PDF filename,
// rebuilding the artifact name through the same filename derivation used at
// ingestion time. A missing artifact is a no-op, not an error.
func (s *Store) Remove(ctx context.Context, pdfFilename string) error {
	prefix, title := extract.DeriveTitle(pdfFilename)
	name := Name(prefix, title)
	path := filepath.Join(s.dir, name)

	err := os.Remove(path)
	switch {
	case err == nil:
		s.logger.Info().Str("artifact", path).Msg("artifact removed")
	case os.IsNotExist(err):
		s.logger.Debug().Str("artifact", path).Msg("no artifact to remove")
	default:
		return domain.NewDomainErrorWithCause(domain.ErrCodeArtifact, "failed to remove artifact", err)
	}

	if s.mirror != nil {
		if err := s.mirror.Delete(ctx, name); err != nil {
			s.logger.Warn().Err(err).Str("key", name).Msg("artifact mirror delete failed")
		}
	}
	return nil
}
