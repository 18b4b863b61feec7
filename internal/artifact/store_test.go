package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carozum/bot-support-client/internal/domain"
)

func TestName(t *testing.T) {
	assert.Equal(t, "Employé Congés_QA.json", Name("Employé", "Congés"))
	assert.Equal(t, "Inconnu Notice interne_QA.json", Name("Inconnu", "Notice interne"))
}

func TestFromChunks(t *testing.T) {
	page := 3
	chunks := []domain.Chunk{
		{
			Title:      "Chunk 1",
			Content:    "Contenu du premier chunk",
			Page:       &page,
			TokenCount: 42,
			QAPairs: []domain.QAPair{
				{Question: "Comment poser un congé ?", Answer: "Via le menu Demandes."},
			},
		},
		{Title: "Chunk 2", Content: "Second chunk", TokenCount: 7},
	}

	entries := FromChunks("Employé Congés.pdf", chunks)
	require.Len(t, entries, 2)

	assert.Equal(t, "Chunk 1", entries[0].Titre)
	assert.Equal(t, "Employé Congés.pdf", entries[0].NomFichier)
	assert.Equal(t, &page, entries[0].Page)
	assert.Equal(t, 42, entries[0].NombreTokens)
	require.Len(t, entries[0].QuestionsReponses, 1)
	assert.Equal(t, "Via le menu Demandes.", entries[0].QuestionsReponses[0].Reponse)

	assert.Nil(t, entries[1].Page)
	assert.Empty(t, entries[1].QuestionsReponses)
}

func TestWrite_ProducesContractJSON(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	entries := FromChunks("Employé Congés.pdf", []domain.Chunk{{
		Title:      "Chunk 1",
		Content:    "Contenu",
		TokenCount: 5,
		QAPairs:    []domain.QAPair{{Question: "Q ?", Answer: "R."}},
	}})

	path, err := store.Write(context.Background(), "Employé", "Congés", entries)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Employé Congés_QA.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// The accented réponse key and the null page are part of the contract.
	assert.Contains(t, string(data), `"réponse": "R."`)
	assert.Contains(t, string(data), `"page": null`)
	assert.Contains(t, string(data), `"nom_fichier": "Employé Congés.pdf"`)

	var decoded []Entry
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, entries[0], decoded[0])
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, zerolog.Nop())

	_, err := store.Write(context.Background(), "Employé", "Congés", nil)
	require.NoError(t, err)

	require.NoError(t, store.Remove(context.Background(), "Employé Congés.pdf"))
	_, err = os.Stat(filepath.Join(dir, "Employé Congés_QA.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRemove_MissingArtifactIsNoOp(t *testing.T) {
	store := NewStore(t.TempDir(), zerolog.Nop())
	assert.NoError(t, store.Remove(context.Background(), "Employé Jamais ingéré.pdf"))
}

type recordingMirror struct {
	uploads []string
	deletes []string
	err     error
}

func (m *recordingMirror) Upload(ctx context.Context, key string, body []byte) error {
	m.uploads = append(m.uploads, key)
	return m.err
}

func (m *recordingMirror) Delete(ctx context.Context, key string) error {
	m.deletes = append(m.deletes, key)
	return m.err
}

func TestWrite_MirrorFailureIsNotFatal(t *testing.T) {
	mirror := &recordingMirror{err: errors.New("bucket gone")}
	store := NewStore(t.TempDir(), zerolog.Nop()).WithMirror(mirror)

	_, err := store.Write(context.Background(), "Employé", "Congés", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Employé Congés_QA.json"}, mirror.uploads)

	require.NoError(t, store.Remove(context.Background(), "Employé Congés.pdf"))
	assert.Equal(t, []string{"Employé Congés_QA.json"}, mirror.deletes)
}
