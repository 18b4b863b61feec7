package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/carozum/bot-support-client/internal/artifact"
	"github.com/carozum/bot-support-client/internal/chunker"
	"github.com/carozum/bot-support-client/internal/domain"
	"github.com/carozum/bot-support-client/internal/extract"
	"github.com/carozum/bot-support-client/internal/repository"
)

type mockExtractor struct{ mock.Mock }

func (m *mockExtractor) ExtractDocument(ctx context.Context, path string) (*extract.Result, error) {
	args := m.Called(ctx, path)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*extract.Result), args.Error(1)
}

type mockChunker struct{ mock.Mock }

func (m *mockChunker) ChunkDocument(ctx context.Context, text string) ([]chunker.TextChunk, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]chunker.TextChunk), args.Error(1)
}

type mockSynthesizer struct{ mock.Mock }

func (m *mockSynthesizer) Synthesize(ctx context.Context, content string, tokenCount int) []domain.QAPair {
	args := m.Called(ctx, content, tokenCount)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.QAPair)
}

type mockLoader struct{ mock.Mock }

func (m *mockLoader) AlreadyIngested(ctx context.Context, filename string) (bool, error) {
	args := m.Called(ctx, filename)
	return args.Bool(0), args.Error(1)
}

func (m *mockLoader) LoadFile(ctx context.Context, filename string, chunks []domain.Chunk) (*repository.LoadResult, error) {
	args := m.Called(ctx, filename, chunks)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.LoadResult), args.Error(1)
}

func (m *mockLoader) RemoveFile(ctx context.Context, filename string) (bool, error) {
	args := m.Called(ctx, filename)
	return args.Bool(0), args.Error(1)
}

type mockArtifacts struct{ mock.Mock }

func (m *mockArtifacts) Write(ctx context.Context, prefix, title string, entries []artifact.Entry) (string, error) {
	args := m.Called(ctx, prefix, title, entries)
	return args.String(0), args.Error(1)
}

func (m *mockArtifacts) Remove(ctx context.Context, pdfFilename string) error {
	args := m.Called(ctx, pdfFilename)
	return args.Error(0)
}

type pipelineMocks struct {
	extractor *mockExtractor
	chunker   *mockChunker
	qa        *mockSynthesizer
	loader    *mockLoader
	artifacts *mockArtifacts
}

func newTestPipeline() (*Pipeline, *pipelineMocks) {
	m := &pipelineMocks{
		extractor: &mockExtractor{},
		chunker:   &mockChunker{},
		qa:        &mockSynthesizer{},
		loader:    &mockLoader{},
		artifacts: &mockArtifacts{},
	}
	return New(m.extractor, m.chunker, m.qa, m.loader, m.artifacts, zerolog.Nop()), m
}

func TestOnCreated_HappyPath(t *testing.T) {
	p, m := newTestPipeline()
	ctx := context.Background()

	m.loader.On("AlreadyIngested", mock.Anything, "Employé Congés.pdf").Return(false, nil)
	m.extractor.On("ExtractDocument", mock.Anything, "/drop/Employé Congés.pdf").
		Return(&extract.Result{Text: "texte linéarisé", Prefix: "Employé", Title: "Congés"}, nil)
	m.chunker.On("ChunkDocument", mock.Anything, "texte linéarisé").
		Return([]chunker.TextChunk{
			{Content: "premier", TokenCount: 100},
			{Content: "second", TokenCount: 550},
		}, nil)
	m.qa.On("Synthesize", mock.Anything, "premier", 100).
		Return([]domain.QAPair{{Question: "Q1 ?", Answer: "R1."}})
	m.qa.On("Synthesize", mock.Anything, "second", 550).
		Return([]domain.QAPair(nil))
	m.artifacts.On("Write", mock.Anything, "Employé", "Congés", mock.Anything).
		Return("/out/Employé Congés_QA.json", nil)
	m.loader.On("LoadFile", mock.Anything, "Employé Congés.pdf", mock.Anything).
		Return(&repository.LoadResult{SourceID: 1, InsertedChunks: 2, InsertedQAPairs: 1}, nil)

	p.OnCreated(ctx, "/drop/Employé Congés.pdf")

	m.loader.AssertExpectations(t)
	m.extractor.AssertExpectations(t)
	m.chunker.AssertExpectations(t)
	m.qa.AssertExpectations(t)
	m.artifacts.AssertExpectations(t)

	// Chunks carry ordinal titles and their QA pairs into persistence.
	loaded := m.loader.Calls[1].Arguments.Get(2).([]domain.Chunk)
	assert.Equal(t, "Chunk 1", loaded[0].Title)
	assert.Equal(t, "Chunk 2", loaded[1].Title)
	assert.Len(t, loaded[0].QAPairs, 1)
	assert.Empty(t, loaded[1].QAPairs)
}

func TestOnCreated_AlreadyIngestedShortCircuits(t *testing.T) {
	p, m := newTestPipeline()

	m.loader.On("AlreadyIngested", mock.Anything, "Employé Congés.pdf").Return(true, nil)

	p.OnCreated(context.Background(), "/drop/Employé Congés.pdf")

	m.loader.AssertExpectations(t)
	m.extractor.AssertNotCalled(t, "ExtractDocument", mock.Anything, mock.Anything)
	m.loader.AssertNotCalled(t, "LoadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnCreated_ExtractionFailureSkipsLoad(t *testing.T) {
	p, m := newTestPipeline()

	m.loader.On("AlreadyIngested", mock.Anything, "Employé Congés.pdf").Return(false, nil)
	m.extractor.On("ExtractDocument", mock.Anything, mock.Anything).
		Return(nil, errors.New("unreadable pdf"))

	p.OnCreated(context.Background(), "/drop/Employé Congés.pdf")

	m.chunker.AssertNotCalled(t, "ChunkDocument", mock.Anything, mock.Anything)
	m.artifacts.AssertNotCalled(t, "Write", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	m.loader.AssertNotCalled(t, "LoadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnCreated_ArtifactFailureSkipsLoad(t *testing.T) {
	p, m := newTestPipeline()

	m.loader.On("AlreadyIngested", mock.Anything, "Employé Congés.pdf").Return(false, nil)
	m.extractor.On("ExtractDocument", mock.Anything, mock.Anything).
		Return(&extract.Result{Text: "texte", Prefix: "Employé", Title: "Congés"}, nil)
	m.chunker.On("ChunkDocument", mock.Anything, "texte").
		Return([]chunker.TextChunk{{Content: "premier", TokenCount: 10}}, nil)
	m.qa.On("Synthesize", mock.Anything, "premier", 10).Return([]domain.QAPair(nil))
	m.artifacts.On("Write", mock.Anything, "Employé", "Congés", mock.Anything).
		Return("", errors.New("disk full"))

	p.OnCreated(context.Background(), "/drop/Employé Congés.pdf")

	m.loader.AssertNotCalled(t, "LoadFile", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnDeleted(t *testing.T) {
	p, m := newTestPipeline()

	m.loader.On("RemoveFile", mock.Anything, "Employé Congés.pdf").Return(true, nil)
	m.artifacts.On("Remove", mock.Anything, "Employé Congés.pdf").Return(nil)

	p.OnDeleted(context.Background(), "/drop/Employé Congés.pdf")

	m.loader.AssertExpectations(t)
	m.artifacts.AssertExpectations(t)
}

func TestOnDeleted_RemoveFailureSkipsArtifact(t *testing.T) {
	p, m := newTestPipeline()

	m.loader.On("RemoveFile", mock.Anything, "Employé Congés.pdf").
		Return(false, errors.New("db down"))

	p.OnDeleted(context.Background(), "/drop/Employé Congés.pdf")

	m.artifacts.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
}
