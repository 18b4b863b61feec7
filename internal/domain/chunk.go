package domain

import "time"

// Chunk is a token-bounded, semantically coherent span of a source file's
// linearized text. Content is never empty: empty chunks are dropped before
// persistence. Page is reserved; the current chunker does not populate it.
type Chunk struct {
	ID         int64
	Title      string
	Content    string
	SourceID   int64
	Page       *int
	TokenCount int
	CreatedAt  time.Time

	// QAPairs generated for this chunk. May be empty: QA generation failure
	// is tolerated, not fatal.
	QAPairs []QAPair
}

// QAPair is one synthesized question/answer record attached to a chunk.
type QAPair struct {
	ID        int64
	Question  string
	Answer    string
	ChunkID   int64
	CreatedAt time.Time
}
