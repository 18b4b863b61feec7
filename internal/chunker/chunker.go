// Package chunker splits a linearized document into token-bounded,
// semantically coherent chunks using embedding similarity drops between
// consecutive splits.
package chunker

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tmc/langchaingo/textsplitter"
)

// Encoder embeds texts for boundary detection. Embeddings are ephemeral: they
// are never persisted.
type Encoder interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenCounter counts tokens in a text.
type TokenCounter interface {
	Count(text string) int
}

// Config holds the chunking parameters. These are deliberately explicit
// configuration rather than hidden constants.
type Config struct {
	MinSplitTokens      int
	MaxSplitTokens      int
	WindowSize          int
	ThresholdAdjustment float64
}

func DefaultConfig() Config {
	return Config{
		MinSplitTokens:      400,
		MaxSplitTokens:      600,
		WindowSize:          80,
		ThresholdAdjustment: 0.02,
	}
}

// TextChunk is one chunk of document text with its token count.
type TextChunk struct {
	Content    string
	TokenCount int
}

// Chunker performs statistical boundary detection over sentence-level splits.
type Chunker struct {
	enc      Encoder
	counter  TokenCounter
	cfg      Config
	splitter textsplitter.TextSplitter
	logger   zerolog.Logger
}

func New(enc Encoder, counter TokenCounter, cfg Config, logger zerolog.Logger) *Chunker {
	if cfg.MaxSplitTokens <= 0 {
		cfg = DefaultConfig()
	}
	return &Chunker{
		enc:     enc,
		counter: counter,
		cfg:     cfg,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(300),
			textsplitter.WithChunkOverlap(0),
			textsplitter.WithSeparators([]string{"\n\n", "\n", ". ", "? ", "! ", " "}),
		),
		logger: logger,
	}
}

// ChunkDocument splits text into ordered, non-empty chunks. Each chunk is the
// concatenation of consecutive sentence-level splits; a chunk boundary is
// placed where the similarity between the rolling context window and the next
// split drops below the statistical threshold, constrained to the configured
// minimum and maximum token span.
func (c *Chunker) ChunkDocument(ctx context.Context, text string) ([]TextChunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	splits, err := c.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("failed to pre-split document: %w", err)
	}
	splits = dropEmpty(splits)
	if len(splits) == 0 {
		return nil, nil
	}

	tokens := make([]int, len(splits))
	for i, s := range splits {
		tokens[i] = c.counter.Count(s)
	}

	var boundaries map[int]bool
	if len(splits) > 1 {
		embeddings, err := c.enc.EmbedTexts(ctx, splits)
		if err != nil {
			return nil, fmt.Errorf("failed to embed splits: %w", err)
		}
		boundaries = c.detectBoundaries(embeddings)
	}

	var chunks []TextChunk
	var cur []string
	curTokens := 0
	flush := func() {
		content := strings.TrimSpace(strings.Join(cur, " "))
		cur = cur[:0]
		curTokens = 0
		if content == "" {
			return // empty chunks are dropped, never persisted
		}
		chunks = append(chunks, TextChunk{Content: content, TokenCount: c.counter.Count(content)})
	}

	for i, s := range splits {
		cur = append(cur, s)
		curTokens += tokens[i]
		if i == len(splits)-1 {
			break
		}
		if curTokens >= c.cfg.MaxSplitTokens {
			flush()
			continue
		}
		if curTokens >= c.cfg.MinSplitTokens && boundaries[i] {
			flush()
		}
	}
	flush()

	c.logger.Debug().Int("splits", len(splits)).Int("chunks", len(chunks)).Msg("document chunked")
	return chunks, nil
}

// detectBoundaries computes, for each gap between split i and i+1, the cosine
// similarity between the mean embedding of the trailing window and the next
// split, then marks gaps whose similarity falls below one standard deviation
// under the mean, tightened by the configured adjustment.
func (c *Chunker) detectBoundaries(embeddings [][]float32) map[int]bool {
	n := len(embeddings)
	sims := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		start := i + 1 - c.cfg.WindowSize
		if start < 0 {
			start = 0
		}
		sims[i] = cosineSimilarity(meanVector(embeddings[start:i+1]), embeddings[i+1])
	}

	mean, std := meanStd(sims)
	threshold := mean - std + c.cfg.ThresholdAdjustment

	boundaries := make(map[int]bool, len(sims))
	for i, s := range sims {
		if s < threshold {
			boundaries[i] = true
		}
	}
	return boundaries
}

func dropEmpty(splits []string) []string {
	out := splits[:0]
	for _, s := range splits {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func meanVector(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	mean := make([]float32, len(vectors[0]))
	for _, v := range vectors {
		for i := range v {
			mean[i] += v[i]
		}
	}
	for i := range mean {
		mean[i] /= float32(len(vectors))
	}
	return mean
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return 0, 0
	}
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	for _, v := range values {
		std += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(std / float64(len(values)))
}
