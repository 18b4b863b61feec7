// Package qa synthesizes question/answer pairs for document chunks through a
// generative model, tolerating malformed model output.
package qa

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/carozum/bot-support-client/internal/domain"
)

// tokensPerPair is the content budget that earns one additional QA pair.
const tokensPerPair = 512

// generationTemperature keeps the model's answers close to the source text.
const generationTemperature = 0.3

// Generator produces a JSON-object completion for a prompt pair.
type Generator interface {
	GenerateJSON(ctx context.Context, system, user string, temperature float32) (string, error)
}

// Synthesizer generates QA pairs for chunks.
type Synthesizer struct {
	gen    Generator
	logger zerolog.Logger
}

func New(gen Generator, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{gen: gen, logger: logger}
}

// PairCount returns how many QA pairs to request for a chunk of the given
// token count: more content requests more pairs, linearly.
func PairCount(tokenCount int) int {
	return tokenCount/tokensPerPair + 1
}

// Synthesize generates QA pairs for the chunk content. Generation or parse
// failures are logged and yield an empty list: a chunk without QA pairs is
// still persisted, the pipeline never aborts here.
func (s *Synthesizer) Synthesize(ctx context.Context, content string, tokenCount int) []domain.QAPair {
	n := PairCount(tokenCount)

	reply, err := s.gen.GenerateJSON(ctx, systemPrompt(n), userPrompt(n, content), generationTemperature)
	if err != nil {
		s.logger.Warn().Err(err).Int("requested", n).Msg("qa generation failed")
		return nil
	}

	pairs, err := parseReply(reply)
	if err != nil {
		s.logger.Warn().Err(err).Str("reply", reply).Msg("unparseable qa reply")
		return nil
	}
	return pairs
}

func systemPrompt(n int) string {
	return fmt.Sprintf(`Tu es un assistant au sein de la société Octime et tu génères des questions réponses sur la base de contenus qui te sont fournis. Tes réponses doivent être détaillées et précises. Tu réponds sous la forme d'un objet JSON de %d entrées dont le format est le suivant :
{
    "question 1": {"la question que tu génères": "la réponse que tu génères à ta question"},
    "question 2": {"la question que tu génères": "la réponse que tu génères à ta question"},
    ...
}`, n)
}

func userPrompt(n int, content string) string {
	return fmt.Sprintf("Génère %d questions avec leur réponse au format JSON demandé sur le contenu suivant :\n\n%s", n, content)
}

// parseReply decodes the model's nested object: ordinal labels mapping to
// single-entry question→answer objects, flattened into an ordered list.
func parseReply(reply string) ([]domain.QAPair, error) {
	var nested map[string]map[string]string
	if err := json.Unmarshal([]byte(reply), &nested); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedQAReply, err)
	}

	keys := make([]string, 0, len(nested))
	for k := range nested {
		keys = append(keys, k)
	}
	sortOrdinalKeys(keys)

	var pairs []domain.QAPair
	for _, k := range keys {
		inner := nested[k]
		questions := make([]string, 0, len(inner))
		for q := range inner {
			questions = append(questions, q)
		}
		sort.Strings(questions)
		for _, q := range questions {
			pairs = append(pairs, domain.QAPair{Question: q, Answer: inner[q]})
		}
	}
	return pairs, nil
}

var trailingIntRe = regexp.MustCompile(`(\d+)\s*$`)

// sortOrdinalKeys orders labels like "question 1", "question 2", "question 10"
// numerically; labels without a trailing number sort lexically after them.
func sortOrdinalKeys(keys []string) {
	ordinal := func(k string) (int, bool) {
		m := trailingIntRe.FindStringSubmatch(k)
		if m == nil {
			return 0, false
		}
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}

	sort.SliceStable(keys, func(i, j int) bool {
		ni, oki := ordinal(keys[i])
		nj, okj := ordinal(keys[j])
		switch {
		case oki && okj:
			if ni != nj {
				return ni < nj
			}
			return keys[i] < keys[j]
		case oki:
			return true
		case okj:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
}
