// Package tokenizer provides token counting for chunk sizing and QA budgets.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Counter counts tokens with a tiktoken encoding. It is a pure function over
// text: counting the same content always yields the same number, which is what
// lets stored token counts be recomputed and verified.
type Counter struct {
	enc *tiktoken.Tiktoken
}

func New() (*Counter, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
