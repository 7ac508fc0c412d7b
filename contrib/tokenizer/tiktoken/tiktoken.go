// Package tiktoken counts prompt tokens with the BPE vocabularies used by
// OpenAI models.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/rag/tokenizer"
)

// DefaultEncoding covers the GPT-4 family.
const DefaultEncoding = "cl100k_base"

// Counter implements tokenizer.Tokenizer. Special tokens are counted as
// plain text.
type Counter struct {
	bpe *tiktoken.Tiktoken
}

var _ tokenizer.Tokenizer = (*Counter)(nil)

// New loads the vocabulary for a model name such as "gpt-4o-mini", or for
// an encoding name such as "cl100k_base".
func New(name string) (*Counter, error) {
	bpe, err := tiktoken.EncodingForModel(name)
	if err == nil {
		return &Counter{bpe: bpe}, nil
	}
	if bpe, err = tiktoken.GetEncoding(name); err != nil {
		return nil, fmt.Errorf("tiktoken %q: %w", name, err)
	}
	return &Counter{bpe: bpe}, nil
}

func (c *Counter) CountTokens(text string) int {
	return len(c.bpe.EncodeOrdinary(text))
}

// NewOrFallback returns a Counter for name, DefaultEncoding when empty. The
// vocabulary is downloaded on first use, so offline it falls back to the
// approximate counter.
func NewOrFallback(name string) tokenizer.Tokenizer {
	if name == "" {
		name = DefaultEncoding
	}
	c, err := New(name)
	if err != nil {
		logging.WithComponent("tokenizer").Info("using approximate token counts", "error", err)
		return tokenizer.NewSimpleTokenizer()
	}
	return c
}
