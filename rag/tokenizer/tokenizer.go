// Package tokenizer counts prompt tokens so evidence can be trimmed to a
// budget before it is sent for generation.
package tokenizer

import (
	"strings"
	"unicode"
)

// Tokenizer counts tokens in text.
type Tokenizer interface {
	CountTokens(text string) int
}

var _ Tokenizer = SimpleTokenizer{}

// SimpleTokenizer approximates a BPE count without a vocabulary:
// letter/digit runs are one token per four runes (rounded up), Han
// characters and punctuation one token each. It is safe for concurrent use.
type SimpleTokenizer struct{}

// NewSimpleTokenizer returns the fallback tokenizer.
func NewSimpleTokenizer() Tokenizer {
	return SimpleTokenizer{}
}

func (SimpleTokenizer) CountTokens(text string) int {
	count, run := 0, 0
	flush := func() {
		if run > 0 {
			count += (run + 3) / 4
			run = 0
		}
	}
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			flush()
		case unicode.Is(unicode.Han, r):
			flush()
			count++
		case unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r):
			run++
		default:
			flush()
			count++
		}
	}
	flush()
	return count
}

// FitLines keeps lines in order while their joined token count stays within
// budget. The first line is always kept so the caller has something to send.
// A budget <= 0 keeps everything.
func FitLines(tok Tokenizer, lines []string, budget int) []string {
	if budget <= 0 || tok == nil {
		return lines
	}
	out := make([]string, 0, len(lines))
	used := 0
	for i, line := range lines {
		n := tok.CountTokens(line) + 1
		if i > 0 && used+n > budget {
			break
		}
		used += n
		out = append(out, line)
	}
	return out
}

// Fit trims text to budget on line boundaries.
func Fit(tok Tokenizer, text string, budget int) string {
	return strings.Join(FitLines(tok, strings.Split(text, "\n"), budget), "\n")
}
