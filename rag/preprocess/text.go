package preprocess

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize returns NFC, case-folded text with punctuation replaced by
// spaces and whitespace collapsed. Combining marks (Indic vowel signs) are kept.
func Normalize(text string) string {
	text = cases.Fold().String(norm.NFC.String(text))
	var b strings.Builder
	b.Grow(len(text))
	space := true
	for _, r := range text {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '\u200c', r == '\u200d':
			b.WriteRune(r)
			space = false
		default:
			if !space {
				b.WriteByte(' ')
				space = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// Words splits normalized text into words.
func Words(text string) []string {
	return strings.Fields(Normalize(text))
}

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "is": {}, "are": {}, "was": {}, "be": {}, "to": {}, "of": {},
	"in": {}, "on": {}, "for": {}, "and": {}, "or": {}, "my": {}, "me": {}, "i": {}, "what": {},
	"how": {}, "when": {}, "which": {}, "should": {}, "can": {}, "do": {}, "does": {}, "will": {},
	"it": {}, "this": {}, "that": {}, "with": {}, "at": {}, "by": {}, "from": {}, "about": {},
	"please": {}, "tell": {}, "give": {}, "there": {}, "any": {}, "you": {}, "we": {}, "our": {},
	"hai": {}, "ka": {}, "ki": {}, "ke": {}, "kya": {}, "mein": {}, "aur": {},
	"है": {}, "का": {}, "की": {}, "के": {}, "में": {}, "क्या": {}, "और": {}, "आहे": {}, "काय": {},
}

// SignificantWords returns the distinct non-stopword words of text, in order
// of first appearance.
func SignificantWords(text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, w := range Words(text) {
		if _, stop := stopwords[w]; stop {
			continue
		}
		if len([]rune(w)) < 2 {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}

// WordOverlap is the share of a's significant words that also occur in b.
// It is 0 when a has no significant words.
func WordOverlap(a, b string) float64 {
	wa := SignificantWords(a)
	if len(wa) == 0 {
		return 0
	}
	wb := make(map[string]struct{})
	for _, w := range SignificantWords(b) {
		wb[w] = struct{}{}
	}
	common := 0
	for _, w := range wa {
		if _, ok := wb[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(wa))
}

// Similarity is symmetric: common significant words over the larger set.
func Similarity(a, b string) float64 {
	wa, wb := SignificantWords(a), SignificantWords(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		set[w] = struct{}{}
	}
	common := 0
	for _, w := range wa {
		if _, ok := set[w]; ok {
			common++
		}
	}
	denom := len(wa)
	if len(wb) > denom {
		denom = len(wb)
	}
	return float64(common) / float64(denom)
}
