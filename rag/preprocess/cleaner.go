package preprocess

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

var (
	runOfSpaces = regexp.MustCompile(`[ \t]+`)
	blankLines  = regexp.MustCompile(`\n(?:[ \t]*\n){2,}`)

	glyphs = strings.NewReplacer(
		"\u00a0", " ", "\u200b", "", "\ufeff", "",
		"\ufb01", "fi", "\ufb02", "fl",
		"\u2014", "-", "\u2013", "-",
		"\u2022", "-", "\u00b7", "-",
		"\u201c", `"`, "\u201d", `"`, "\u2018", "'", "\u2019", "'",
	)

	// Lines containing any of these are portal chrome, not advice.
	boilerplate = []string{
		"skip to main content", "screen reader access", "all rights reserved",
		"privacy policy", "cookie", "last updated", "visitor count", "copyright",
		"मुख्य सामग्री पर जाएं", "सर्वाधिकार", "स्क्रीन रीडर",
	}
)

// CleanText normalizes scraped text to NFC, drops control characters other
// than newlines and the Indic joiners, maps typographic glyphs to ASCII and
// collapses blank runs.
func CleanText(text string) string {
	if text == "" {
		return ""
	}
	text = norm.NFC.String(glyphs.Replace(text))
	text = strings.Map(func(r rune) rune {
		switch {
		case r == '\n', r == '\u200c', r == '\u200d':
			return r
		case r == '\r':
			return -1
		case unicode.IsControl(r):
			if unicode.IsSpace(r) {
				return ' '
			}
			return -1
		}
		return r
	}, text)
	text = runOfSpaces.ReplaceAllString(text, " ")
	text = blankLines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// IsBoilerplate reports whether line is navigation or footer text.
func IsBoilerplate(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range boilerplate {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// CleanBlock cleans text and removes boilerplate lines from it.
func CleanBlock(text string) string {
	lines := strings.Split(CleanText(text), "\n")
	kept := lines[:0]
	for _, l := range lines {
		if !IsBoilerplate(l) {
			kept = append(kept, strings.TrimSpace(l))
		}
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// SelectionText returns the cleaned text of sel. Block elements, table
// cells and list items are separated by a space; goquery's Text runs them
// together.
func SelectionText(sel *goquery.Selection) string {
	var b strings.Builder
	writeText(&b, sel)
	return CleanBlock(b.String())
}

var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "em": true, "font": true, "i": true,
	"small": true, "span": true, "strong": true, "sub": true, "sup": true, "u": true,
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		switch {
		case name == "#text":
			b.WriteString(c.Text())
		case name == "br":
			b.WriteByte('\n')
		case inline[name]:
			writeText(b, c)
		case strings.HasPrefix(name, "#"):
		default:
			b.WriteByte(' ')
			writeText(b, c)
			b.WriteByte(' ')
		}
	})
}

// Dedupe drops items whose normalized text was already seen, keeping order.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		key := Normalize(it)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, it)
	}
	return out
}
