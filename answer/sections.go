package answer

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// sectionLevel is the heading level of answer sections ("## ").
const sectionLevel = 2

var markdown = goldmark.New()

// Section is one "## " block of an answer. Text before the first heading is
// returned with an empty Heading.
type Section struct {
	Heading string
	Body    string
}

// Sections splits an answer at its level-two headings. Headings inside code
// blocks or deeper levels do not start a section.
func Sections(answer string) []Section {
	source := []byte(answer)
	root := markdown.Parser().Parse(text.NewReader(source))

	type heading struct {
		start, end int
		title      string
	}
	var hs []heading
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != sectionLevel {
			return ast.WalkContinue, nil
		}
		lines := h.Lines()
		if lines == nil || lines.Len() == 0 {
			return ast.WalkSkipChildren, nil
		}
		last := lines.At(lines.Len() - 1)
		hs = append(hs, heading{
			start: lineStart(source, lines.At(0).Start),
			end:   last.Stop,
			title: strings.TrimSpace(string(h.Text(source))),
		})
		return ast.WalkSkipChildren, nil
	})

	var out []Section
	if len(hs) == 0 {
		if body := strings.TrimSpace(answer); body != "" {
			out = append(out, Section{Body: body})
		}
		return out
	}
	if intro := strings.TrimSpace(string(source[:hs[0].start])); intro != "" {
		out = append(out, Section{Body: intro})
	}
	for i, h := range hs {
		end := len(source)
		if i+1 < len(hs) {
			end = hs[i+1].start
		}
		out = append(out, Section{
			Heading: h.title,
			Body:    strings.TrimSpace(string(source[h.end:end])),
		})
	}
	return out
}

// lineStart backs up from a heading's content offset to the start of its
// line, so the "## " marker is not left in the previous section.
func lineStart(source []byte, i int) int {
	for i > 0 && source[i-1] != '\n' {
		i--
	}
	return i
}

func headingCount(answer string) int {
	n := 0
	for _, s := range Sections(answer) {
		if s.Heading != "" {
			n++
		}
	}
	return n
}
