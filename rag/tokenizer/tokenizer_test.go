package tokenizer

import (
	"strings"
	"testing"
)

func TestSimpleCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{text: "", want: 0},
		{text: "rice", want: 1},
		{text: "wheat price", want: 4},
		{text: "Rs 2,150/quintal", want: 7},
		{text: "水稻", want: 2},
	}
	tok := NewSimpleTokenizer()
	for _, tt := range tests {
		if got := tok.CountTokens(tt.text); got != tt.want {
			t.Errorf("CountTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestFitLines(t *testing.T) {
	lines := []string{"aaaa", "bbbb", "cccc", "dddd"}
	tok := NewSimpleTokenizer()

	got := FitLines(tok, lines, 5)
	if len(got) != 2 || got[1] != "bbbb" {
		t.Fatalf("FitLines = %v", got)
	}
	if got := FitLines(tok, lines, 0); len(got) != 4 {
		t.Fatalf("zero budget should keep all, got %v", got)
	}
	if got := FitLines(tok, []string{strings.Repeat("x", 400)}, 1); len(got) != 1 {
		t.Fatalf("first line must always be kept")
	}
}

func TestFit(t *testing.T) {
	text := "one\ntwo\nthree"
	if got := Fit(NewSimpleTokenizer(), text, 4); got != "one\ntwo" {
		t.Fatalf("Fit = %q", got)
	}
}
