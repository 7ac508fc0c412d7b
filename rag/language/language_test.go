package language

import (
	"strings"
	"testing"
)

func TestDetect(t *testing.T) {
	d := NewDetector("en")
	tests := []struct {
		name    string
		text    string
		want    string
		wantSTT bool
		minConf float64
	}{
		{name: "english", text: "What is the weather forecast for Pune tomorrow?", want: "en", wantSTT: true, minConf: 0.9},
		{name: "hindi", text: "पुणे में कल मौसम कैसा रहेगा?", want: "hi", wantSTT: true, minConf: 0.5},
		{name: "marathi", text: "पुण्यात उद्या हवामान कसे असेल?", want: "mr", wantSTT: true, minConf: 0.5},
		{name: "hinglish", text: "Pune mein mausam kaisa hai", want: "hi", wantSTT: true, minConf: 0.6},
		{name: "tamil", text: "இன்று மழை வருமா? நெல் பயிர்", want: "ta", wantSTT: true, minConf: 0.9},
		{name: "punjabi", text: "ਕਣਕ ਦਾ ਭਾਅ ਕੀ ਹੈ", want: "pa", wantSTT: false, minConf: 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := d.Detect(tt.text)
			if got.Language != tt.want {
				t.Fatalf("Detect(%q).Language = %q, want %q", tt.text, got.Language, tt.want)
			}
			if got.STTSupported != tt.wantSTT {
				t.Errorf("STTSupported = %v, want %v", got.STTSupported, tt.wantSTT)
			}
			if got.Confidence < tt.minConf || got.Confidence > 1 {
				t.Errorf("Confidence = %v, want in [%v,1]", got.Confidence, tt.minConf)
			}
		})
	}
}

func TestDetectUnknownInput(t *testing.T) {
	d := NewDetector("en")
	for _, text := range []string{"", "   ", "12345 ???", "!!!"} {
		got := d.Detect(text)
		if got.Language != "en" || got.Confidence != 0 || got.STTSupported {
			t.Errorf("Detect(%q) = %+v, want (en, 0, false)", text, got)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := map[string]string{"hi-IN": "hi", "mr": "mr", "": "en", "not a tag!": "en", "EN-us": "en"}
	for in, want := range tests {
		if got := Canonical(in); got != want {
			t.Errorf("Canonical(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestTranslate(t *testing.T) {
	tr := NewTranslator("en")
	tests := []struct {
		name, text, from string
		contains         []string
	}{
		{name: "hindi weather", text: "पुणे में कल मौसम कैसा है", from: "hi", contains: []string{"weather", "tomorrow", "पुणे"}},
		{name: "hinglish price", text: "nashik mandi pyaj bhav", from: "hi", contains: []string{"market", "onion", "price", "nashik"}},
		{name: "marathi phrase", text: "कांदा बाजारभाव काय आहे", from: "mr", contains: []string{"onion", "market price", "what"}},
		{name: "telugu", text: "పత్తి ధర", from: "te", contains: []string{"cotton", "price"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tr.Translate(tt.text, tt.from)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("Translate(%q) = %q, missing %q", tt.text, got, want)
				}
			}
		})
	}
}

func TestTranslateBaseLanguageUnchanged(t *testing.T) {
	tr := NewTranslator("en")
	in := "What is the Price of Onion?"
	if got := tr.Translate(in, "en"); got != in {
		t.Fatalf("Translate in base language = %q, want unchanged", got)
	}
}

func TestTranslateCustomPhrase(t *testing.T) {
	tr := NewTranslator("en")
	tr.Add("hi", map[string]string{"पीएम किसान": "pm-kisan"})
	got := tr.Translate("पीएम किसान योजना", "hi")
	if got != "pm-kisan scheme" {
		t.Fatalf("Translate = %q, want %q", got, "pm-kisan scheme")
	}
}
