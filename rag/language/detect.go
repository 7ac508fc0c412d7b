// Package language guesses the language of a farmer's question and maps its
// agricultural vocabulary into the base language.
package language

import (
	"strings"
	"unicode"

	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
	textlang "golang.org/x/text/language"
)

const (
	scriptWeight  = 10.0
	keywordWeight = 1.5
	// scoreFloor is the minimum best score for a confident guess; below it
	// the base language is returned with zero confidence.
	scoreFloor = 1.0
)

// Detection is the outcome of Detect.
type Detection struct {
	Language     string  `json:"language"`
	Confidence   float64 `json:"confidence"`
	STTSupported bool    `json:"stt_supported"`
}

type profile struct {
	code     string
	script   *unicode.RangeTable
	keywords map[string]struct{}
	// romanized keywords count as script evidence for languages written in
	// Latin letters by many speakers (Hinglish).
	romanized map[string]struct{}
}

// Detector scores the candidate languages against a text.
type Detector struct {
	base     string
	profiles []profile
	stt      map[string]bool
}

// NewDetector creates a detector whose fallback language is base (a BCP 47
// tag; "en" when empty or unparsable).
func NewDetector(base string) *Detector {
	return &Detector{
		base:     Canonical(base),
		profiles: defaultProfiles(),
		stt:      sttLanguages,
	}
}

// Base returns the fallback language code.
func (d *Detector) Base() string { return d.base }

// Canonical reduces a tag such as "hi-IN" to its base code ("hi"); unknown
// or empty input yields "en".
func Canonical(tag string) string {
	t, err := textlang.Parse(strings.TrimSpace(tag))
	if err != nil || t.IsRoot() {
		return "en"
	}
	b, _ := t.Base()
	return b.String()
}

// sttLanguages have platform speech-to-text support.
var sttLanguages = map[string]bool{
	"en": true, "hi": true, "mr": true, "bn": true, "gu": true, "ta": true, "te": true, "kn": true,
}

// STTSupported reports speech-to-text support for code.
func (d *Detector) STTSupported(code string) bool { return d.stt[code] }

// Detect never fails: mixed script yields the best-scoring candidate and
// unrecognisable text yields (base, 0, false).
func (d *Detector) Detect(text string) Detection {
	words := preprocess.Words(text)
	if len(words) == 0 {
		return Detection{Language: d.base}
	}

	letters, perScript := countLetters(text)
	scores := make(map[string]float64, len(d.profiles))

	romanizedHits := make(map[string]int)
	for _, p := range d.profiles {
		if len(p.romanized) == 0 {
			continue
		}
		for _, w := range words {
			if _, ok := p.romanized[w]; ok {
				romanizedHits[p.code]++
			}
		}
	}
	totalRomanized := 0
	for _, n := range romanizedHits {
		totalRomanized += n
	}

	for _, p := range d.profiles {
		score := 0.0
		if letters > 0 {
			frac := float64(perScript[p.script]) / float64(letters)
			if p.script == unicode.Latin {
				// Latin words that are romanized keywords of another
				// language do not count as English evidence.
				frac *= 1 - float64(totalRomanized)/float64(len(words))
			}
			score += scriptWeight * frac
		}
		hits := 0
		for _, w := range words {
			if _, ok := p.keywords[w]; ok {
				hits++
			}
		}
		score += keywordWeight * float64(hits)
		if n := romanizedHits[p.code]; n > 0 {
			score += scriptWeight*float64(n)/float64(len(words)) + keywordWeight*float64(n)
		}
		scores[p.code] = score
	}

	best, bestScore, total := "", 0.0, 0.0
	for _, p := range d.profiles {
		s := scores[p.code]
		total += s
		if s > bestScore {
			best, bestScore = p.code, s
		}
	}
	if bestScore < scoreFloor || total == 0 {
		return Detection{Language: d.base}
	}
	return Detection{
		Language:     best,
		Confidence:   bestScore / total,
		STTSupported: d.stt[best],
	}
}

func countLetters(text string) (int, map[*unicode.RangeTable]int) {
	tables := []*unicode.RangeTable{
		unicode.Latin, unicode.Devanagari, unicode.Bengali, unicode.Gujarati, unicode.Gurmukhi,
		unicode.Tamil, unicode.Telugu, unicode.Kannada, unicode.Malayalam, unicode.Oriya,
	}
	counts := make(map[*unicode.RangeTable]int, len(tables))
	letters := 0
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.IsMark(r) {
			continue
		}
		letters++
		for _, t := range tables {
			if unicode.Is(t, r) {
				counts[t]++
				break
			}
		}
	}
	return letters, counts
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

// Profile order breaks exact ties: hi before mr for Devanagari.
func defaultProfiles() []profile {
	return []profile{
		{code: "en", script: unicode.Latin, keywords: set(
			"what", "how", "when", "which", "is", "the", "weather", "price", "crop", "should",
			"my", "for", "rain", "today", "tomorrow", "market", "soil", "fertilizer", "scheme",
		)},
		{code: "hi", script: unicode.Devanagari, keywords: set(
			"क्या", "कैसे", "है", "में", "और", "का", "की", "के", "मौसम", "फसल", "भाव", "कब",
			"बारिश", "खेती", "किसान", "मिट्टी", "कीमत", "आज", "कल",
		), romanized: set(
			"kya", "kaise", "kaisa", "hai", "mausam", "fasal", "kheti", "bhav", "kab", "barish",
			"kisan", "mitti", "aaj", "kal", "mein", "ka", "ki", "ke", "daam", "khad",
		)},
		{code: "mr", script: unicode.Devanagari, keywords: set(
			"आहे", "काय", "कसे", "कसा", "मध्ये", "आणि", "हवामान", "पाऊस", "शेती", "पीक", "बाजारभाव",
			"माझ्या", "उद्या", "आज", "शेतकरी",
		)},
		{code: "bn", script: unicode.Bengali, keywords: set("কি", "আবহাওয়া", "ফসল", "দাম", "বৃষ্টি", "কৃষক")},
		{code: "gu", script: unicode.Gujarati, keywords: set("શું", "હવામાન", "પાક", "ભાવ", "વરસાદ", "ખેડૂત")},
		{code: "pa", script: unicode.Gurmukhi, keywords: set("ਕੀ", "ਮੌਸਮ", "ਫਸਲ", "ਭਾਅ", "ਮੀਂਹ", "ਕਿਸਾਨ")},
		{code: "ta", script: unicode.Tamil, keywords: set("என்ன", "வானிலை", "பயிர்", "விலை", "மழை", "விவசாயி")},
		{code: "te", script: unicode.Telugu, keywords: set("ఏమిటి", "వాతావరణం", "పంట", "ధర", "వర్షం", "రైతు")},
		{code: "kn", script: unicode.Kannada, keywords: set("ಏನು", "ಹವಾಮಾನ", "ಬೆಳೆ", "ಬೆಲೆ", "ಮಳೆ", "ರೈತ")},
		{code: "ml", script: unicode.Malayalam, keywords: set("എന്ത്", "കാലാവസ്ഥ", "വിള", "വില", "മഴ", "കർഷകൻ")},
		{code: "or", script: unicode.Oriya, keywords: set("କଣ", "ପାଣିପାଗ", "ଫସଲ", "ଦର", "ବର୍ଷା", "ଚାଷୀ")},
	}
}
