// Package query holds the per-request query and its extracted context.
package query

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/record"
)

// MinRunes is the number of letters or digits a question needs to be acted on.
const MinRunes = 3

// Check returns ErrInvalidQuery for text that is empty, too short or has no
// letters at all.
func Check(text string) error {
	n, letters := 0, 0
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsMark(r):
			letters++
			n++
		case unicode.IsDigit(r):
			n++
		}
	}
	if n < MinRunes || letters == 0 {
		return fmt.Errorf("query %q: %w", text, errors.ErrInvalidQuery)
	}
	return nil
}

// Query is one user question after cleaning and language detection.
type Query struct {
	RawText          string  `json:"raw_text"`
	CleanedText      string  `json:"cleaned_text"`
	TranslatedText   string  `json:"translated_text"`
	DetectedLanguage string  `json:"detected_language"`
	Confidence       float64 `json:"confidence"`
	STTSupported     bool    `json:"stt_supported"`
	IsValid          bool    `json:"is_valid"`
}

// Crop is the crop a question is about.
type Crop struct {
	Name   string `json:"name"`
	Season string `json:"season,omitempty"`
	Stage  string `json:"stage,omitempty"`
}

// Topic is a coarse subject of a question.
type Topic string

const (
	TopicWeather    Topic = "weather"
	TopicMarket     Topic = "market"
	TopicPrice      Topic = "price"
	TopicAdvisory   Topic = "advisory"
	TopicSoil       Topic = "soil"
	TopicFertilizer Topic = "fertilizer"
	TopicIrrigation Topic = "irrigation"
	TopicScheme     Topic = "scheme"
	TopicGeneral    Topic = "general"
)

// Topics is a set of topics.
type Topics map[Topic]struct{}

// NewTopics builds a set from ts.
func NewTopics(ts ...Topic) Topics {
	s := make(Topics, len(ts))
	for _, t := range ts {
		s[t] = struct{}{}
	}
	return s
}

// Has reports membership.
func (s Topics) Has(t Topic) bool {
	_, ok := s[t]
	return ok
}

// HasAny reports whether any of ts is in the set.
func (s Topics) HasAny(ts ...Topic) bool {
	for _, t := range ts {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// IsGeneral reports whether the set is empty or only "general".
func (s Topics) IsGeneral() bool {
	return len(s) == 0 || (len(s) == 1 && s.Has(TopicGeneral))
}

// Sorted returns the topics in lexical order.
func (s Topics) Sorted() []Topic {
	out := make([]Topic, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// String joins the sorted topics with commas.
func (s Topics) String() string {
	parts := make([]string, 0, len(s))
	for _, t := range s.Sorted() {
		parts = append(parts, string(t))
	}
	return strings.Join(parts, ",")
}

// Context is what the extractor learned about a query. Location and Crop are
// nil when not found.
type Context struct {
	Location  *record.Location `json:"location,omitempty"`
	Crop      *Crop            `json:"crop,omitempty"`
	Topics    Topics           `json:"-"`
	Language  string           `json:"language"`
	Timestamp time.Time        `json:"timestamp"`
}

// CropName returns the crop name or "".
func (c Context) CropName() string {
	if c.Crop == nil {
		return ""
	}
	return c.Crop.Name
}

// Place returns the location or the zero location.
func (c Context) Place() record.Location {
	if c.Location == nil {
		return record.Location{}
	}
	return *c.Location
}
