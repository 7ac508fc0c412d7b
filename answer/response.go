// Package answer holds the advisory response and its presentation. The
// pipeline works on typed data; text is only produced here.
package answer

import (
	"slices"
	"time"

	"github.com/sweetpotato0/agri-advisor/record"
)

// Origin names the pipeline path that produced a response.
type Origin string

const (
	OriginDemo     Origin = "demo"
	OriginCache    Origin = "cache"
	OriginPipeline Origin = "pipeline"
	OriginOffline  Origin = "offline"
	OriginFallback Origin = "fallback"
	OriginInvalid  Origin = "invalid"
	OriginBusy     Origin = "busy"
)

// Basis is the coarse factual-basis label of an answer.
type Basis string

const (
	BasisHigh   Basis = "high"
	BasisMedium Basis = "medium"
	BasisLow    Basis = "low"
)

// Disclaimers attached when a response degraded.
const (
	DisclaimerCached            = "This answer was served from cache and re-validated; data may be up to 7 days old."
	DisclaimerOffline           = "You appear to be offline. This is general guidance, not live data."
	DisclaimerOfflineCached     = "You appear to be offline. This answer comes from an earlier similar question."
	DisclaimerReducedValidation = "This answer received reduced validation; verify important decisions with your local agriculture officer."
	DisclaimerFallback          = "We could not process your question fully. This is general guidance only."
	DisclaimerTimeout           = "The request took too long. This is general guidance only; please try again."
	DisclaimerStaleData         = "Live data sources were unavailable; figures may be outdated."
	DisclaimerMissingPrice      = "Current price data was not available for the requested crop."
	DisclaimerLowConfidence     = "Confidence in this answer is low; please cross-check locally."
	DisclaimerDemo              = "This is a curated demonstration answer."
	DisclaimerRephrase          = "Your question was too short or unclear. Please rephrase it with your crop and location."
	DisclaimerBusy              = "The service is busy; no live data was consulted for this reply."
	DisclaimerGeneral           = "This answer is general guidance and is not based on live local data."
)

// Response is the final output of Advise. It is immutable once returned and
// is the unit stored in the response cache.
type Response struct {
	RequestID    string          `json:"request_id,omitempty"`
	Query        string          `json:"query"`
	Language     string          `json:"language"`
	Text         string          `json:"answer_text"`
	Sources      []record.Record `json:"sources"`
	Confidence   float64         `json:"confidence"`
	FactualBasis Basis           `json:"factual_basis"`
	Disclaimers  []string        `json:"disclaimers,omitempty"`
	Suggestions  []string        `json:"suggested_questions,omitempty"`
	Origin       Origin          `json:"origin"`
	CreatedAt    time.Time       `json:"created_at"`
}

// WithDisclaimer returns a copy of r with d appended once.
func (r Response) WithDisclaimer(d string) Response {
	if d == "" || slices.Contains(r.Disclaimers, d) {
		return r
	}
	r.Disclaimers = append(slices.Clone(r.Disclaimers), d)
	return r
}

// Clone returns a deep copy so cached responses are never aliased.
func (r Response) Clone() Response {
	r.Sources = slices.Clone(r.Sources)
	r.Disclaimers = slices.Clone(r.Disclaimers)
	r.Suggestions = slices.Clone(r.Suggestions)
	return r
}

// ClampConfidence bounds c to [0, 0.95].
func ClampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > MaxConfidence:
		return MaxConfidence
	}
	return c
}

// MaxConfidence is the ceiling for any answer.
const MaxConfidence = 0.95
