// Package scoring turns record freshness, coverage and match quality into a
// confidence and a factual-basis label.
package scoring

import (
	"math"
	"strings"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/record"
)

const (
	base           = 0.5
	freshWeight    = 0.3
	cropBonus      = 0.15
	locationBonus  = 0.10
	categoryBonus  = 0.05
	categoryCap    = 0.20
	syntheticScore = 0.1
	// MissingPriceCap bounds the confidence of an answer that could not
	// give the price it was asked for.
	MissingPriceCap = 0.6
)

// Score returns confidence in [0, 0.95] and the factual basis. The basis is
// high with two or more fresh records, medium with two or more records of
// which at least one is fresh, and low otherwise.
func Score(recs []record.Record, qc query.Context) (float64, answer.Basis) {
	if len(recs) == 0 {
		return 0, answer.BasisLow
	}
	if allSynthetic(recs) {
		return syntheticScore, answer.BasisLow
	}

	fresh := 0
	cats := make(map[record.Category]bool)
	cropHit, locHit := false, false
	crop, loc := qc.CropName(), qc.Place()
	for _, r := range recs {
		if r.IsFresh() {
			fresh++
		}
		cats[r.Category] = true
		if crop != "" && matchesCrop(r, crop) {
			cropHit = true
		}
		if !loc.IsZero() && r.Location.Matches(loc) {
			locHit = true
		}
	}

	c := base + freshWeight*float64(fresh)/float64(len(recs))
	if cropHit {
		c += cropBonus
	}
	if locHit {
		c += locationBonus
	}
	c += math.Min(categoryBonus*float64(len(cats)), categoryCap)
	c = answer.ClampConfidence(c)

	basis := answer.BasisLow
	switch {
	case fresh >= 2:
		basis = answer.BasisHigh
	case len(recs) >= 2 && fresh >= 1:
		basis = answer.BasisMedium
	}
	return c, basis
}

// ScoreWithoutPrice scores an answer whose requested price is missing.
// Records that merely mention the crop earn no crop bonus, confidence is
// capped at MissingPriceCap and the basis is at most medium.
func ScoreWithoutPrice(recs []record.Record, qc query.Context) (float64, answer.Basis) {
	qc.Crop = nil
	c, basis := Score(recs, qc)
	if basis == answer.BasisHigh {
		basis = answer.BasisMedium
	}
	return math.Min(c, MissingPriceCap), basis
}

func allSynthetic(recs []record.Record) bool {
	for _, r := range recs {
		if p, ok := r.Payload.(record.AdvisoryPayload); !ok || !p.Synthetic {
			return false
		}
	}
	return true
}

// matchesCrop reports an exact crop match in the payload.
func matchesCrop(r record.Record, crop string) bool {
	switch p := r.Payload.(type) {
	case record.MarketPayload:
		return p.HasCrop(crop)
	case record.AdvisoryPayload:
		return strings.EqualFold(p.Crop, crop)
	default:
		return false
	}
}
