// Package grounding decides whether an answer needs retrieved data and
// which retrieved records are relevant to the question.
package grounding

import (
	"regexp"
	"strings"
	"time"

	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/record"
)

var reTemporal = regexp.MustCompile(`(?i)\b(current|currently|today|today's|latest)\b`)

// ShouldGround reports whether the answer must be backed by retrieved data:
// a location or crop was named, the topics need live data, or the draft
// itself talks about the present.
func ShouldGround(qc query.Context, draft string) bool {
	if qc.Location != nil && !qc.Location.IsZero() {
		return true
	}
	if qc.Crop != nil && qc.Crop.Name != "" {
		return true
	}
	if qc.Topics.HasAny(query.TopicWeather, query.TopicMarket, query.TopicPrice, query.TopicScheme) {
		return true
	}
	return reTemporal.MatchString(draft)
}

// Reason explains why a record was rejected.
type Reason string

const (
	ReasonWrongCrop   Reason = "market record answers a different crop"
	ReasonMissingCrop Reason = "market record has no price for the requested crop"
)

// Rejected is a record the filter dropped.
type Rejected struct {
	Record record.Record
	Reason Reason
}

// FilterRelevant returns the records fit to present for qc.
func FilterRelevant(recs []record.Record, qc query.Context) []record.Record {
	kept, _ := Partition(recs, qc)
	return kept
}

// Partition splits recs into kept and rejected. Market records must price
// exactly the requested crop. Other categories prefer location matches but
// keep the rest after them as regional or general fallback.
func Partition(recs []record.Record, qc query.Context) ([]record.Record, []Rejected) {
	crop := qc.CropName()
	loc := qc.Place()

	var (
		local, general []record.Record
		rejected       []Rejected
	)
	for _, r := range recs {
		if r.Category == record.CategoryMarket && crop != "" {
			m, ok := r.Payload.(record.MarketPayload)
			if !ok {
				rejected = append(rejected, Rejected{r, ReasonMissingCrop})
				continue
			}
			if m.RequestedCrop != "" && !strings.EqualFold(m.RequestedCrop, crop) {
				rejected = append(rejected, Rejected{r, ReasonWrongCrop})
				continue
			}
			if !m.HasCrop(crop) {
				rejected = append(rejected, Rejected{r, ReasonMissingCrop})
				continue
			}
		}
		if !loc.IsZero() && r.Location.Matches(loc) {
			local = append(local, r)
		} else {
			general = append(general, r)
		}
	}
	return append(local, general...), rejected
}

// MissingPrice returns the rejected market records that carry an explicit
// missing-data note for the requested crop.
func MissingPrice(rejected []Rejected) []record.Record {
	var out []record.Record
	for _, rj := range rejected {
		if rj.Reason != ReasonMissingCrop {
			continue
		}
		if m, ok := rj.Record.Payload.(record.MarketPayload); ok && (m.MissingDataNote != "" || len(m.RelatedCrops) > 0) {
			out = append(out, rj.Record)
		}
	}
	return out
}

// UnavailableSourceID marks the market record that stands in for price data
// no source could supply.
const UnavailableSourceID = "market-unavailable"

// WantsPrice reports whether the answer has to address prices: a crop was
// named, or the question is about markets or prices.
func WantsPrice(qc query.Context) bool {
	return qc.CropName() != "" || qc.Topics.HasAny(query.TopicMarket, query.TopicPrice)
}

// HasMarket reports whether recs hold a market record.
func HasMarket(recs []record.Record) bool {
	for _, r := range recs {
		if r.Category == record.CategoryMarket {
			return true
		}
	}
	return false
}

// PriceUnavailable is the missing-price record for a market category that
// produced nothing usable: every source failed or none priced the crop's
// market at all. It renders as a "no current price data" line.
func PriceUnavailable(qc query.Context, at time.Time) record.Record {
	return record.Record{
		SourceID:    UnavailableSourceID,
		Category:    record.CategoryMarket,
		FetchedAt:   at,
		Location:    qc.Place(),
		Freshness:   record.FreshnessStale,
		Reliability: record.ReliabilityLow,
		Payload: record.MarketPayload{
			RequestedCrop:   qc.CropName(),
			MissingDataNote: "No market price source returned data for this request.",
		},
	}
}
