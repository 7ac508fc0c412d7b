// Package record defines the normalized data unit every source returns.
package record

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Category identifies which kind of source produced a record.
type Category string

const (
	CategoryWeather  Category = "weather"
	CategoryMarket   Category = "market"
	CategoryAdvisory Category = "advisory"
	CategorySoil     Category = "soil"
	CategoryScheme   Category = "scheme"
)

// Categories lists every category in presentation order.
var Categories = []Category{CategoryWeather, CategoryMarket, CategoryAdvisory, CategorySoil, CategoryScheme}

// ParseCategory maps a string to a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Categories {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Freshness tells how a record reached the pipeline.
type Freshness string

const (
	FreshnessFresh  Freshness = "fresh"  // fetched during this request
	FreshnessCached Freshness = "cached" // served from the dataset cache within TTL
	FreshnessStale  Freshness = "stale"  // synthetic or past its useful life
)

// Reliability is the trust tier of the producing source.
type Reliability string

const (
	ReliabilityHigh   Reliability = "high"
	ReliabilityMedium Reliability = "medium"
	ReliabilityLow    Reliability = "low"
)

// Location is where a record (or a query) applies. Any field may be empty.
type Location struct {
	State    string `json:"state,omitempty"`
	District string `json:"district,omitempty"`
	Pincode  string `json:"pincode,omitempty"`
}

// IsZero reports whether no location field is set.
func (l Location) IsZero() bool {
	return l.State == "" && l.District == "" && l.Pincode == ""
}

// Matches reports whether l and other refer to the same district, or the
// same state when either side lacks a district.
func (l Location) Matches(other Location) bool {
	if l.IsZero() || other.IsZero() {
		return false
	}
	if l.District != "" && other.District != "" {
		return strings.EqualFold(l.District, other.District)
	}
	if l.State != "" && other.State != "" {
		return strings.EqualFold(l.State, other.State)
	}
	return l.Pincode != "" && l.Pincode == other.Pincode
}

// String renders "District, State" with whatever parts are known.
func (l Location) String() string {
	var parts []string
	if l.District != "" {
		parts = append(parts, l.District)
	}
	if l.State != "" {
		parts = append(parts, l.State)
	}
	if len(parts) == 0 && l.Pincode != "" {
		parts = append(parts, "PIN "+l.Pincode)
	}
	return strings.Join(parts, ", ")
}

// Record is one retrieved fact set from one source.
type Record struct {
	SourceID    string      `json:"source_id"`
	Category    Category    `json:"category"`
	Payload     Payload     `json:"-"`
	Confidence  float64     `json:"confidence"`
	FetchedAt   time.Time   `json:"fetched_at"`
	Location    Location    `json:"location"`
	Freshness   Freshness   `json:"freshness"`
	Reliability Reliability `json:"reliability"`
}

// IsFresh reports whether the record was fetched during this request.
func (r Record) IsFresh() bool { return r.Freshness == FreshnessFresh }

// WithFreshness returns a copy of r carrying f.
func (r Record) WithFreshness(f Freshness) Record {
	r.Freshness = f
	return r
}

type recordJSON struct {
	SourceID    string          `json:"source_id"`
	Category    Category        `json:"category"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Confidence  float64         `json:"confidence"`
	FetchedAt   time.Time       `json:"fetched_at"`
	Location    Location        `json:"location"`
	Freshness   Freshness       `json:"freshness"`
	Reliability Reliability     `json:"reliability"`
}

// MarshalJSON encodes the payload under the record's category tag.
func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		SourceID:    r.SourceID,
		Category:    r.Category,
		Confidence:  r.Confidence,
		FetchedAt:   r.FetchedAt,
		Location:    r.Location,
		Freshness:   r.Freshness,
		Reliability: r.Reliability,
	}
	if r.Payload != nil {
		if r.Payload.Category() != r.Category {
			return nil, fmt.Errorf("record %s: payload category %q does not match %q", r.SourceID, r.Payload.Category(), r.Category)
		}
		raw, err := json.Marshal(r.Payload)
		if err != nil {
			return nil, err
		}
		out.Payload = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the payload variant selected by the category tag.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Record{
		SourceID:    in.SourceID,
		Category:    in.Category,
		Confidence:  in.Confidence,
		FetchedAt:   in.FetchedAt,
		Location:    in.Location,
		Freshness:   in.Freshness,
		Reliability: in.Reliability,
	}
	if len(in.Payload) == 0 || string(in.Payload) == "null" {
		return nil
	}
	p, err := decodePayload(in.Category, in.Payload)
	if err != nil {
		return err
	}
	r.Payload = p
	return nil
}
