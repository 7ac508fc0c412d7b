// Package datasource defines the boundary every agricultural data source
// implements. Sources may be live APIs or local generators; the retrieval
// orchestrator treats them alike.
package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/record"
)

// Request selects what to fetch.
type Request struct {
	Category record.Category
	Location record.Location
	// Crop is empty when the question names none.
	Crop string
}

// Source fetches records of one category. Implementations return an error
// wrapping errors.ErrTransientSource for failures worth retrying and
// errors.ErrNoDataAvailable when there is honestly nothing to report.
type Source interface {
	ID() string
	Category() record.Category
	Fetch(ctx context.Context, req Request) ([]record.Record, error)
}

// Func adapts a function to Source.
type Func struct {
	SourceID string
	Cat      record.Category
	Fn       func(ctx context.Context, req Request) ([]record.Record, error)
}

func (f Func) ID() string                { return f.SourceID }
func (f Func) Category() record.Category { return f.Cat }
func (f Func) Fetch(ctx context.Context, req Request) ([]record.Record, error) {
	return f.Fn(ctx, req)
}

// Registry maps categories to sources. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	sources map[record.Category]Source
}

// NewRegistry creates a registry holding sources.
func NewRegistry(sources ...Source) *Registry {
	r := &Registry{sources: make(map[record.Category]Source)}
	for _, s := range sources {
		r.Register(s)
	}
	return r
}

// Register sets the source for its category, replacing any previous one.
func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Category()] = s
}

// Get returns the source for c.
func (r *Registry) Get(c record.Category) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[c]
	return s, ok
}

// Categories lists registered categories in sorted order.
func (r *Registry) Categories() []record.Category {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]record.Category, 0, len(r.sources))
	for c := range r.sources {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that every record matches the requested category and has
// a payload of the right variant.
func Validate(src Source, recs []record.Record) error {
	for i, r := range recs {
		if r.Category != src.Category() {
			return fmt.Errorf("source %s record %d: category %q, want %q: %w", src.ID(), i, r.Category, src.Category(), errors.ErrInternal)
		}
		if r.Payload == nil || r.Payload.Category() != r.Category {
			return fmt.Errorf("source %s record %d: payload does not match category %q: %w", src.ID(), i, r.Category, errors.ErrInternal)
		}
	}
	return nil
}

// StampMissingPrice makes a market record honest about a requested crop it
// has no price for: it sets RequestedCrop, a MissingDataNote and the related
// crops it does list. Records that price the crop are returned unchanged.
func StampMissingPrice(r record.Record, crop string) record.Record {
	m, ok := r.Payload.(record.MarketPayload)
	if !ok || crop == "" {
		return r
	}
	if m.RequestedCrop == "" {
		m.RequestedCrop = crop
	}
	if m.HasCrop(crop) {
		r.Payload = m
		return r
	}
	if m.MissingDataNote == "" {
		m.MissingDataNote = fmt.Sprintf("no current price data for %s", crop)
	}
	if len(m.RelatedCrops) == 0 {
		for _, p := range m.Prices {
			if !strings.EqualFold(p.Crop, crop) {
				m.RelatedCrops = append(m.RelatedCrops, p.Crop)
			}
		}
	}
	r.Payload = m
	return r
}
