// Package retrieval fans a query out to the data sources of each needed
// category, through the dataset cache, with bounded retry per source.
package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sweetpotato0/agri-advisor/cache"
	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/pkg/metrics"
	"github.com/sweetpotato0/agri-advisor/pkg/retry"
	"github.com/sweetpotato0/agri-advisor/pkg/telemetry"
	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/record"
	"golang.org/x/sync/errgroup"
)

// SyntheticSourceID marks the record returned when every source failed.
const SyntheticSourceID = "synthetic-fallback"

// DefaultTimeout bounds one RetrieveAll call.
const DefaultTimeout = 8 * time.Second

// Config controls retrieval behaviour.
type Config struct {
	Policy  retry.Policy
	Timeout time.Duration
}

// Option customizes the orchestrator.
type Option func(*Orchestrator)

// WithPolicy sets the per-source retry policy.
func WithPolicy(p retry.Policy) Option {
	return func(o *Orchestrator) { o.cfg.Policy = p }
}

// WithTimeout bounds the whole fan-out.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.cfg.Timeout = d
		}
	}
}

// WithCache enables the dataset cache.
func WithCache(l *cache.Layer) Option {
	return func(o *Orchestrator) { o.cache = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// Orchestrator coordinates the per-category sources.
type Orchestrator struct {
	sources *datasource.Registry
	cache   *cache.Layer
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

// New creates an orchestrator over sources.
func New(sources *datasource.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sources: sources,
		cfg:     Config{Policy: retry.DefaultPolicy(), Timeout: DefaultTimeout},
		log:     logging.WithComponent("retrieval"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan returns the categories to fetch for qc, in presentation order.
// Weather, market and advisory are always fetched; soil and scheme only
// when the topics ask for them or the question is general.
func Plan(qc query.Context) []record.Category {
	plan := []record.Category{record.CategoryWeather, record.CategoryMarket, record.CategoryAdvisory}
	general := qc.Topics.IsGeneral()
	if general || qc.Topics.HasAny(query.TopicSoil, query.TopicFertilizer) {
		plan = append(plan, record.CategorySoil)
	}
	if general || qc.Topics.Has(query.TopicScheme) {
		plan = append(plan, record.CategoryScheme)
	}
	return plan
}

// RetrieveAll fetches every planned category concurrently. It never fails:
// failed sources are logged and skipped, sources still running at the
// timeout are abandoned, and if nothing came back a single synthetic stale
// record is returned.
func (o *Orchestrator) RetrieveAll(ctx context.Context, qc query.Context) []record.Record {
	ctx, span := telemetry.Start(ctx, "retrieval.RetrieveAll", telemetry.KeyTopics.String(qc.Topics.String()))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	plan := Plan(qc)
	var (
		mu      sync.Mutex
		results = make([][]record.Record, len(plan))
	)

	var g errgroup.Group
	for i, cat := range plan {
		g.Go(func() error {
			recs, err := o.fetchCategory(ctx, cat, qc)
			if err != nil {
				o.log.Warn("source failed", "category", cat, "error", err)
				return nil
			}
			mu.Lock()
			results[i] = recs
			mu.Unlock()
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		o.log.Warn("retrieval timed out; unfinished sources treated as failed", "timeout", o.cfg.Timeout)
	}

	mu.Lock()
	var out []record.Record
	for _, rs := range results {
		out = append(out, rs...)
	}
	// Late finishers must not write into a slice we have handed out.
	results = make([][]record.Record, len(plan))
	mu.Unlock()

	if len(out) == 0 {
		o.log.Warn("all sources failed; returning synthetic record")
		span.SetAttributes(telemetry.KeySynthetic.Bool(true))
		return []record.Record{o.synthetic(qc)}
	}
	span.SetAttributes(telemetry.KeyRecords.Int(len(out)))
	return out
}

func (o *Orchestrator) fetchCategory(ctx context.Context, cat record.Category, qc query.Context) (recs []record.Record, err error) {
	start := time.Now()
	ctx, span := telemetry.Start(ctx, "retrieval.source", telemetry.KeyCategory.String(string(cat)))
	defer func() { telemetry.End(span, err) }()

	src, ok := o.sources.Get(cat)
	if !ok {
		return nil, fmt.Errorf("no source for %s: %w", cat, errors.ErrNoDataAvailable)
	}
	loc, crop := qc.Place(), qc.CropName()

	if o.cache != nil {
		if cached, hit := o.cache.Dataset(ctx, cat, loc, crop); hit && len(cached) > 0 {
			metrics.ObserveSource(string(cat), "cached", start)
			out := make([]record.Record, len(cached))
			for i, r := range cached {
				if r.Freshness == record.FreshnessFresh {
					r = r.WithFreshness(record.FreshnessCached)
				}
				out[i] = r
			}
			return out, nil
		}
	}

	req := datasource.Request{Category: cat, Location: loc, Crop: crop}
	recs, err = retry.Do(ctx, o.cfg.Policy, func(ctx context.Context) ([]record.Record, error) {
		rs, err := src.Fetch(ctx, req)
		if err != nil {
			return nil, err
		}
		if err := datasource.Validate(src, rs); err != nil {
			return nil, fmt.Errorf("%w: %w", errors.ErrNoDataAvailable, err)
		}
		if len(rs) == 0 {
			return nil, fmt.Errorf("%s returned nothing: %w", src.ID(), errors.ErrNoDataAvailable)
		}
		return rs, nil
	}, func(attempt int, err error, wait time.Duration) {
		o.log.Debug("retrying source", "source", src.ID(), "attempt", attempt, "wait", wait, "error", err)
	})
	if err != nil {
		metrics.ObserveSource(string(cat), "failed", start)
		return nil, err
	}

	for i := range recs {
		if cat == record.CategoryMarket && crop != "" {
			recs[i] = datasource.StampMissingPrice(recs[i], crop)
		}
		if recs[i].FetchedAt.IsZero() {
			recs[i].FetchedAt = o.now()
		}
		recs[i].Freshness = record.FreshnessFresh
	}
	if o.cache != nil {
		o.cache.StoreDataset(ctx, cat, loc, crop, recs)
	}
	metrics.ObserveSource(string(cat), "fresh", start)
	return recs, nil
}

func (o *Orchestrator) synthetic(qc query.Context) record.Record {
	return record.Record{
		SourceID: SyntheticSourceID,
		Category: record.CategoryAdvisory,
		Payload: record.AdvisoryPayload{
			Crop:  qc.CropName(),
			Title: "General guidance (live data unavailable)",
			Advice: []string{
				"Live weather, price and advisory data could not be reached; no current figures are available.",
				"Contact your nearest Krishi Vigyan Kendra or the Kisan Call Centre for current local information.",
			},
			Synthetic: true,
		},
		Confidence:  0.1,
		FetchedAt:   o.now(),
		Location:    qc.Place(),
		Freshness:   record.FreshnessStale,
		Reliability: record.ReliabilityLow,
	}
}

// IsSynthetic reports whether recs is only the all-failed placeholder.
func IsSynthetic(recs []record.Record) bool {
	return len(recs) == 1 && recs[0].SourceID == SyntheticSourceID
}
