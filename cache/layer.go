package cache

import (
	"context"
	"strings"
	"time"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/cache/store"
	"github.com/sweetpotato0/agri-advisor/pkg/metrics"
	"github.com/sweetpotato0/agri-advisor/rag/language"
	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
	"github.com/sweetpotato0/agri-advisor/record"
)

// Namespaces of the layer.
const (
	NamespaceDataset  = "dataset"
	NamespaceResponse = "response"
)

// DefaultTTLs are the dataset TTLs per category.
var DefaultTTLs = map[record.Category]time.Duration{
	record.CategoryWeather:  time.Hour,
	record.CategoryMarket:   24 * time.Hour,
	record.CategoryAdvisory: 24 * time.Hour,
	record.CategorySoil:     7 * 24 * time.Hour,
	record.CategoryScheme:   7 * 24 * time.Hour,
}

// DefaultResponseTTL is how long finished answers are reused.
const DefaultResponseTTL = 7 * 24 * time.Hour

// LayerOptions sets TTLs. Missing categories fall back to DefaultTTLs.
type LayerOptions struct {
	TTL         map[record.Category]time.Duration
	ResponseTTL time.Duration
}

// Layer groups the dataset and response namespaces.
type Layer struct {
	datasets    Cache[[]record.Record]
	responses   Cache[answer.Response]
	ttl         map[record.Category]time.Duration
	responseTTL time.Duration
	closeFn     func() error
}

// NewLayer combines two caches. Close closes both.
func NewLayer(datasets Cache[[]record.Record], responses Cache[answer.Response], opts LayerOptions) *Layer {
	l := &Layer{datasets: datasets, responses: responses, ttl: make(map[record.Category]time.Duration)}
	for c, d := range DefaultTTLs {
		l.ttl[c] = d
	}
	for c, d := range opts.TTL {
		if d > 0 {
			l.ttl[c] = d
		}
	}
	l.responseTTL = opts.ResponseTTL
	if l.responseTTL <= 0 {
		l.responseTTL = DefaultResponseTTL
	}
	l.closeFn = func() error {
		err1 := datasets.Close()
		err2 := responses.Close()
		if err1 != nil {
			return err1
		}
		return err2
	}
	return l
}

// NewMemoryLayer builds a layer on two in-process caches.
func NewMemoryLayer(opts LayerOptions, datasetCap, responseCap int, cleanup time.Duration) *Layer {
	return NewLayer(
		NewMemory[[]record.Record](MemoryOptions{Capacity: datasetCap, CleanupInterval: cleanup}),
		NewMemory[answer.Response](MemoryOptions{Capacity: responseCap, CleanupInterval: cleanup}),
		opts,
	)
}

// NewBackendLayer builds a layer whose namespaces share backend.
func NewBackendLayer(backend store.Backend, opts LayerOptions) *Layer {
	l := NewLayer(
		NewRemote[[]record.Record](backend, NamespaceDataset+":"),
		NewRemote[answer.Response](backend, NamespaceResponse+":"),
		opts,
	)
	l.closeFn = backend.Close
	return l
}

// TTL returns the dataset TTL for category.
func (l *Layer) TTL(c record.Category) time.Duration {
	if d, ok := l.ttl[c]; ok {
		return d
	}
	return time.Hour
}

// ResponseTTL returns the response TTL.
func (l *Layer) ResponseTTL() time.Duration { return l.responseTTL }

// cropSensitive categories include the crop in their dataset key.
func cropSensitive(c record.Category) bool {
	return c == record.CategoryMarket || c == record.CategoryAdvisory
}

// DatasetKey is "category|state|district|crop"; crop is empty for
// categories whose data does not depend on it.
func DatasetKey(c record.Category, loc record.Location, crop string) string {
	if !cropSensitive(c) {
		crop = ""
	}
	return strings.Join([]string{
		string(c),
		strings.ToLower(strings.TrimSpace(loc.State)),
		strings.ToLower(strings.TrimSpace(loc.District)),
		strings.ToLower(strings.TrimSpace(crop)),
	}, "|")
}

// ResponseKey is the normalized query plus language.
func ResponseKey(q, lang string) string {
	return preprocess.Normalize(q) + "|" + language.Canonical(lang)
}

// Dataset returns cached records for the key parts.
func (l *Layer) Dataset(ctx context.Context, c record.Category, loc record.Location, crop string) ([]record.Record, bool) {
	recs, ok := l.datasets.Get(ctx, DatasetKey(c, loc, crop))
	metrics.IncCache(NamespaceDataset, ok)
	return recs, ok
}

// StoreDataset writes records with the category TTL.
func (l *Layer) StoreDataset(ctx context.Context, c record.Category, loc record.Location, crop string, recs []record.Record) {
	l.datasets.Put(ctx, DatasetKey(c, loc, crop), recs, l.TTL(c))
}

// Response returns the cached answer for q in lang.
func (l *Layer) Response(ctx context.Context, q, lang string) (answer.Response, bool) {
	resp, ok := l.responses.Get(ctx, ResponseKey(q, lang))
	metrics.IncCache(NamespaceResponse, ok)
	if !ok {
		return answer.Response{}, false
	}
	return resp.Clone(), true
}

// StoreResponse caches a validated answer.
func (l *Layer) StoreResponse(ctx context.Context, q, lang string, resp answer.Response) {
	l.responses.Put(ctx, ResponseKey(q, lang), resp.Clone(), l.responseTTL)
}

// Cleanup sweeps both namespaces.
func (l *Layer) Cleanup(ctx context.Context) int {
	return l.datasets.Cleanup(ctx) + l.responses.Cleanup(ctx)
}

// Stats reports per-namespace statistics.
func (l *Layer) Stats(ctx context.Context) map[string]Stats {
	return map[string]Stats{
		NamespaceDataset:  l.datasets.Stats(ctx),
		NamespaceResponse: l.responses.Stats(ctx),
	}
}

// Close releases both namespaces.
func (l *Layer) Close() error {
	return l.closeFn()
}
