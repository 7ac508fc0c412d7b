// Package metrics holds the Prometheus collectors for the advisory pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	adviseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agri_advise_requests_total",
		Help: "Advise calls by response origin",
	}, []string{"origin"})

	adviseLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agri_advise_latency_ms",
		Help:    "End-to-end Advise latency in milliseconds",
		Buckets: []float64{5, 25, 50, 100, 250, 500, 1000, 2000, 4000, 8000, 15000},
	}, []string{"origin"})

	sourceFetch = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agri_source_fetch_total",
		Help: "Data source fetch outcomes (fresh/cached/failed)",
	}, []string{"category", "result"})

	sourceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "agri_source_latency_ms",
		Help:    "Latency of data source fetches including retries",
		Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3200, 8000},
	}, []string{"category"})

	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agri_cache_lookups_total",
		Help: "Cache lookups by namespace and result",
	}, []string{"namespace", "result"})

	confidence = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "agri_response_confidence",
		Help:    "Distribution of response confidence",
		Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.95},
	})

	validations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agri_validation_total",
		Help: "Validation path taken (remote/local/reduced)",
	}, []string{"path"})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(Collectors()...)
	})
}

// ObserveAdvise records one finished Advise call.
func ObserveAdvise(origin string, start time.Time, conf float64) {
	ensureRegistered()
	adviseTotal.WithLabelValues(origin).Inc()
	adviseLatency.WithLabelValues(origin).Observe(float64(time.Since(start).Milliseconds()))
	confidence.Observe(conf)
}

// ObserveSource records a source fetch; result is fresh, cached or failed.
func ObserveSource(category, result string, start time.Time) {
	ensureRegistered()
	sourceFetch.WithLabelValues(category, result).Inc()
	sourceLatency.WithLabelValues(category).Observe(float64(time.Since(start).Milliseconds()))
}

// IncCache counts a cache lookup.
func IncCache(namespace string, hit bool) {
	ensureRegistered()
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(namespace, result).Inc()
}

// IncValidation counts which validation path produced a response.
func IncValidation(path string) {
	ensureRegistered()
	validations.WithLabelValues(path).Inc()
}

// Collectors exposes all collectors for registration with a custom registry.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		adviseTotal, adviseLatency, sourceFetch, sourceLatency, cacheLookups, confidence, validations,
	}
}

// Handler serves the default registry, including the collectors above, in
// the Prometheus text format.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
