package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(cacheLookups.WithLabelValues("response", "hit"))
	IncCache("response", true)
	IncCache("response", false)
	if got := testutil.ToFloat64(cacheLookups.WithLabelValues("response", "hit")); got != before+1 {
		t.Fatalf("hit counter = %v, want %v", got, before+1)
	}

	start := time.Now()
	ObserveSource("weather", "fresh", start)
	if got := testutil.ToFloat64(sourceFetch.WithLabelValues("weather", "fresh")); got < 1 {
		t.Fatalf("source counter = %v, want >= 1", got)
	}

	ObserveAdvise("pipeline", start, 0.8)
	if got := testutil.ToFloat64(adviseTotal.WithLabelValues("pipeline")); got < 1 {
		t.Fatalf("advise counter = %v, want >= 1", got)
	}
}
