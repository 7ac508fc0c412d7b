package httpjson

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/record"
)

func TestFetchMarketPayload(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RawQuery
		gotKey = r.Header.Get("X-Api-Key")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"meta":{"score":0.9},"data":{"requested_crop":"wheat","prices":[{"crop":"wheat","market":"Khanna","modal_price":2300,"unit":"quintal"}]}}`))
	}))
	defer srv.Close()

	src, err := New(Config{
		Category: record.CategoryMarket,
		URL:      srv.URL + "/prices?state={state}&crop={crop}",
		Headers:  map[string]string{"X-Api-Key": "k"},
		Paths:    map[string]string{PathPayload: "data", PathConfidence: "meta.score"},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	recs, err := src.Fetch(context.Background(), datasource.Request{Location: record.Location{State: "Uttar Pradesh"}, Crop: "wheat"})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotPath != "state=Uttar+Pradesh&crop=wheat" {
		t.Errorf("unexpected query %q", gotPath)
	}
	if gotKey != "k" {
		t.Errorf("header not sent")
	}
	if len(recs) != 1 || recs[0].Confidence != 0.9 {
		t.Fatalf("unexpected records %+v", recs)
	}
	m := recs[0].Payload.(record.MarketPayload)
	if p, ok := m.PriceFor("wheat"); !ok || p.ModalPrice != 2300 {
		t.Errorf("unexpected payload %+v", m)
	}
}

func TestFetchArrayPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"title":"A","advice":["x"]},{"title":"B","advice":["y"]}]`))
	}))
	defer srv.Close()

	src, _ := New(Config{Category: record.CategoryAdvisory, URL: srv.URL})
	recs, err := src.Fetch(context.Background(), datasource.Request{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(recs) != 2 {
		t.Errorf("Expected 2 records, got %d", len(recs))
	}
}

func TestFetchClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusServiceUnavailable, errors.ErrTransientSource},
		{http.StatusTooManyRequests, errors.ErrTransientSource},
		{http.StatusNotFound, errors.ErrNoDataAvailable},
		{http.StatusForbidden, errors.ErrInvalidInput},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))
		src, _ := New(Config{Category: record.CategoryWeather, URL: srv.URL})
		_, err := src.Fetch(context.Background(), datasource.Request{})
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected %v, got %v", tt.status, tt.want, err)
		}
		srv.Close()
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Category: record.CategoryWeather}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for missing url, got %v", err)
	}
	if _, err := New(Config{Category: "rainfall", URL: "http://x"}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput for bad category, got %v", err)
	}
}
