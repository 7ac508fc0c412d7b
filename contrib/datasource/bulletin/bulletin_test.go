package bulletin

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/record"
)

const page = `<html><head><title>Agromet Advisory - Pune</title></head><body>
<nav><li>Home</li><li>Contact us</li></nav>
<h1>District Agromet Advisory Bulletin</h1>
<ul>
<li>Onion: spray mancozeb 0.25% to control purple blotch after rain.</li>
<li>Cotton: install pheromone traps for pink bollworm monitoring.</li>
<li>Postpone irrigation as light rain is expected in the next two days.</li>
<li>Postpone irrigation as light rain is expected in the <b>next two days</b>.</li>
<li>ok</li>
</ul>
<script>var x = 1;</script>
</body></html>`

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchPrefersCropItems(t *testing.T) {
	srv := newServer(t, http.StatusOK, page)
	src, err := New(Config{URL: srv.URL + "/?d={district}"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	recs, err := src.Fetch(context.Background(), datasource.Request{Crop: "cotton", Location: record.Location{District: "Pune"}})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	p := recs[0].Payload.(record.AdvisoryPayload)
	if p.Title != "District Agromet Advisory Bulletin" {
		t.Errorf("unexpected title %q", p.Title)
	}
	if len(p.Advice) != 1 || p.Crop != "cotton" {
		t.Fatalf("Expected only the cotton item, got %+v", p)
	}
	if diff := cmp.Diff([]string{"bollworm"}, p.Pests); diff != "" {
		t.Errorf("pests mismatch (-want +got):\n%s", diff)
	}
}

func TestPestsIn(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  []string
	}{
		{name: "bollworm", items: []string{"Install pheromone traps for pink bollworm."}, want: []string{"bollworm"}},
		{name: "plurals", items: []string{"Red spider mites and whiteflies seen", "Aphids on mustard"}, want: []string{"aphid", "whitefly", "mite"}},
		{name: "disease", items: []string{"Spray mancozeb against purple blotch"}, want: []string{"blotch"}},
		{name: "whole words only", items: []string{"Irrigation water is limited; trust the forecast"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, pestsIn(tt.items)); diff != "" {
				t.Errorf("pestsIn mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFetchGeneralItems(t *testing.T) {
	srv := newServer(t, http.StatusOK, page)
	src, _ := New(Config{URL: srv.URL}, nil)
	recs, err := src.Fetch(context.Background(), datasource.Request{})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	p := recs[0].Payload.(record.AdvisoryPayload)
	if len(p.Advice) != 3 {
		t.Errorf("Expected 3 advice items (nav, repeated and short items dropped), got %d: %v", len(p.Advice), p.Advice)
	}
}

func TestFetchErrors(t *testing.T) {
	src, _ := New(Config{URL: newServer(t, http.StatusBadGateway, "").URL}, nil)
	if _, err := src.Fetch(context.Background(), datasource.Request{}); !errors.Is(err, errors.ErrTransientSource) {
		t.Errorf("Expected transient error, got %v", err)
	}
	src, _ = New(Config{URL: newServer(t, http.StatusOK, "<html><body><p>nothing</p></body></html>").URL}, nil)
	if _, err := src.Fetch(context.Background(), datasource.Request{}); !errors.Is(err, errors.ErrNoDataAvailable) {
		t.Errorf("Expected no data, got %v", err)
	}
}
