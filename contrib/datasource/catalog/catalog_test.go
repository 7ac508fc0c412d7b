package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/record"
)

var fixedNow = func() time.Time { return time.Date(2024, 11, 10, 7, 0, 0, 0, time.UTC) }

func fetch(t *testing.T, c *Catalog, cat record.Category, req datasource.Request) record.Record {
	t.Helper()
	src := c.Source(cat)
	req.Category = cat
	recs, err := src.Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch(%s) failed: %v", cat, err)
	}
	if err := datasource.Validate(src, recs); err != nil {
		t.Fatalf("invalid records: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(recs))
	}
	return recs[0]
}

func TestCatalogIsDeterministic(t *testing.T) {
	c := New(Options{Now: fixedNow})
	req := datasource.Request{Location: record.Location{State: "Maharashtra", District: "Pune"}}
	a := fetch(t, c, record.CategoryWeather, req)
	b := fetch(t, c, record.CategoryWeather, req)
	if a.Payload.(record.WeatherPayload).Current != b.Payload.(record.WeatherPayload).Current {
		t.Error("Expected identical weather for identical request")
	}
	if n := len(a.Payload.(record.WeatherPayload).Forecast); n != 3 {
		t.Errorf("Expected 3 forecast days, got %d", n)
	}
}

func TestCatalogMarketPricesRequestedCrop(t *testing.T) {
	c := New(Options{Now: fixedNow})
	r := fetch(t, c, record.CategoryMarket, datasource.Request{Location: record.Location{State: "Punjab", District: "Ludhiana"}, Crop: "wheat"})
	m := r.Payload.(record.MarketPayload)
	p, ok := m.PriceFor("wheat")
	if !ok {
		t.Fatal("Expected a wheat price")
	}
	if p.MinPrice > p.ModalPrice || p.ModalPrice > p.MaxPrice {
		t.Errorf("Expected min <= modal <= max, got %+v", p)
	}
	if m.MissingDataNote != "" {
		t.Errorf("Unexpected missing note %q", m.MissingDataNote)
	}
}

func TestCatalogMarketUnavailableCrop(t *testing.T) {
	c := New(Options{Now: fixedNow, UnavailableCrops: []string{"Onion"}})
	r := fetch(t, c, record.CategoryMarket, datasource.Request{Location: record.Location{State: "Maharashtra", District: "Nashik"}, Crop: "onion"})
	m := r.Payload.(record.MarketPayload)
	if m.HasCrop("onion") {
		t.Fatal("Expected no onion price")
	}
	if m.MissingDataNote == "" || m.RequestedCrop != "onion" {
		t.Errorf("Expected missing note for onion, got %+v", m)
	}
	if len(m.RelatedCrops) == 0 {
		t.Error("Expected related crops")
	}
	for _, p := range m.Prices {
		if p.Crop == "onion" {
			t.Error("related prices must not include the requested crop")
		}
	}
}

func TestCatalogSoilAndSchemes(t *testing.T) {
	c := New(Options{Now: fixedNow})
	s := fetch(t, c, record.CategorySoil, datasource.Request{Location: record.Location{State: "Rajasthan"}})
	if len(s.Payload.(record.SoilPayload).Recommendations) == 0 {
		t.Error("Expected soil recommendations")
	}
	sc := fetch(t, c, record.CategoryScheme, datasource.Request{})
	if len(sc.Payload.(record.SchemePayload).Schemes) == 0 {
		t.Error("Expected schemes")
	}
	adv := fetch(t, c, record.CategoryAdvisory, datasource.Request{Crop: "cotton"})
	if a := adv.Payload.(record.AdvisoryPayload); a.Crop != "cotton" || len(a.Advice) == 0 {
		t.Errorf("unexpected advisory %+v", a)
	}
}

func TestCatalogHonoursCancellation(t *testing.T) {
	c := New(Options{Now: fixedNow})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.Source(record.CategoryWeather).Fetch(ctx, datasource.Request{}); err == nil {
		t.Error("Expected error on cancelled context")
	}
}
