// Package catalog is a deterministic, offline data source for every
// category. Values are derived from a hash of location, crop and date, so
// the same question on the same day yields the same figures. It backs demos,
// tests and deployments without live feeds.
package catalog

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/record"
)

// Options configures the catalogue.
type Options struct {
	// UnavailableCrops have no market price, as when a mandi reports no
	// arrivals. The market source answers them with a missing-data note.
	UnavailableCrops []string
	Now              func() time.Time
}

// Catalog owns one source per category.
type Catalog struct {
	unavailable map[string]bool
	now         func() time.Time
}

// New creates a catalogue.
func New(opts Options) *Catalog {
	c := &Catalog{unavailable: make(map[string]bool), now: opts.Now}
	if c.now == nil {
		c.now = time.Now
	}
	for _, crop := range opts.UnavailableCrops {
		c.unavailable[strings.ToLower(strings.TrimSpace(crop))] = true
	}
	return c
}

// Sources returns a source per category.
func (c *Catalog) Sources() []datasource.Source {
	out := make([]datasource.Source, 0, len(record.Categories))
	for _, cat := range record.Categories {
		out = append(out, &source{catalog: c, category: cat})
	}
	return out
}

// Source returns the source for one category.
func (c *Catalog) Source(cat record.Category) datasource.Source {
	return &source{catalog: c, category: cat}
}

type source struct {
	catalog  *Catalog
	category record.Category
}

func (s *source) ID() string                { return "catalog-" + string(s.category) }
func (s *source) Category() record.Category { return s.category }

func (s *source) Fetch(ctx context.Context, req datasource.Request) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.catalog.now()
	var (
		payload record.Payload
		conf    = 0.85
		rel     = record.ReliabilityHigh
	)
	switch s.category {
	case record.CategoryWeather:
		payload = weather(req.Location, now)
	case record.CategoryMarket:
		m := s.catalog.market(req.Location, req.Crop, now)
		if m.MissingDataNote != "" {
			conf = 0.4
		}
		payload = m
	case record.CategoryAdvisory:
		payload = advisory(req.Crop, now)
		rel = record.ReliabilityMedium
		conf = 0.75
	case record.CategorySoil:
		payload = soil(req.Location)
		rel = record.ReliabilityMedium
		conf = 0.7
	case record.CategoryScheme:
		payload = record.SchemePayload{Schemes: schemes}
		conf = 0.9
	default:
		return nil, fmt.Errorf("catalog has no %q data: %w", s.category, errors.ErrNoDataAvailable)
	}
	return []record.Record{{
		SourceID:    s.ID(),
		Category:    s.category,
		Payload:     payload,
		Confidence:  conf,
		FetchedAt:   now,
		Location:    req.Location,
		Freshness:   record.FreshnessFresh,
		Reliability: rel,
	}}, nil
}

func seed(parts ...string) uint32 {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(strings.ToLower(p)))
		h.Write([]byte{0})
	}
	return h.Sum32()
}

var conditions = []string{"Clear", "Partly cloudy", "Cloudy", "Light rain", "Thunderstorms", "Humid and hazy"}

func weather(loc record.Location, now time.Time) record.WeatherPayload {
	day := now.Format("2006-01-02")
	s := seed(loc.State, loc.District, day)
	cond := conditions[s%uint32(len(conditions))]
	w := record.WeatherPayload{Current: record.WeatherReading{
		TempC:      22 + float64(s%15),
		Humidity:   40 + int(s/7%50),
		RainfallMM: 0,
		WindKmph:   5 + float64(s/11%20),
		Condition:  cond,
	}}
	if strings.Contains(cond, "rain") || strings.Contains(cond, "Thunder") {
		w.Current.RainfallMM = float64(s/13%30) + 1
	}
	for i := 1; i <= 3; i++ {
		d := now.AddDate(0, 0, i)
		ds := seed(loc.State, loc.District, d.Format("2006-01-02"))
		minC := 18 + float64(ds%10)
		w.Forecast = append(w.Forecast, record.DayForecast{
			Date:       d.Format("2006-01-02"),
			MinC:       minC,
			MaxC:       minC + 6 + float64(ds/3%8),
			RainChance: int(ds / 5 % 100),
			Condition:  conditions[ds%uint32(len(conditions))],
		})
	}
	if w.Current.Condition == "Thunderstorms" {
		w.Alerts = append(w.Alerts, "Thunderstorm with lightning likely; avoid open fields in the afternoon.")
	}
	return w
}

// market prices in rupees per quintal, modal MSP or recent average.
var basePrices = map[string]float64{
	"wheat": 2275, "rice": 2183, "cotton": 6620, "onion": 1800, "tomato": 1500, "potato": 1200,
	"sugarcane": 315, "soybean": 4600, "maize": 2090, "chickpea": 5440, "groundnut": 6377,
	"mustard": 5650, "turmeric": 9500, "chilli": 12000, "banana": 1600, "grapes": 4500,
	"pomegranate": 7000, "bajra": 2500, "jowar": 3180, "tur": 7000, "jute": 5050,
	"coconut": 2800, "millet": 3846,
}

var relatedCrops = map[string][]string{
	"wheat": {"chickpea", "mustard"}, "rice": {"maize", "wheat"}, "cotton": {"soybean", "tur"},
	"onion": {"potato", "tomato"}, "tomato": {"onion", "potato"}, "potato": {"onion", "tomato"},
	"soybean": {"cotton", "tur"}, "maize": {"jowar", "bajra"}, "chickpea": {"tur", "wheat"},
	"groundnut": {"soybean", "mustard"}, "mustard": {"wheat", "chickpea"}, "turmeric": {"chilli"},
	"chilli": {"turmeric", "tomato"}, "banana": {"pomegranate", "grapes"}, "grapes": {"pomegranate", "banana"},
	"pomegranate": {"grapes", "banana"}, "bajra": {"jowar", "maize"}, "jowar": {"bajra", "maize"},
	"tur": {"chickpea", "soybean"}, "jute": {"rice"}, "coconut": {"banana"}, "millet": {"jowar", "bajra"},
	"sugarcane": {"wheat", "rice"},
}

var stateCrops = map[string][]string{
	"maharashtra": {"onion", "cotton", "soybean"}, "punjab": {"wheat", "rice", "cotton"},
	"haryana": {"wheat", "mustard", "rice"}, "uttar pradesh": {"wheat", "sugarcane", "potato"},
	"madhya pradesh": {"soybean", "wheat", "chickpea"}, "gujarat": {"cotton", "groundnut", "wheat"},
	"karnataka": {"millet", "maize", "tur"}, "tamil nadu": {"rice", "banana", "turmeric"},
	"telangana": {"cotton", "rice", "chilli"}, "andhra pradesh": {"chilli", "rice", "cotton"},
	"rajasthan": {"bajra", "mustard", "wheat"}, "bihar": {"rice", "maize", "wheat"},
	"west bengal": {"rice", "jute", "potato"}, "odisha": {"rice", "tur", "groundnut"},
	"kerala": {"coconut", "banana", "rice"},
}

var trends = []string{"stable", "rising", "falling"}

func marketName(loc record.Location) string {
	switch {
	case loc.District != "":
		return loc.District + " APMC"
	case loc.State != "":
		return loc.State + " state average"
	}
	return "National average"
}

func (c *Catalog) price(crop string, loc record.Location, now time.Time) (record.CropPrice, bool) {
	base, ok := basePrices[crop]
	if !ok || c.unavailable[crop] {
		return record.CropPrice{}, false
	}
	day := now.Format("2006-01-02")
	s := seed(crop, loc.State, loc.District, day)
	modal := base * (0.92 + float64(s%17)/100)
	return record.CropPrice{
		Crop:       crop,
		Market:     marketName(loc),
		MinPrice:   float64(int(modal * 0.93)),
		MaxPrice:   float64(int(modal * 1.06)),
		ModalPrice: float64(int(modal)),
		Unit:       "quintal",
		Date:       day,
		Trend:      trends[s/17%uint32(len(trends))],
	}, true
}

func (c *Catalog) market(loc record.Location, crop string, now time.Time) record.MarketPayload {
	crop = strings.ToLower(strings.TrimSpace(crop))
	m := record.MarketPayload{RequestedCrop: crop}
	if crop == "" {
		crops := stateCrops[strings.ToLower(loc.State)]
		if len(crops) == 0 {
			crops = []string{"wheat", "rice", "onion"}
		}
		for _, cr := range crops {
			if p, ok := c.price(cr, loc, now); ok {
				m.Prices = append(m.Prices, p)
			}
		}
		return m
	}
	if p, ok := c.price(crop, loc, now); ok {
		m.Prices = []record.CropPrice{p}
		return m
	}

	place := loc.String()
	if place == "" {
		place = "your area"
	}
	m.MissingDataNote = fmt.Sprintf("Price data for %s is not currently available in %s", crop, place)
	for _, rc := range relatedCrops[crop] {
		if p, ok := c.price(rc, loc, now); ok {
			m.Prices = append(m.Prices, p)
			m.RelatedCrops = append(m.RelatedCrops, rc)
		}
	}
	return m
}
