// Package bulletin reads agro-advisory bulletins published as HTML pages
// (state agriculture portals, KVK and agromet bulletins) into advisory
// records.
package bulletin

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
	"github.com/sweetpotato0/agri-advisor/record"
)

const maxItems = 8

var pestWords = []string{
	"pest", "borer", "bollworm", "armyworm", "aphid", "thrips", "whitefly", "mite", "hopper",
	"blight", "blotch", "rust", "wilt", "mildew", "rot",
}

// Config describes a bulletin page. URL accepts the same placeholders as
// httpjson: {state}, {district}, {crop}.
type Config struct {
	ID            string
	URL           string
	Selector      string // advice items, default "li"
	TitleSelector string // default "h1", then the page title
	Headers       map[string]string
}

// Source scrapes one bulletin page per request.
type Source struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// New creates a bulletin source.
func New(cfg Config, client *http.Client) (*Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("bulletin source: url required: %w", errors.ErrInvalidInput)
	}
	if cfg.ID == "" {
		cfg.ID = "bulletin-advisory"
	}
	if cfg.Selector == "" {
		cfg.Selector = "li"
	}
	if cfg.TitleSelector == "" {
		cfg.TitleSelector = "h1"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Source{cfg: cfg, httpClient: client, now: time.Now}, nil
}

func (s *Source) ID() string                { return s.cfg.ID }
func (s *Source) Category() record.Category { return record.CategoryAdvisory }

// Fetch downloads and parses the bulletin.
func (s *Source) Fetch(ctx context.Context, req datasource.Request) ([]record.Record, error) {
	endpoint := strings.NewReplacer(
		"{state}", url.QueryEscape(req.Location.State),
		"{district}", url.QueryEscape(req.Location.District),
		"{crop}", url.QueryEscape(req.Crop),
	).Replace(s.cfg.URL)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range s.cfg.Headers {
		httpReq.Header.Set(k, v)
	}
	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", s.cfg.ID, err, errors.ErrTransientSource)
	}
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%s: status %d: %w", s.cfg.ID, resp.StatusCode, errors.ErrNoDataAvailable)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%s: status %d: %w", s.cfg.ID, resp.StatusCode, errors.ErrTransientSource)
	case resp.StatusCode >= 300:
		return nil, fmt.Errorf("%s: status %d: %w", s.cfg.ID, resp.StatusCode, errors.ErrInvalidInput)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: parse html: %v: %w", s.cfg.ID, err, errors.ErrTransientSource)
	}
	payload, ok := s.parse(doc, req.Crop)
	if !ok {
		return nil, fmt.Errorf("%s: no advice items: %w", s.cfg.ID, errors.ErrNoDataAvailable)
	}
	return []record.Record{{
		SourceID:    s.cfg.ID,
		Category:    record.CategoryAdvisory,
		Payload:     payload,
		Confidence:  0.7,
		FetchedAt:   s.now(),
		Location:    req.Location,
		Freshness:   record.FreshnessFresh,
		Reliability: record.ReliabilityMedium,
	}}, nil
}

func (s *Source) parse(doc *goquery.Document, crop string) (record.AdvisoryPayload, bool) {
	doc.Find("script,style,nav,footer,header").Remove()
	title := preprocess.SelectionText(doc.Find(s.cfg.TitleSelector).First())
	if title == "" {
		title = preprocess.SelectionText(doc.Find("title").First())
	}

	var all, forCrop []string
	doc.Find(s.cfg.Selector).Each(func(_ int, sel *goquery.Selection) {
		text := preprocess.SelectionText(sel)
		if len([]rune(text)) < 12 {
			return
		}
		all = append(all, text)
		if crop != "" && strings.Contains(strings.ToLower(text), strings.ToLower(crop)) {
			forCrop = append(forCrop, text)
		}
	})
	items := preprocess.Dedupe(all)
	if len(forCrop) > 0 {
		items = preprocess.Dedupe(forCrop)
	}
	if len(items) == 0 {
		return record.AdvisoryPayload{}, false
	}
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	p := record.AdvisoryPayload{Title: title, Advice: items}
	if len(forCrop) > 0 {
		p.Crop = strings.ToLower(crop)
	}
	p.Pests = pestsIn(items)
	return p, true
}

// pestsIn returns the pest and disease words named in items, in list order.
// Whole words only, so "limited" does not name a mite; plurals count.
func pestsIn(items []string) []string {
	words := map[string]bool{}
	for _, it := range items {
		for _, f := range strings.FieldsFunc(strings.ToLower(it), func(r rune) bool {
			return !unicode.IsLetter(r)
		}) {
			words[f] = true
		}
	}
	var out []string
	for _, w := range pestWords {
		if words[w] || words[w+"s"] || words[w+"es"] ||
			(strings.HasSuffix(w, "y") && words[strings.TrimSuffix(w, "y")+"ies"]) {
			out = append(out, w)
		}
	}
	return out
}
