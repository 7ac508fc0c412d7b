// Package httpjson adapts a JSON HTTP API to datasource.Source. The URL is
// a template; gjson paths pick the payload and metadata out of the body.
package httpjson

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sweetpotato0/agri-advisor/datasource"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/record"
	"github.com/tidwall/gjson"
)

// Path keys understood in Config.Paths.
const (
	PathPayload    = "payload"    // object or array of objects in payload JSON shape
	PathConfidence = "confidence" // number in [0,1]
	PathFetchedAt  = "fetched_at" // RFC 3339 timestamp
)

const maxBody = 4 << 20

// Config describes one endpoint. URL may contain {category}, {state},
// {district}, {pincode} and {crop}; values are query-escaped.
type Config struct {
	ID          string
	Category    record.Category
	URL         string
	Headers     map[string]string
	Paths       map[string]string
	Reliability record.Reliability
}

// Source fetches one category from an HTTP endpoint.
type Source struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time
}

// Option customises a Source.
type Option func(*Source)

// WithHTTPClient swaps the HTTP client (timeouts, proxies, tests).
func WithHTTPClient(client *http.Client) Option {
	return func(s *Source) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// New creates a source for cfg.
func New(cfg Config, opts ...Option) (*Source, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("httpjson source %q: url required: %w", cfg.ID, errors.ErrInvalidInput)
	}
	if _, ok := record.ParseCategory(string(cfg.Category)); !ok {
		return nil, fmt.Errorf("httpjson source %q: unknown category %q: %w", cfg.ID, cfg.Category, errors.ErrInvalidInput)
	}
	if cfg.ID == "" {
		cfg.ID = "http-" + string(cfg.Category)
	}
	if cfg.Reliability == "" {
		cfg.Reliability = record.ReliabilityMedium
	}
	s := &Source{cfg: cfg, httpClient: &http.Client{Timeout: 10 * time.Second}, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Source) ID() string                { return s.cfg.ID }
func (s *Source) Category() record.Category { return s.cfg.Category }

func (s *Source) endpoint(req datasource.Request) string {
	r := strings.NewReplacer(
		"{category}", url.QueryEscape(string(s.cfg.Category)),
		"{state}", url.QueryEscape(req.Location.State),
		"{district}", url.QueryEscape(req.Location.District),
		"{pincode}", url.QueryEscape(req.Location.Pincode),
		"{crop}", url.QueryEscape(req.Crop),
	)
	return r.Replace(s.cfg.URL)
}

// Fetch calls the endpoint and decodes the selected payloads.
func (s *Source) Fetch(ctx context.Context, req datasource.Request) ([]record.Record, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint(req), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range s.cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", s.cfg.ID, err, errors.ErrTransientSource)
	}
	defer resp.Body.Close()

	if err := classifyStatus(s.cfg.ID, resp); err != nil {
		return nil, err
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %v: %w", s.cfg.ID, err, errors.ErrTransientSource)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%s: response is not JSON", s.cfg.ID)
	}
	return s.decode(body, req)
}

func classifyStatus(id string, resp *http.Response) error {
	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusNoContent:
		return fmt.Errorf("%s: status %d: %w", id, resp.StatusCode, errors.ErrNoDataAvailable)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%s: status %d: %w", id, resp.StatusCode, errors.ErrTransientSource)
	default:
		return fmt.Errorf("%s: status %d: %w", id, resp.StatusCode, errors.ErrInvalidInput)
	}
}

func (s *Source) path(key, def string) string {
	if p := s.cfg.Paths[key]; p != "" {
		return p
	}
	return def
}

func (s *Source) decode(body []byte, req datasource.Request) ([]record.Record, error) {
	root := gjson.ParseBytes(body)
	payloads := root.Get(s.path(PathPayload, "@this"))
	if !payloads.Exists() {
		return nil, fmt.Errorf("%s: payload path %q not found: %w", s.cfg.ID, s.path(PathPayload, "@this"), errors.ErrNoDataAvailable)
	}

	conf := 0.7
	if c := root.Get(s.path(PathConfidence, "confidence")); c.Exists() {
		conf = min(max(c.Float(), 0), 1)
	}
	fetched := s.now()
	if f := root.Get(s.path(PathFetchedAt, "fetched_at")); f.Exists() {
		if t, err := time.Parse(time.RFC3339, f.String()); err == nil {
			fetched = t
		}
	}

	var items []gjson.Result
	if payloads.IsArray() {
		items = payloads.Array()
	} else {
		items = []gjson.Result{payloads}
	}
	out := make([]record.Record, 0, len(items))
	for i, item := range items {
		p, err := record.DecodePayload(s.cfg.Category, []byte(item.Raw))
		if err != nil {
			return nil, fmt.Errorf("%s: decode payload %d: %w", s.cfg.ID, i, err)
		}
		out = append(out, record.Record{
			SourceID:    s.cfg.ID,
			Category:    s.cfg.Category,
			Payload:     p,
			Confidence:  conf,
			FetchedAt:   fetched,
			Location:    req.Location,
			Freshness:   record.FreshnessFresh,
			Reliability: s.cfg.Reliability,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: empty payload list: %w", s.cfg.ID, errors.ErrNoDataAvailable)
	}
	return out, nil
}
