// Package netcheck answers "are we online?" for the offline fallback path.
package netcheck

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Checker reports network connectivity.
type Checker interface {
	Online(ctx context.Context) bool
}

// Static is a fixed answer, used when connectivity is forced by config or in tests.
type Static bool

// Online implements Checker.
func (s Static) Online(context.Context) bool { return bool(s) }

// Probe issues a HEAD request against a well-known URL and remembers the
// answer for Interval so a burst of requests costs one round trip.
type Probe struct {
	URL      string
	Timeout  time.Duration
	Interval time.Duration
	Client   *http.Client

	mu      sync.Mutex
	checked time.Time
	online  bool
}

// NewProbe creates a probe with sane defaults for empty values.
func NewProbe(url string, timeout, interval time.Duration) *Probe {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Probe{URL: url, Timeout: timeout, Interval: interval, Client: &http.Client{Timeout: timeout}}
}

// Online implements Checker.
func (p *Probe) Online(ctx context.Context) bool {
	p.mu.Lock()
	if !p.checked.IsZero() && time.Since(p.checked) < p.Interval {
		online := p.online
		p.mu.Unlock()
		return online
	}
	p.mu.Unlock()

	online := p.probe(ctx)

	p.mu.Lock()
	p.checked = time.Now()
	p.online = online
	p.mu.Unlock()
	return online
}

func (p *Probe) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return false
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < http.StatusInternalServerError
}
