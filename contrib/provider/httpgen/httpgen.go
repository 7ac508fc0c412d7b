// Package httpgen is a generation adapter for plain JSON completion
// endpoints (Ollama, text-generation-inference, in-house gateways).
//
// The request body is Extra with the prompt stored under PromptField; the
// answer is read from the response with a gjson path.
package httpgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"net/http"
	"time"

	"github.com/sweetpotato0/agri-advisor/contrib/provider"
	"github.com/tidwall/gjson"
)

const maxResponseBytes = 4 << 20

// Config describes the endpoint.
type Config struct {
	Name        string
	URL         string
	Headers     map[string]string
	PromptField string
	// TextPath is the gjson path of the generated text, "response" by default.
	TextPath string
	// Extra fields merged into every request body.
	Extra map[string]any
}

// Client posts prompts to a JSON endpoint.
type Client struct {
	cfg Config
	hc  *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which times out after 30s.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithBearer sets an Authorization bearer token.
func WithBearer(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.cfg.Headers["Authorization"] = "Bearer " + token
		}
	}
}

var _ provider.Provider = (*Client)(nil)

// New creates a client for cfg.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Name == "" {
		cfg.Name = "http"
	}
	if cfg.PromptField == "" {
		cfg.PromptField = "prompt"
	}
	if cfg.TextPath == "" {
		cfg.TextPath = "response"
	}
	cfg.Headers = maps.Clone(cfg.Headers)
	if cfg.Headers == nil {
		cfg.Headers = make(map[string]string)
	}
	c := &Client{cfg: cfg, hc: &http.Client{Timeout: 30 * time.Second}}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) Name() string { return c.cfg.Name }

// Generate posts prompt and extracts TextPath from the reply.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body := make(map[string]any, len(c.cfg.Extra)+1)
	maps.Copy(body, c.cfg.Extra)
	body[c.cfg.PromptField] = prompt

	reqBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("%s: encode request: %w", c.cfg.Name, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(reqBody))
	if err != nil {
		return "", provider.Unavailable(c.cfg.Name, err)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.hc.Do(req)
	if err != nil {
		return "", provider.Unavailable(c.cfg.Name, err)
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		io.Copy(io.Discard, io.LimitReader(res.Body, maxResponseBytes))
		return "", provider.Unavailable(c.cfg.Name, fmt.Errorf("%s", res.Status))
	}

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		return "", provider.Unavailable(c.cfg.Name, err)
	}
	if !gjson.ValidBytes(data) {
		return "", provider.Unavailable(c.cfg.Name, fmt.Errorf("response is not JSON"))
	}

	text := gjson.GetBytes(data, c.cfg.TextPath)
	if !text.Exists() || text.String() == "" {
		return "", provider.EmptyResponse(c.cfg.Name)
	}
	return text.String(), nil
}
