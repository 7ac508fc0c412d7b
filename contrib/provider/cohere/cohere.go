// Package cohere configures the JSON generation adapter for Cohere's chat API.
package cohere

import (
	"github.com/sweetpotato0/agri-advisor/contrib/provider"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/httpgen"
)

const (
	APIURL       = "https://api.cohere.ai/v1/chat"
	DefaultModel = "command-r"
)

// New returns a provider posting {"message": prompt} and reading "text".
// s.BaseURL overrides the chat endpoint.
func New(s provider.Settings, opts ...httpgen.Option) *httpgen.Client {
	s = s.WithDefaults(DefaultModel)
	url := s.BaseURL
	if url == "" {
		url = APIURL
	}
	extra := map[string]any{
		"model":      s.Model,
		"preamble":   s.System,
		"max_tokens": s.MaxTokens,
	}
	if s.Temperature > 0 {
		extra["temperature"] = s.Temperature
	}

	opts = append([]httpgen.Option{httpgen.WithBearer(s.APIKey)}, opts...)
	return httpgen.New(httpgen.Config{
		Name:        "cohere",
		URL:         url,
		PromptField: "message",
		TextPath:    "text",
		Extra:       extra,
	}, opts...)
}
