// Package groq points the OpenAI adapter at Groq's compatible endpoint.
package groq

import (
	"github.com/sweetpotato0/agri-advisor/contrib/provider"
	"github.com/sweetpotato0/agri-advisor/contrib/provider/openai"
)

const (
	APIURL       = "https://api.groq.com/openai/v1"
	DefaultModel = "llama-3.1-8b-instant"
)

// New ignores s.BaseURL.
func New(s provider.Settings) *openai.Provider {
	s.BaseURL = APIURL
	return openai.New("groq", s.WithDefaults(DefaultModel))
}
