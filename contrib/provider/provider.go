// Package provider holds what the generation adapters under contrib/provider
// share.
package provider

import (
	"fmt"

	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/llm"
)

// SystemInstruction is sent as the system prompt by providers that support one.
const SystemInstruction = "You are an agricultural advisory assistant for Indian farmers. " +
	"Answer only from the evidence you are given. Never invent prices, dates or figures."

// Provider is a named llm.Generator.
type Provider interface {
	llm.Generator
	Name() string
}

// Unavailable wraps a provider failure so callers can classify it.
func Unavailable(name string, err error) error {
	return fmt.Errorf("%s: %w: %w", name, errors.ErrValidationUnavailable, err)
}

// EmptyResponse is returned when a provider answered without any text.
func EmptyResponse(name string) error {
	return fmt.Errorf("%s: empty response: %w", name, errors.ErrValidationUnavailable)
}

// Settings are the options every chat-style adapter accepts.
type Settings struct {
	APIKey      string
	BaseURL     string // empty for the vendor default
	Model       string
	MaxTokens   int
	Temperature float64
	System      string
}

// WithDefaults fills the unset model, token limit and system prompt.
func (s Settings) WithDefaults(model string) Settings {
	if s.Model == "" {
		s.Model = model
	}
	if s.MaxTokens <= 0 {
		s.MaxTokens = 1024
	}
	if s.System == "" {
		s.System = SystemInstruction
	}
	return s
}
