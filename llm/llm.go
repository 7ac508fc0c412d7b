// Package llm is the text generation boundary of the advisory pipeline.
//
// A Generator is opaque: it takes a prompt and returns text, usually over the
// network. Callers treat every failure as ErrValidationUnavailable and fall
// back to local checks.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Func adapts a function to Generator.
type Func func(ctx context.Context, prompt string) (string, error)

// Generate calls f.
func (f Func) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Unavailable is the Generator used when no provider is configured.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string) (string, error) {
	return "", fmt.Errorf("no generation provider configured: %w", errors.ErrValidationUnavailable)
}

// IsConfigured reports whether g can produce text at all.
func IsConfigured(g Generator) bool {
	if g == nil {
		return false
	}
	_, none := g.(Unavailable)
	return !none
}

type instrumented struct {
	name    string
	next    Generator
	timeout time.Duration
}

// Instrument wraps g with a per-call timeout, a trace span and logging.
// Every error it returns, empty output included, wraps ErrValidationUnavailable.
func Instrument(name string, g Generator, timeout time.Duration) Generator {
	if !IsConfigured(g) {
		return Unavailable{}
	}
	return &instrumented{name: name, next: g, timeout: timeout}
}

func (i *instrumented) Generate(ctx context.Context, prompt string) (text string, err error) {
	ctx, span := telemetry.Start(ctx, "llm.generate",
		telemetry.KeyProvider.String(i.name),
		attribute.Int("llm.prompt_bytes", len(prompt)),
	)
	defer func() { telemetry.End(span, err) }()

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err = i.next.Generate(ctx, prompt)
	logger := logging.WithComponent("llm")
	if err != nil {
		logger.Warn("generation failed", "provider", i.name, "duration", time.Since(start), "error", err)
		if !errors.Is(err, errors.ErrValidationUnavailable) {
			err = fmt.Errorf("%s: %w: %w", i.name, errors.ErrValidationUnavailable, err)
		}
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%s returned empty text: %w", i.name, errors.ErrValidationUnavailable)
	}
	logger.Debug("generation complete", "provider", i.name, "duration", time.Since(start), "chars", len(text))
	return text, nil
}
