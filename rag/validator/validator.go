// Package validator runs the second pass over a draft answer. When a
// generation service is configured it is asked to tighten the draft against
// the evidence; its output is only accepted if it passes the honesty guard.
// Otherwise local heuristics check the draft and re-wrap it into the
// standard template. Validate never fails.
package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/llm"
	"github.com/sweetpotato0/agri-advisor/pkg/logging"
	"github.com/sweetpotato0/agri-advisor/pkg/metrics"
	"github.com/sweetpotato0/agri-advisor/prompt"
	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
	"github.com/sweetpotato0/agri-advisor/rag/query"
	"github.com/sweetpotato0/agri-advisor/rag/tokenizer"
	"github.com/sweetpotato0/agri-advisor/record"
)

// Validation paths, also used as metric labels.
const (
	PathRemote  = "remote"
	PathLocal   = "local"
	PathReduced = "reduced"
)

const (
	// MinOverlap is the share of the query's significant words the draft
	// must contain to pass the local accuracy check.
	MinOverlap = 0.3
	// lowOverlapPenalty is subtracted from confidence when the check fails.
	lowOverlapPenalty = 0.1
	defaultBudget     = 3000
)

// LangContext is the language side of the request being answered.
type LangContext struct {
	Language string
	// Query is the text as the user typed it.
	Query string
	// Translated is the base-language rendering used for matching.
	Translated string
	Context    query.Context
}

// Draft is the answer before validation.
type Draft struct {
	Text       string
	Confidence float64
	Basis      answer.Basis
	// Missing are market records for requested crops that have no price.
	Missing []record.Record
}

// Enhanced is the validated answer.
type Enhanced struct {
	Text       string
	Confidence float64
	Basis      answer.Basis
	Sources    []record.Record
	Disclaimer string
	Path       string
}

// Validator validates drafts. It is safe for concurrent use.
type Validator struct {
	gen     llm.Generator
	prompts *prompt.Manager
	tok     tokenizer.Tokenizer
	budget  int
}

// Option configures a Validator.
type Option func(*Validator)

// WithGenerator sets the remote generation service. Any error it returns,
// instrumented or not, sends Validate to the local checks.
func WithGenerator(g llm.Generator) Option {
	return func(v *Validator) { v.gen = g }
}

// WithPrompts replaces the template set. It must define prompt.NameValidate.
func WithPrompts(m *prompt.Manager) Option {
	return func(v *Validator) {
		if m != nil {
			v.prompts = m
		}
	}
}

// WithTokenizer sets the tokenizer and the evidence token budget.
func WithTokenizer(t tokenizer.Tokenizer, budget int) Option {
	return func(v *Validator) {
		if t != nil {
			v.tok = t
		}
		if budget > 0 {
			v.budget = budget
		}
	}
}

// New creates a validator. Without WithGenerator only local checks run.
func New(opts ...Option) *Validator {
	v := &Validator{
		gen:     llm.Unavailable{},
		prompts: prompt.Default(),
		tok:     tokenizer.NewSimpleTokenizer(),
		budget:  defaultBudget,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate returns the enhanced answer for d.
func (v *Validator) Validate(ctx context.Context, d Draft, recs []record.Record, lc LangContext) (out Enhanced) {
	logger := logging.WithComponent("validator")
	defer func() {
		if r := recover(); r != nil {
			logger.Error("validation panicked", "panic", r)
			out = reduced(d, recs)
		}
		metrics.IncValidation(out.Path)
	}()

	if llm.IsConfigured(v.gen) {
		text, err := v.remote(ctx, d, recs, lc)
		if err == nil {
			return Enhanced{
				Text:       answer.Wrap(text, lc.Context),
				Confidence: answer.ClampConfidence(d.Confidence),
				Basis:      d.Basis,
				Sources:    recs,
				Path:       PathRemote,
			}
		}
		if errors.Is(err, errors.ErrValidationUnavailable) {
			logger.Info("falling back to local validation", "error", err)
		} else {
			logger.Warn("remote validation failed, using local checks", "error", err)
		}
	}

	text, conf, disclaimer := local(d.Text, d.Confidence, lc)
	return Enhanced{
		Text:       text,
		Confidence: conf,
		Basis:      d.Basis,
		Sources:    recs,
		Disclaimer: disclaimer,
		Path:       PathLocal,
	}
}

// Revalidate re-checks a cached answer with local checks only. ok is false
// when the cached text breaks the honesty guard and must not be served.
// Structured text is returned unchanged so repeated reads are stable.
func (v *Validator) Revalidate(ctx context.Context, resp answer.Response, lc LangContext) (out answer.Response, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.WithComponent("validator").Error("revalidation panicked", "panic", r)
			out, ok = resp.Clone(), false
		}
	}()

	if err := CheckHonesty(resp.Text, MissingCrops(resp.Sources)); err != nil {
		logging.WithComponent("validator").Warn("cached answer rejected", "error", err)
		return resp, false
	}
	out = resp.Clone()
	// The stored confidence already carries any overlap penalty.
	text, _, disclaimer := local(out.Text, out.Confidence, lc)
	out.Text = text
	out = out.WithDisclaimer(disclaimer)
	metrics.IncValidation(PathLocal)
	return out, true
}

func (v *Validator) remote(ctx context.Context, d Draft, recs []record.Record, lc LangContext) (string, error) {
	missing := MissingCrops(d.Missing)
	qc := lc.Context
	data := prompt.Data{
		Query:        firstNonEmpty(lc.Query, lc.Translated),
		Language:     lc.Language,
		Location:     qc.Place().String(),
		Crop:         qc.CropName(),
		Topics:       qc.Topics.String(),
		Draft:        d.Text,
		Evidence:     tokenizer.FitLines(v.tok, answer.EvidenceLines(recs), v.budget),
		MissingCrops: missing,
	}
	p, err := v.prompts.Render(prompt.NameValidate, data)
	if err != nil {
		return "", fmt.Errorf("render validation prompt: %w", errors.ErrInternal)
	}

	text, err := v.gen.Generate(ctx, p)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	if err := CheckHonesty(text, missing); err != nil {
		return "", fmt.Errorf("enhanced text rejected: %w: %w", errors.ErrValidationUnavailable, err)
	}
	return text, nil
}

// local applies the keyword-overlap and structure checks.
func local(text string, conf float64, lc LangContext) (string, float64, string) {
	q := firstNonEmpty(lc.Translated, lc.Query)
	disclaimer := ""
	if q != "" && preprocess.WordOverlap(q, text) < MinOverlap {
		conf -= lowOverlapPenalty
		disclaimer = answer.DisclaimerLowConfidence
	}
	return answer.Wrap(text, lc.Context), answer.ClampConfidence(conf), disclaimer
}

func reduced(d Draft, recs []record.Record) Enhanced {
	return Enhanced{
		Text:       d.Text,
		Confidence: answer.ClampConfidence(d.Confidence),
		Basis:      d.Basis,
		Sources:    recs,
		Disclaimer: answer.DisclaimerReducedValidation,
		Path:       PathReduced,
	}
}

// MissingCrops lists the requested crops flagged as missing in market records.
func MissingCrops(recs []record.Record) []string {
	var out []string
	seen := make(map[string]bool)
	for _, r := range recs {
		m, ok := r.Payload.(record.MarketPayload)
		if !ok || m.MissingDataNote == "" || m.RequestedCrop == "" {
			continue
		}
		key := strings.ToLower(m.RequestedCrop)
		if !seen[key] {
			seen[key] = true
			out = append(out, m.RequestedCrop)
		}
	}
	return out
}

var (
	priceRe   = regexp.MustCompile(`(?i)(₹|\brs\.?|\binr)\s*\d|\d[\d,]*(\.\d+)?\s*(/|per)\s*(quintal|qtl|kg|tonne)`)
	absenceRe = regexp.MustCompile(`(?i)no current price data`)
)

// CheckHonesty fails when text states a price on a line naming one of the
// missing crops, or when it no longer says that their price is unavailable.
func CheckHonesty(text string, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	if !absenceRe.MatchString(text) {
		return fmt.Errorf("missing-price statement dropped for %s", strings.Join(missing, ", "))
	}
	for _, line := range strings.Split(text, "\n") {
		if !priceRe.MatchString(line) || absenceRe.MatchString(line) {
			continue
		}
		words := preprocess.Words(line)
		for _, crop := range missing {
			if containsPhrase(words, preprocess.Words(crop)) {
				return fmt.Errorf("price stated for %s which has no current data", crop)
			}
		}
	}
	return nil
}

func containsPhrase(words, phrase []string) bool {
	if len(phrase) == 0 {
		return false
	}
outer:
	for i := 0; i+len(phrase) <= len(words); i++ {
		for j, p := range phrase {
			if words[i+j] != p && words[i+j] != p+"s" {
				continue outer
			}
		}
		return true
	}
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
