// Package validator holds the middlewares that gate questions on the way in
// and normalize trust signals on the way out.
package validator

import (
	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/middleware"
	"github.com/sweetpotato0/agri-advisor/rag/query"
)

// QueryCheck rejects a question before it reaches the pipeline when Check
// returns an error.
type QueryCheck struct {
	Check func(q string) error
}

// NewQueryValidator rejects questions too short to act on with
// errors.ErrInvalidQuery.
func NewQueryValidator() *QueryCheck {
	return &QueryCheck{Check: query.Check}
}

func (*QueryCheck) Name() string { return "query_check" }

func (m *QueryCheck) Execute(c *middleware.Context, next middleware.Handler) error {
	if err := m.Check(c.Query); err != nil {
		return err
	}
	return next(c)
}

// TrustSignals bounds the confidence of every outgoing response, defaults
// its factual basis to low and flags answers below MinConfidence.
type TrustSignals struct {
	MinConfidence float64
}

func NewTrustSignals() *TrustSignals {
	return &TrustSignals{MinConfidence: 0.3}
}

func (*TrustSignals) Name() string { return "trust_signals" }

func (m *TrustSignals) Execute(c *middleware.Context, next middleware.Handler) error {
	if err := next(c); err != nil {
		return err
	}
	r := c.Response
	if r == nil {
		return nil
	}
	r.Confidence = answer.ClampConfidence(r.Confidence)
	if r.FactualBasis == "" {
		r.FactualBasis = answer.BasisLow
	}
	if r.Confidence < m.MinConfidence {
		*r = r.WithDisclaimer(answer.DisclaimerLowConfidence)
	}
	return nil
}
