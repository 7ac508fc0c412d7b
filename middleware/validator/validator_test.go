package validator

import (
	"context"
	"testing"

	"github.com/sweetpotato0/agri-advisor/answer"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/middleware"
)

func TestQueryValidator(t *testing.T) {
	tests := []struct {
		query   string
		wantErr bool
	}{
		{query: "", wantErr: true},
		{query: "??", wantErr: true},
		{query: "wheat price in Ludhiana", wantErr: false},
	}

	for _, tt := range tests {
		called := false
		err := NewQueryValidator().Execute(middleware.NewContext(context.Background(), tt.query, "en"), func(*middleware.Context) error {
			called = true
			return nil
		})
		if tt.wantErr {
			if !errors.Is(err, errors.ErrInvalidQuery) || called {
				t.Errorf("query %q: err = %v, next called = %v", tt.query, err, called)
			}
			continue
		}
		if err != nil || !called {
			t.Errorf("query %q: err = %v, next called = %v", tt.query, err, called)
		}
	}
}

func TestTrustSignals(t *testing.T) {
	ctx := middleware.NewContext(context.Background(), "q", "en")
	err := NewTrustSignals().Execute(ctx, func(c *middleware.Context) error {
		c.Response = &answer.Response{Confidence: 1.4}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if ctx.Response.Confidence != answer.MaxConfidence || ctx.Response.FactualBasis != answer.BasisLow {
		t.Fatalf("response not normalised: %+v", ctx.Response)
	}

	ctx = middleware.NewContext(context.Background(), "q", "en")
	NewTrustSignals().Execute(ctx, func(c *middleware.Context) error {
		c.Response = &answer.Response{Confidence: 0.2, FactualBasis: answer.BasisLow}
		return nil
	})
	if len(ctx.Response.Disclaimers) != 1 || ctx.Response.Disclaimers[0] != answer.DisclaimerLowConfidence {
		t.Fatalf("low confidence disclaimer missing: %+v", ctx.Response.Disclaimers)
	}
}
