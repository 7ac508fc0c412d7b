package middleware

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	name  string
	order *[]string
}

func (r recorder) Name() string { return r.name }

func (r recorder) Execute(ctx *Context, next Handler) error {
	*r.order = append(*r.order, r.name+":before")
	err := next(ctx)
	*r.order = append(*r.order, r.name+":after")
	return err
}

func TestChainOrder(t *testing.T) {
	var order []string
	chain := NewChain(recorder{"a", &order}).Add(recorder{"b", &order})

	err := chain.Execute(NewContext(context.Background(), "q", "en"), func(*Context) error {
		order = append(order, "final")
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	want := []string{"a:before", "b:before", "final", "b:after", "a:after"}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, chain.Names()); diff != "" {
		t.Fatalf("names mismatch: %s", diff)
	}
}

func TestEmptyChainCallsFinal(t *testing.T) {
	called := false
	NewChain().Execute(NewContext(context.Background(), "q", ""), func(*Context) error {
		called = true
		return nil
	})
	if !called {
		t.Fatalf("final handler not called")
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-1")
	if got := RequestIDFrom(ctx); got != "req-1" {
		t.Fatalf("RequestIDFrom = %q", got)
	}
	if got := RequestIDFrom(context.Background()); got != "" {
		t.Fatalf("empty context returned %q", got)
	}
}
