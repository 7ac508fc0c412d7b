package llm

import (
	"context"
	"testing"
	"time"

	"github.com/sweetpotato0/agri-advisor/errors"
)

func TestUnavailable(t *testing.T) {
	_, err := Unavailable{}.Generate(context.Background(), "hi")
	if !errors.Is(err, errors.ErrValidationUnavailable) {
		t.Fatalf("expected ErrValidationUnavailable, got %v", err)
	}
	if IsConfigured(Unavailable{}) || IsConfigured(nil) {
		t.Fatalf("Unavailable and nil must not count as configured")
	}
}

func TestInstrumentWrapsErrors(t *testing.T) {
	boom := errors.New("connection refused")
	g := Instrument("stub", Func(func(context.Context, string) (string, error) { return "", boom }), time.Second)

	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, errors.ErrValidationUnavailable) || !errors.Is(err, boom) {
		t.Fatalf("error should wrap both sentinel and cause: %v", err)
	}
}

func TestInstrumentRejectsEmptyText(t *testing.T) {
	g := Instrument("stub", Func(func(context.Context, string) (string, error) { return "  \n", nil }), 0)
	if _, err := g.Generate(context.Background(), "prompt"); !errors.Is(err, errors.ErrValidationUnavailable) {
		t.Fatalf("blank output should be unavailable, got %v", err)
	}
}

func TestInstrumentTimeout(t *testing.T) {
	g := Instrument("slow", Func(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}), 20*time.Millisecond)

	start := time.Now()
	_, err := g.Generate(context.Background(), "prompt")
	if !errors.Is(err, errors.ErrValidationUnavailable) {
		t.Fatalf("expected unavailable after timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("timeout not applied")
	}
}

func TestInstrumentPassesText(t *testing.T) {
	g := Instrument("stub", Func(func(_ context.Context, p string) (string, error) { return " echo: " + p + " ", nil }), 0)
	got, err := g.Generate(context.Background(), "x")
	if err != nil || got != "echo: x" {
		t.Fatalf("Generate = %q, %v", got, err)
	}
}

func TestInstrumentUnconfigured(t *testing.T) {
	if _, ok := Instrument("none", nil, 0).(Unavailable); !ok {
		t.Fatalf("instrumenting nil should yield Unavailable")
	}
}
