package graph

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type counter struct {
	n      int
	failed string
	cause  error
	out    string
}

func inc(next string) StepFunc[counter] {
	return func(_ context.Context, s *counter) (string, error) {
		s.n++
		return next, nil
	}
}

func end(_ context.Context, s *counter) (string, error) {
	s.out = "done"
	return "", nil
}

func TestLinearRun(t *testing.T) {
	g, err := NewBuilder[counter]().
		AddNode("start", NodeTypeStart, inc("")).
		AddNode("middle", NodeTypeCustom, inc("")).
		AddNode("end", NodeTypeEnd, end).
		AddEdge("start", "middle").
		AddEdge("middle", "end").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var s counter
	trace, err := g.Run(context.Background(), &s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"start", "middle", "end"}, trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	if s.n != 2 || s.out != "done" {
		t.Fatalf("state = %+v", s)
	}
}

func TestConditionAndJump(t *testing.T) {
	g, err := NewBuilder[counter]().
		AddNode("start", NodeTypeStart, inc("")).
		AddConditionNode("gate", func(_ context.Context, s *counter) (string, error) {
			if s.n > 0 {
				return "yes", nil
			}
			return "no", nil
		}, map[string]string{"yes": "skip", "no": "end"}).
		AddNode("skip", NodeTypeCustom, inc("end")).
		AddNode("end", NodeTypeEnd, end).
		AddEdge("start", "gate").
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var s counter
	trace, err := g.Run(context.Background(), &s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"start", "gate", "skip", "end"}, trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestRecoveryNode(t *testing.T) {
	boom := errors.New("boom")
	tests := []struct {
		name string
		step StepFunc[counter]
		want string
	}{
		{name: "error", step: func(context.Context, *counter) (string, error) { return "", boom }, want: "boom"},
		{name: "panic", step: func(context.Context, *counter) (string, error) { panic("bad state") }, want: "panic in node work: bad state"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewBuilder[counter]().
				AddNode("start", NodeTypeStart, inc("work")).
				AddNode("work", NodeTypeCustom, tt.step).
				AddNode("fallback", NodeTypeCustom, func(_ context.Context, s *counter) (string, error) {
					s.out = "fallback"
					return "end", nil
				}).
				AddNode("end", NodeTypeEnd, func(context.Context, *counter) (string, error) { return "", nil }).
				OnError("fallback", func(_ context.Context, s *counter, node string, err error) {
					s.failed, s.cause = node, err
				}).
				Build()
			if err != nil {
				t.Fatalf("Build: %v", err)
			}

			var s counter
			trace, err := g.Run(context.Background(), &s)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if diff := cmp.Diff([]string{"start", "work", "fallback", "end"}, trace); diff != "" {
				t.Fatalf("trace mismatch (-want +got):\n%s", diff)
			}
			if s.failed != "work" || !strings.Contains(s.cause.Error(), tt.want) || s.out != "fallback" {
				t.Fatalf("state = %+v", s)
			}
		})
	}
}

func TestPanicErrorType(t *testing.T) {
	g, _ := NewBuilder[counter]().
		AddNode("start", NodeTypeStart, func(context.Context, *counter) (string, error) { panic(42) }).
		AddNode("end", NodeTypeEnd, end).
		Build()

	_, err := g.Run(context.Background(), &counter{})
	var pe *PanicError
	if !errors.As(err, &pe) || pe.Value != 42 || len(pe.Stack) == 0 {
		t.Fatalf("expected PanicError, got %v", err)
	}
}

func TestCancelledContextDivertsToRecovery(t *testing.T) {
	g, err := NewBuilder[counter]().
		AddNode("start", NodeTypeStart, inc("end")).
		AddNode("fallback", NodeTypeCustom, inc("end")).
		AddNode("end", NodeTypeEnd, end).
		OnError("fallback", nil).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var s counter
	trace, err := g.Run(ctx, &s)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if diff := cmp.Diff([]string{"start", "fallback", "end"}, trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	if s.out != "done" {
		t.Fatalf("end node should still run after cancellation")
	}
}

func TestStepLimit(t *testing.T) {
	g, err := NewBuilder[counter]().
		AddNode("start", NodeTypeStart, inc("loop")).
		AddNode("loop", NodeTypeCustom, inc("loop")).
		AddNode("end", NodeTypeEnd, end).
		SetMaxSteps(5).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := g.Run(context.Background(), &counter{}); err == nil || !strings.Contains(err.Error(), "step limit") {
		t.Fatalf("expected step limit error, got %v", err)
	}
}

func TestBuildErrors(t *testing.T) {
	noop := func(context.Context, *counter) (string, error) { return "", nil }
	tests := []struct {
		name  string
		build func() *Builder[counter]
		want  string
	}{
		{
			name:  "empty name",
			build: func() *Builder[counter] { return NewBuilder[counter]().AddNode("", NodeTypeCustom, noop) },
			want:  "unnamed custom node",
		},
		{
			name: "duplicate",
			build: func() *Builder[counter] {
				return NewBuilder[counter]().AddNode("a", NodeTypeStart, noop).AddNode("a", NodeTypeCustom, noop)
			},
			want: "duplicate node a",
		},
		{
			name:  "no end",
			build: func() *Builder[counter] { return NewBuilder[counter]().AddNode("a", NodeTypeStart, noop) },
			want:  "end node not set",
		},
		{
			name: "dangling edge",
			build: func() *Builder[counter] {
				return NewBuilder[counter]().
					AddNode("a", NodeTypeStart, noop).
					AddNode("z", NodeTypeEnd, noop).
					AddEdge("a", "b")
			},
			want: "a refers to unknown node b",
		},
		{
			name: "nil condition",
			build: func() *Builder[counter] {
				return NewBuilder[counter]().AddConditionNode("c", nil, nil)
			},
			want: "condition node c has no condition",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Build() error = %v, want %q", err, tt.want)
			}
		})
	}
}
