package history

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sweetpotato0/agri-advisor/errors"
)

func TestAddAndSimilar(t *testing.T) {
	ctx := context.Background()
	h := NewMemory(10)

	e, err := h.Add(ctx, "wheat price in Ludhiana mandi today", "en")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := uuid.Parse(e.ID); err != nil {
		t.Fatalf("ID %q is not a uuid: %v", e.ID, err)
	}
	h.Add(ctx, "how to control aphids in mustard", "en")
	h.Add(ctx, "wheat price in Ludhiana mandi", "hi")

	got, err := h.Similar(ctx, "current wheat price Ludhiana mandi", "en", 0.6)
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(got) != 1 || got[0].Query != "wheat price in Ludhiana mandi today" {
		t.Fatalf("Similar = %+v", got)
	}
	if got[0].Score < 0.6 {
		t.Fatalf("score %v below threshold", got[0].Score)
	}
}

func TestSimilarSkipsIdenticalQuery(t *testing.T) {
	ctx := context.Background()
	h := NewMemory(4)
	h.Add(ctx, "Soybean sowing time", "en")

	got, _ := h.Similar(ctx, "soybean sowing time?", "en", 0.1)
	if len(got) != 0 {
		t.Fatalf("identical query should be skipped, got %+v", got)
	}
}

func TestAddDeduplicatesAndWraps(t *testing.T) {
	ctx := context.Background()
	h := NewMemory(3)
	h.now = func() time.Time { return time.Unix(100, 0) }

	first, _ := h.Add(ctx, "rice blast control", "en")
	again, _ := h.Add(ctx, "Rice blast control!", "en")
	if first.ID != again.ID || h.Len() != 1 {
		t.Fatalf("re-adding should refresh, not duplicate (len %d)", h.Len())
	}

	for i := 0; i < 5; i++ {
		h.Add(ctx, fmt.Sprintf("question number %d about maize", i), "en")
	}
	if h.Len() != 3 {
		t.Fatalf("Len = %d, want capacity 3", h.Len())
	}
	got, _ := h.Similar(ctx, "rice blast control in paddy", "en", 0.5)
	if len(got) != 0 {
		t.Fatalf("evicted entry still searchable: %+v", got)
	}
}

func TestAddRejectsEmpty(t *testing.T) {
	if _, err := NewMemory(2).Add(context.Background(), " ?! ", "en"); !errors.Is(err, errors.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	h := NewMemory(64)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				h.Add(ctx, fmt.Sprintf("farmer %d question %d", i, j), "en")
				h.Similar(ctx, "farmer question", "en", 0.5)
			}
		}(i)
	}
	wg.Wait()
	if h.Len() != 64 {
		t.Fatalf("Len = %d, want 64", h.Len())
	}
}
