// Package history remembers answered queries so the offline path can find
// an earlier, similar question whose answer is still cached.
package history

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sweetpotato0/agri-advisor/errors"
	"github.com/sweetpotato0/agri-advisor/rag/language"
	"github.com/sweetpotato0/agri-advisor/rag/preprocess"
)

// DefaultCapacity bounds the in-memory history.
const DefaultCapacity = 500

// Entry is one answered query.
type Entry struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

// Match is a similar earlier query.
type Match struct {
	Entry
	Score float64
}

// Store defines the interface for storing and searching query history.
type Store interface {
	Add(ctx context.Context, query, language string) (Entry, error)
	// Similar returns earlier queries in language scoring at least threshold,
	// best first.
	Similar(ctx context.Context, query, language string, threshold float64) ([]Match, error)
	Len() int
}

// Memory is a bounded in-memory Store. When full, the oldest entry is
// overwritten. Re-adding a query refreshes it instead of duplicating.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
	byQuery map[string]int
	now     func() time.Time
}

// NewMemory creates a store holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Memory{
		entries: make([]Entry, capacity),
		byQuery: make(map[string]int, capacity),
		now:     time.Now,
	}
}

func key(query, lang string) string {
	return language.Canonical(lang) + "|" + preprocess.Normalize(query)
}

// Add records query.
func (m *Memory) Add(_ context.Context, query, lang string) (Entry, error) {
	if preprocess.Normalize(query) == "" {
		return Entry{}, fmt.Errorf("history: empty query: %w", errors.ErrInvalidInput)
	}
	k := key(query, lang)

	m.mu.Lock()
	defer m.mu.Unlock()

	if i, ok := m.byQuery[k]; ok {
		m.entries[i].CreatedAt = m.now()
		return m.entries[i], nil
	}

	if m.full {
		old := m.entries[m.next]
		delete(m.byQuery, key(old.Query, old.Language))
	}
	e := Entry{
		ID:        uuid.NewString(),
		Query:     query,
		Language:  language.Canonical(lang),
		CreatedAt: m.now(),
	}
	m.entries[m.next] = e
	m.byQuery[k] = m.next
	m.next = (m.next + 1) % len(m.entries)
	if m.next == 0 {
		m.full = true
	}
	return e, nil
}

// Similar scans the history with preprocess.Similarity. An identical query
// is not returned; the response cache already covers it.
func (m *Memory) Similar(_ context.Context, query, lang string, threshold float64) ([]Match, error) {
	lang = language.Canonical(lang)
	self := key(query, lang)

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Match
	for i := 0; i < m.lenLocked(); i++ {
		e := m.entries[i]
		if e.Language != lang || key(e.Query, e.Language) == self {
			continue
		}
		if s := preprocess.Similarity(query, e.Query); s >= threshold {
			out = append(out, Match{Entry: e, Score: s})
		}
	}
	sortMatches(out)
	return out, nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lenLocked()
}

func (m *Memory) lenLocked() int {
	if m.full {
		return len(m.entries)
	}
	return m.next
}

// sortMatches orders by score, then most recent first.
func sortMatches(ms []Match) {
	slices.SortFunc(ms, func(a, b Match) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return b.CreatedAt.Compare(a.CreatedAt)
	})
}
