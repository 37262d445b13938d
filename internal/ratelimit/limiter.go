// Package ratelimit implements a fixed-window request counter keyed by
// caller-supplied strings. Windows reset at a fixed boundary rather than
// sliding, so a burst straddling a boundary can briefly reach twice the
// nominal rate; that tradeoff is accepted for simplicity.
package ratelimit

import (
	"sync"
	"time"
)

// Entry is one window's counter state.
type Entry struct {
	Count   int
	ResetAt time.Time
}

// Store holds counters. Implementations need no internal locking: the Limiter
// serializes every check-and-increment.
type Store interface {
	Get(key string) (Entry, bool)
	Set(key string, e Entry)
}

// MemoryStore is the default store. Lifetime is the process lifetime; counters
// are lost on restart, which is acceptable because the limiter bounds
// short-term abuse and is not a security boundary.
type MemoryStore struct {
	entries map[string]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Entry)}
}

func (s *MemoryStore) Get(key string) (Entry, bool) {
	e, ok := s.entries[key]
	return e, ok
}

func (s *MemoryStore) Set(key string, e Entry) {
	s.entries[key] = e
}

// Result reports one Allow decision. ResetAt lets the caller compute a
// retry-after on denial.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

// Limiter enforces fixed-window quotas over an injectable store.
type Limiter struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithStore overrides the default in-memory store.
func WithStore(store Store) Option {
	return func(l *Limiter) {
		if store != nil {
			l.store = store
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(l *Limiter) {
		if fn != nil {
			l.now = fn
		}
	}
}

func New(opts ...Option) *Limiter {
	l := &Limiter{
		store: NewMemoryStore(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one request against key and reports whether it fits in the
// current window. The read-modify-write is a single atomic step: two
// concurrent calls for the same key can never both slip past the limit.
// A denied call does not increment the counter.
func (l *Limiter) Allow(key string, limit int, window time.Duration) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.store.Get(key)
	if !ok || !now.Before(e.ResetAt) {
		e = Entry{Count: 1, ResetAt: now.Add(window)}
		l.store.Set(key, e)
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: e.ResetAt}
	}
	if e.Count >= limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: e.ResetAt}
	}
	e.Count++
	l.store.Set(key, e)
	return Result{Allowed: true, Remaining: limit - e.Count, ResetAt: e.ResetAt}
}
