package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-integrations/core"
)

var ErrStateNotFound = errors.New("ratelimit: state not found")

// State is one counting window for a bucket key.
type State struct {
	Key         string
	WindowStart time.Time
	Count       int
	UpdatedAt   time.Time
}

type StateStore interface {
	Get(ctx context.Context, key string) (State, error)
	Upsert(ctx context.Context, state State) error
}

// WindowLimiter counts requests per bucket in fixed windows. The default
// window is one minute to match per-minute endpoint limits.
type WindowLimiter struct {
	Store  StateStore
	Now    func() time.Time
	Window time.Duration

	mu sync.Mutex
}

func NewWindowLimiter(store StateStore) *WindowLimiter {
	return &WindowLimiter{
		Store:  store,
		Now:    func() time.Time { return time.Now().UTC() },
		Window: time.Minute,
	}
}

// Allow reports whether one more request fits the current window. A limit of
// zero or less disables limiting for the bucket.
func (l *WindowLimiter) Allow(ctx context.Context, key string, limit int) (bool, error) {
	if l == nil || l.Store == nil {
		return true, nil
	}
	if limit <= 0 {
		return true, nil
	}
	key = normalizeKey(key)
	if key == "" {
		return false, fmt.Errorf("ratelimit: bucket key is required")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	state, err := l.Store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrStateNotFound) {
			return false, err
		}
		state = State{Key: key, WindowStart: now}
	}
	if now.Sub(state.WindowStart) >= l.window() {
		state.WindowStart = now
		state.Count = 0
	}
	if state.Count >= limit {
		return false, nil
	}
	state.Count++
	state.UpdatedAt = now
	if err := l.Store.Upsert(ctx, state); err != nil {
		return false, err
	}
	return true, nil
}

func (l *WindowLimiter) now() time.Time {
	if l != nil && l.Now != nil {
		return l.Now().UTC()
	}
	return time.Now().UTC()
}

func (l *WindowLimiter) window() time.Duration {
	if l != nil && l.Window > 0 {
		return l.Window
	}
	return time.Minute
}

func normalizeKey(key string) string {
	return strings.TrimSpace(strings.ToLower(key))
}

type MemoryStateStore struct {
	mu    sync.RWMutex
	items map[string]State
}

func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{items: map[string]State{}}
}

func (s *MemoryStateStore) Get(_ context.Context, key string) (State, error) {
	if s == nil {
		return State{}, fmt.Errorf("ratelimit: state store is nil")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.items[normalizeKey(key)]
	if !ok {
		return State{}, ErrStateNotFound
	}
	return state, nil
}

func (s *MemoryStateStore) Upsert(_ context.Context, state State) error {
	if s == nil {
		return fmt.Errorf("ratelimit: state store is nil")
	}
	state.Key = normalizeKey(state.Key)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[state.Key] = state
	return nil
}

var _ core.RateLimiter = (*WindowLimiter)(nil)
