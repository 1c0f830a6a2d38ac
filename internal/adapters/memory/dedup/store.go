package dedup

import (
	"context"
	"sync"
	"time"

	clockport "github.com/luxeladies/community-api/internal/ports/out/clock"
)

// Store is an in-memory implementation of dedup.Store with per-key expiry.
// It is safe for concurrent use.
type Store struct {
	mu  sync.Mutex
	clk clockport.Clock
	m   map[string]time.Time
}

func NewStore(clk clockport.Clock) *Store {
	return &Store{
		clk: clk,
		m:   make(map[string]time.Time),
	}
}

func (s *Store) Get(ctx context.Context, key string) (bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.m[key]
	if !ok {
		return false, nil
	}
	if !s.clk.Now().Before(exp) {
		delete(s.m, key)
		return false, nil
	}
	return true, nil
}

func (s *Store) Set(ctx context.Context, key string, ttl time.Duration) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = s.clk.Now().Add(ttl)
	return nil
}

// Len returns the number of stored markers, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}
