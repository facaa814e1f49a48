package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for tests and single-node runs
// without redis.
type MemoryStore struct {
	mu       sync.Mutex
	counts   map[string]int64
	deadline map[string]time.Time
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:   make(map[string]int64),
		deadline: make(map[string]time.Time),
		now:      time.Now,
	}
}

func (s *MemoryStore) IncrAndGet(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evict(key)
	s.counts[key]++
	return s.counts[key], nil
}

func (s *MemoryStore) Expire(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.counts[key]; ok {
		s.deadline[key] = s.now().Add(ttl)
	}
	return nil
}

// evict drops the key if its deadline has passed. Caller holds the lock.
func (s *MemoryStore) evict(key string) {
	if d, ok := s.deadline[key]; ok && s.now().After(d) {
		delete(s.counts, key)
		delete(s.deadline, key)
	}
}

var _ Store = (*MemoryStore)(nil)
