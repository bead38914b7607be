package checkpoint

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jonathan/resume-reviewer/internal/types"
)

// DefaultCacheSize is the number of runs CachedStore keeps in memory
const DefaultCacheSize = 1024

// DefaultCacheTTL bounds how long a cached run may hide a re-run written by
// another process sharing the backend.
const DefaultCacheTTL = time.Minute

// CachedStore is a read-through LRU cache in front of a durable store.
// Only terminal runs are cached: a pending or running run may be advanced
// by another process (the worker) at any time, so it is always read from
// the backend.
type CachedStore struct {
	backend Store
	cache   *expirable.LRU[string, *types.Run]
}

// NewCachedStore wraps backend with an LRU of the given size and entry TTL
func NewCachedStore(backend Store, size int, ttl time.Duration) *CachedStore {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{
		backend: backend,
		cache:   expirable.NewLRU[string, *types.Run](size, nil, ttl),
	}
}

// Put writes through to the backend
func (s *CachedStore) Put(ctx context.Context, run *types.Run) error {
	if err := s.backend.Put(ctx, run); err != nil {
		s.cache.Remove(run.ThreadID)
		return err
	}
	s.remember(run)
	return nil
}

// Get serves terminal runs from the cache, loading from the backend otherwise
func (s *CachedStore) Get(ctx context.Context, threadID string) (*types.Run, error) {
	if run, ok := s.cache.Get(threadID); ok {
		return run.Clone(), nil
	}
	run, err := s.backend.Get(ctx, threadID)
	if err != nil || run == nil {
		return run, err
	}
	s.remember(run)
	return run, nil
}

func (s *CachedStore) remember(run *types.Run) {
	if run.Terminal() {
		s.cache.Add(run.ThreadID, run.Clone())
		return
	}
	s.cache.Remove(run.ThreadID)
}

// List always reads the backend
func (s *CachedStore) List(ctx context.Context, filter Filter) ([]*types.Run, error) {
	return s.backend.List(ctx, filter)
}

// Delete removes the run from both layers
func (s *CachedStore) Delete(ctx context.Context, threadID string) error {
	s.cache.Remove(threadID)
	return s.backend.Delete(ctx, threadID)
}

// Close closes the backend
func (s *CachedStore) Close() error {
	s.cache.Purge()
	return s.backend.Close()
}
