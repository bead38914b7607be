package checkpoint

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonathan/resume-reviewer/internal/types"
)

// MemoryStore keeps runs for the lifetime of the process.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*types.Run
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*types.Run)}
}

// Put stores a copy of the run
func (s *MemoryStore) Put(_ context.Context, run *types.Run) error {
	if run == nil || run.ThreadID == "" {
		return fmt.Errorf("run with thread id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ThreadID] = run.Clone()
	return nil
}

// Get returns a copy of the stored run
func (s *MemoryStore) Get(_ context.Context, threadID string) (*types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[threadID]
	if !ok {
		return nil, nil
	}
	return run.Clone(), nil
}

// List returns copies of the stored runs, newest first
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*types.Run, error) {
	s.mu.RLock()
	all := make([]*types.Run, 0, len(s.runs))
	for _, r := range s.runs {
		all = append(all, r.Clone())
	}
	s.mu.RUnlock()
	return applyFilter(all, filter), nil
}

// Delete removes a run
func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs[threadID]; !ok {
		return ErrNotFound
	}
	delete(s.runs, threadID)
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}
