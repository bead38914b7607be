// Package checkpoint persists analysis runs keyed by thread id so a run can
// be re-fetched without re-running its stages.
package checkpoint

import (
	"context"
	"errors"
	"sort"

	"github.com/jonathan/resume-reviewer/internal/types"
)

// ErrNotFound is returned by Delete for unknown thread ids.
var ErrNotFound = errors.New("checkpoint: thread not found")

// Filter narrows List results.
type Filter struct {
	Status string
	Limit  int
	Offset int
}

// Store is the persistence boundary of the pipeline. Implementations copy
// records on the way in and out so callers never alias stored state.
type Store interface {
	// Put inserts or replaces the run stored under run.ThreadID
	Put(ctx context.Context, run *types.Run) error
	// Get returns the stored run, or nil, nil when the thread is unknown
	Get(ctx context.Context, threadID string) (*types.Run, error)
	// List returns runs newest first
	List(ctx context.Context, filter Filter) ([]*types.Run, error)
	// Delete removes a run, returning ErrNotFound when absent
	Delete(ctx context.Context, threadID string) error
	Close() error
}

// applyFilter filters by status, sorts newest first and pages the result.
func applyFilter(runs []*types.Run, filter Filter) []*types.Run {
	out := make([]*types.Run, 0, len(runs))
	for _, r := range runs {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []*types.Run{}
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out
}
