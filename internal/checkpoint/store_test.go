package checkpoint

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-reviewer/internal/types"
)

func sampleRun(id string, status string, created time.Time) *types.Run {
	run := &types.Run{
		ThreadID:  id,
		Status:    status,
		State:     *types.NewAnalysisState("Jane Doe resume"),
		CreatedAt: created,
		UpdatedAt: created,
		Steps: []types.StepRecord{
			{Name: "preliminary_info", Category: types.StepCategoryProfile, Status: types.StepStatusCompleted},
		},
	}
	run.State.Professions = []string{"Software Engineer"}
	return run
}

// storeContract runs the behaviour every backend must share
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("get unknown returns nil", func(t *testing.T) {
		s := newStore(t)
		run, err := s.Get(ctx, "missing")
		require.NoError(t, err)
		assert.Nil(t, run)
	})

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleRun("t1", types.RunStatusCompleted, base)))

		got, err := s.Get(ctx, "t1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, []string{"Software Engineer"}, got.State.Professions)
		assert.Len(t, got.Steps, 1)
	})

	t.Run("records are not aliased", func(t *testing.T) {
		s := newStore(t)
		run := sampleRun("t2", types.RunStatusRunning, base)
		require.NoError(t, s.Put(ctx, run))

		run.State.Professions[0] = "Chef"
		got, err := s.Get(ctx, "t2")
		require.NoError(t, err)
		got.Steps[0].Status = types.StepStatusFailed

		again, err := s.Get(ctx, "t2")
		require.NoError(t, err)
		assert.Equal(t, "Software Engineer", again.State.Professions[0])
		assert.Equal(t, types.StepStatusCompleted, again.Steps[0].Status)
	})

	t.Run("put replaces", func(t *testing.T) {
		s := newStore(t)
		run := sampleRun("t3", types.RunStatusRunning, base)
		require.NoError(t, s.Put(ctx, run))
		run.Status = types.RunStatusCompleted
		require.NoError(t, s.Put(ctx, run))

		got, err := s.Get(ctx, "t3")
		require.NoError(t, err)
		assert.Equal(t, types.RunStatusCompleted, got.Status)
	})

	t.Run("list filters and orders newest first", func(t *testing.T) {
		s := newStore(t)
		for i := 0; i < 4; i++ {
			status := types.RunStatusCompleted
			if i%2 == 1 {
				status = types.RunStatusFailed
			}
			run := sampleRun(fmt.Sprintf("l%d", i), status, base.Add(time.Duration(i)*time.Hour))
			require.NoError(t, s.Put(ctx, run))
		}

		all, err := s.List(ctx, Filter{})
		require.NoError(t, err)
		require.Len(t, all, 4)
		assert.Equal(t, "l3", all[0].ThreadID)
		assert.Equal(t, "l0", all[3].ThreadID)

		failed, err := s.List(ctx, Filter{Status: types.RunStatusFailed})
		require.NoError(t, err)
		require.Len(t, failed, 2)
		assert.Equal(t, "l3", failed[0].ThreadID)

		page, err := s.List(ctx, Filter{Limit: 2, Offset: 1})
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, "l2", page[0].ThreadID)

		empty, err := s.List(ctx, Filter{Offset: 10})
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Put(ctx, sampleRun("d1", types.RunStatusCompleted, base)))
		require.NoError(t, s.Delete(ctx, "d1"))

		got, err := s.Get(ctx, "d1")
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.ErrorIs(t, s.Delete(ctx, "d1"), ErrNotFound)
	})

	t.Run("put requires thread id", func(t *testing.T) {
		s := newStore(t)
		assert.Error(t, s.Put(ctx, &types.Run{}))
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestBoltStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s, err := OpenBolt(filepath.Join(t.TempDir(), "runs.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestCachedStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		return NewCachedStore(NewMemoryStore(), 2, 0)
	})
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "runs.db")

	s, err := OpenBolt(path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, sampleRun("persist", types.RunStatusCompleted, time.Now())))
	require.NoError(t, s.Close())

	s, err = OpenBolt(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Get(ctx, "persist")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.RunStatusCompleted, got.Status)
}

// countingStore records backend reads
type countingStore struct {
	*MemoryStore
	gets int
}

func (c *countingStore) Get(ctx context.Context, id string) (*types.Run, error) {
	c.gets++
	return c.MemoryStore.Get(ctx, id)
}

func TestCachedStore_ServesRepeatReadsFromCache(t *testing.T) {
	ctx := context.Background()
	backend := &countingStore{MemoryStore: NewMemoryStore()}
	require.NoError(t, backend.Put(ctx, sampleRun("c1", types.RunStatusCompleted, time.Now())))

	s := NewCachedStore(backend, 8, time.Minute)

	for i := 0; i < 3; i++ {
		got, err := s.Get(ctx, "c1")
		require.NoError(t, err)
		require.NotNil(t, got)
	}
	assert.Equal(t, 1, backend.gets)

	// Misses for unknown ids are not cached
	_, _ = s.Get(ctx, "nope")
	_, _ = s.Get(ctx, "nope")
	assert.Equal(t, 3, backend.gets)
}

func TestCachedStore_SharedBackendSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	shared := &countingStore{MemoryStore: NewMemoryStore()}
	worker := NewCachedStore(shared, 8, time.Minute)
	api := NewCachedStore(shared, 8, time.Minute)

	run := sampleRun("t1", types.RunStatusRunning, time.Now())
	require.NoError(t, worker.Put(ctx, run))

	got, err := api.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusRunning, got.Status)

	run.Status = types.RunStatusCompleted
	require.NoError(t, worker.Put(ctx, run))

	got, err = api.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, types.RunStatusCompleted, got.Status, "running runs are never served from cache")

	// terminal runs are cached from here on
	before := shared.gets
	_, err = api.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, before, shared.gets)
}

func TestCachedStore_TerminalEntriesExpire(t *testing.T) {
	ctx := context.Background()
	shared := NewMemoryStore()
	other := NewCachedStore(shared, 8, time.Minute)
	api := NewCachedStore(shared, 8, 20*time.Millisecond)

	run := sampleRun("t2", types.RunStatusCompleted, time.Now())
	require.NoError(t, other.Put(ctx, run))
	_, err := api.Get(ctx, "t2")
	require.NoError(t, err)

	// another process re-runs the same thread
	run.Status = types.RunStatusRunning
	require.NoError(t, other.Put(ctx, run))

	assert.Eventually(t, func() bool {
		got, err := api.Get(ctx, "t2")
		return err == nil && got.Status == types.RunStatusRunning
	}, time.Second, 10*time.Millisecond)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, "memory://")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, s)

	s, err = Open(ctx, "bolt://"+filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	assert.IsType(t, &CachedStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open(ctx, "redis://localhost")
	assert.Error(t, err)

	_, err = Open(ctx, "bolt://")
	assert.Error(t, err)
}
