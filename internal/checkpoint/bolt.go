package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"

	"github.com/jonathan/resume-reviewer/internal/types"
)

var runsBucket = []byte("runs")

// BoltStore persists runs as JSON documents in a bbolt file.
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt opens or creates the bbolt file at path
func OpenBolt(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for checkpoint file: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open checkpoint file: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(runsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Put serializes the run under its thread id
func (s *BoltStore) Put(_ context.Context, run *types.Run) error {
	if run == nil || run.ThreadID == "" {
		return fmt.Errorf("run with thread id is required")
	}
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).Put([]byte(run.ThreadID), data)
	})
}

// Get decodes the stored run
func (s *BoltStore) Get(_ context.Context, threadID string) (*types.Run, error) {
	var run *types.Run
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(runsBucket).Get([]byte(threadID))
		if v == nil {
			return nil
		}
		run = &types.Run{}
		return json.Unmarshal(v, run)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", threadID, err)
	}
	return run, nil
}

// List decodes every stored run, newest first
func (s *BoltStore) List(_ context.Context, filter Filter) ([]*types.Run, error) {
	var all []*types.Run
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(runsBucket).ForEach(func(k, v []byte) error {
			run := &types.Run{}
			if err := json.Unmarshal(v, run); err != nil {
				return fmt.Errorf("run %s: %w", k, err)
			}
			all = append(all, run)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return applyFilter(all, filter), nil
}

// Delete removes a run
func (s *BoltStore) Delete(_ context.Context, threadID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(runsBucket)
		if b.Get([]byte(threadID)) == nil {
			return ErrNotFound
		}
		return b.Delete([]byte(threadID))
	})
}

// Close closes the bbolt file
func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
