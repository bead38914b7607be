package checkpoint

import (
	"context"
	"errors"

	"github.com/jonathan/resume-reviewer/internal/db"
	"github.com/jonathan/resume-reviewer/internal/types"
)

// runDB is the part of *db.DB the Postgres store needs
type runDB interface {
	SaveRun(ctx context.Context, run *types.Run) error
	GetRun(ctx context.Context, threadID string) (*types.Run, error)
	ListRuns(ctx context.Context, filters db.RunFilters) ([]*types.Run, error)
	DeleteRun(ctx context.Context, threadID string) error
	Close()
}

// PostgresStore persists runs in the analysis_runs and run_steps tables.
type PostgresStore struct {
	db runDB
}

// NewPostgresStore wraps an open database
func NewPostgresStore(database runDB) *PostgresStore {
	return &PostgresStore{db: database}
}

// Put upserts the run and its steps
func (s *PostgresStore) Put(ctx context.Context, run *types.Run) error {
	return s.db.SaveRun(ctx, run)
}

// Get loads a run, or nil when unknown
func (s *PostgresStore) Get(ctx context.Context, threadID string) (*types.Run, error) {
	return s.db.GetRun(ctx, threadID)
}

// List loads runs newest first
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]*types.Run, error) {
	return s.db.ListRuns(ctx, db.RunFilters{
		Status: filter.Status,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// Delete removes a run and its steps
func (s *PostgresStore) Delete(ctx context.Context, threadID string) error {
	err := s.db.DeleteRun(ctx, threadID)
	if errors.Is(err, db.ErrRunNotFound) {
		return ErrNotFound
	}
	return err
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
