// Package db provides PostgreSQL storage for analysis runs and their steps.
package db

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-reviewer/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned by DeleteRun for unknown thread ids
var ErrRunNotFound = errors.New("run not found")

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// Migrate creates the analysis tables if they do not exist
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// SaveRun upserts a run and replaces its steps in one transaction
func (db *DB) SaveRun(ctx context.Context, run *types.Run) error {
	row, err := toRunRow(run)
	if err != nil {
		return err
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO analysis_runs (thread_id, source_name, status, current_step, state,
		                            summary, violations, error_message, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (thread_id) DO UPDATE SET
		     source_name = $2, status = $3, current_step = $4, state = $5,
		     summary = $6, violations = $7, error_message = $8, updated_at = $10`,
		row.ThreadID, row.SourceName, row.Status, row.CurrentStep, row.State,
		row.Summary, row.Violations, row.Error, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ThreadID, err)
	}

	if err := saveSteps(ctx, tx, run.ThreadID, run.Steps); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit run %s: %w", run.ThreadID, err)
	}
	return nil
}

const runColumns = `thread_id, source_name, status, current_step, state, summary,
	violations, error_message, created_at, updated_at`

// GetRun retrieves a run with its steps, or nil when the thread is unknown
func (db *DB) GetRun(ctx context.Context, threadID string) (*types.Run, error) {
	var row runRow
	err := db.pool.QueryRow(ctx,
		`SELECT `+runColumns+` FROM analysis_runs WHERE thread_id = $1`,
		threadID,
	).Scan(row.scanTargets()...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run, err := row.toRun()
	if err != nil {
		return nil, err
	}

	steps, err := db.listSteps(ctx, []string{threadID})
	if err != nil {
		return nil, err
	}
	run.Steps = orEmptySteps(steps[threadID])
	return run, nil
}

// RunFilters holds optional filters for listing runs
type RunFilters struct {
	Status string
	Limit  int
	Offset int
}

// buildListQuery assembles the filtered run listing query
func buildListQuery(filters RunFilters) (string, []any) {
	if filters.Limit <= 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + runColumns + ` FROM analysis_runs WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)
	argNum++

	if filters.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, filters.Offset)
	}
	return query, args
}

// ListRuns retrieves runs newest first with optional filters
func (db *DB) ListRuns(ctx context.Context, filters RunFilters) ([]*types.Run, error) {
	query, args := buildListQuery(filters)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.Run
	var ids []string
	for rows.Next() {
		var row runRow
		if err := rows.Scan(row.scanTargets()...); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run, err := row.toRun()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
		ids = append(ids, run.ThreadID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	if len(runs) == 0 {
		return []*types.Run{}, nil
	}

	steps, err := db.listSteps(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, run := range runs {
		run.Steps = orEmptySteps(steps[run.ThreadID])
	}
	return runs, nil
}

// DeleteRun deletes a run and all its steps (via cascade)
func (db *DB) DeleteRun(ctx context.Context, threadID string) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM analysis_runs WHERE thread_id = $1`, threadID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, threadID)
	}
	return nil
}

func orEmptySteps(steps []types.StepRecord) []types.StepRecord {
	if steps == nil {
		return []types.StepRecord{}
	}
	return steps
}
