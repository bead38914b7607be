package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/resume-reviewer/internal/types"
)

// -----------------------------------------------------------------------------
// Run Steps Methods
// -----------------------------------------------------------------------------

// saveSteps replaces the step rows of a run inside tx
func saveSteps(ctx context.Context, tx pgx.Tx, threadID string, steps []types.StepRecord) error {
	if _, err := tx.Exec(ctx, `DELETE FROM run_steps WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("failed to clear run steps: %w", err)
	}

	if len(steps) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for i, s := range steps {
		var response []byte
		if len(s.Response) > 0 {
			response = s.Response
		}
		batch.Queue(
			`INSERT INTO run_steps (thread_id, position, step, category, status, attempts,
			                        started_at, completed_at, duration_ms, response, raw_response, error_message)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			threadID, i, s.Name, s.Category, s.Status, s.Attempts,
			s.StartedAt, s.CompletedAt, s.DurationMs, response, s.RawResponse, s.Error,
		)
	}

	results := tx.SendBatch(ctx, batch)
	for _, s := range steps {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("failed to save run step %s: %w", s.Name, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("failed to save run steps: %w", err)
	}
	return nil
}

// listSteps loads the steps of the given runs, keyed by thread id, in position order
func (db *DB) listSteps(ctx context.Context, threadIDs []string) (map[string][]types.StepRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT thread_id, step, category, status, attempts, started_at, completed_at,
		        duration_ms, response, raw_response, error_message
		 FROM run_steps
		 WHERE thread_id = ANY($1)
		 ORDER BY thread_id, position`,
		threadIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]types.StepRecord, len(threadIDs))
	for rows.Next() {
		var threadID string
		var s types.StepRecord
		var response []byte
		if err := rows.Scan(&threadID, &s.Name, &s.Category, &s.Status, &s.Attempts,
			&s.StartedAt, &s.CompletedAt, &s.DurationMs, &response, &s.RawResponse, &s.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		if len(response) > 0 {
			s.Response = response
		}
		out[threadID] = append(out[threadID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	return out, nil
}
