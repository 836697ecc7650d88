package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ShayCichocki/finagent/pkg/models"
)

// ErrRunNotFound is returned by GetRun for unknown IDs.
var ErrRunNotFound = errors.New("run not found")

// Run is one recorded envelope.
type Run struct {
	ID        string
	Task      string
	Status    models.EnvelopeStatus
	Error     string
	Summary   string
	CreatedAt time.Time
	// Workers maps worker IDs to their final status. Empty unless the run
	// executed a plan.
	Workers map[string]models.WorkerStatus
	// Envelope is the JSON encoding of the returned envelope.
	Envelope json.RawMessage
}

// Record stores env under runID. Recording the same ID twice replaces the
// earlier entry.
func (s *Store) Record(ctx context.Context, runID string, env *models.Envelope) error {
	if env == nil {
		return fmt.Errorf("record run %s: nil envelope", runID)
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM run_workers WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO runs (id, task, status, error, summary, envelope, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, runID, env.Task, string(env.Status), env.Error, env.Summary, string(raw), formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	for id, st := range env.WorkerStatus {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO run_workers (run_id, worker_id, status) VALUES (?, ?, ?)",
			runID, id, string(st)); err != nil {
			return fmt.Errorf("record worker %s: %w", id, err)
		}
	}

	return tx.Commit()
}

// GetRun retrieves a run by ID, including its envelope.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.conn.QueryRowContext(ctx, `
		SELECT id, task, status, COALESCE(error, ''), COALESCE(summary, ''), envelope, created_at
		FROM runs WHERE id = ?
	`, id)

	var r Run
	var envelope, createdAt string
	err := row.Scan(&r.ID, &r.Task, &r.Status, &r.Error, &r.Summary, &envelope, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.Envelope = json.RawMessage(envelope)
	r.CreatedAt, _ = parseTime(createdAt)

	workers, err := s.workers(ctx, id)
	if err != nil {
		return nil, err
	}
	r.Workers = workers
	return &r, nil
}

// ListRuns returns up to limit runs, newest first, without envelopes.
// A non-positive limit returns every run. status filters when non-nil.
func (s *Store) ListRuns(ctx context.Context, limit int, status *models.EnvelopeStatus) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, task, status, COALESCE(error, ''), COALESCE(summary, ''), created_at FROM runs`
	var args []any
	if status != nil {
		query += " WHERE status = ?"
		args = append(args, string(*status))
	}
	query += " ORDER BY created_at DESC, id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Task, &r.Status, &r.Error, &r.Summary, &createdAt); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, _ = parseTime(createdAt)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// DeleteRun removes a run and its worker rows.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.conn.ExecContext(ctx, "DELETE FROM run_workers WHERE run_id = ?", id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// Decode unmarshals the stored envelope. Payloads come back as generic
// JSON values.
func (r *Run) Decode() (*models.Envelope, error) {
	var env models.Envelope
	if err := json.Unmarshal(r.Envelope, &env); err != nil {
		return nil, fmt.Errorf("decode envelope of run %s: %w", r.ID, err)
	}
	return &env, nil
}

// WorkerIDs returns the recorded worker IDs, sorted.
func (r *Run) WorkerIDs() []string {
	ids := make([]string, 0, len(r.Workers))
	for id := range r.Workers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Store) workers(ctx context.Context, runID string) (map[string]models.WorkerStatus, error) {
	rows, err := s.conn.QueryContext(ctx, "SELECT worker_id, status FROM run_workers WHERE run_id = ?", runID)
	if err != nil {
		return nil, fmt.Errorf("list run workers: %w", err)
	}
	defer rows.Close()

	out := make(map[string]models.WorkerStatus)
	for rows.Next() {
		var id string
		var st models.WorkerStatus
		if err := rows.Scan(&id, &st); err != nil {
			return nil, fmt.Errorf("scan run worker: %w", err)
		}
		out[id] = st
	}
	return out, rows.Err()
}
