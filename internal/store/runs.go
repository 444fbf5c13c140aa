package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/graphmirror/internal/ir"
)

// WriteRun appends a run to the run log and returns its seq.
func (s *Store) WriteRun(ctx context.Context, run ir.Run) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO reconcile_runs
		(id, entity, viewer, context, stream, added, updated, deleted, resolved, status, error, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Entity,
		run.Viewer,
		run.Context,
		run.Stream,
		run.Added,
		run.Updated,
		run.Deleted,
		run.Resolved,
		run.Status,
		run.Error,
		run.EngineVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write run: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("write run: last insert id: %w", err)
	}
	return seq, nil
}

// ReadRuns returns up to limit runs of viewer, most recent first. An empty
// viewer lists runs of every viewer; limit <= 0 means no limit.
func (s *Store) ReadRuns(ctx context.Context, viewer string, limit int) ([]ir.Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, entity, viewer, context, stream, added, updated, deleted, resolved, status, error, engine_version
		FROM reconcile_runs
		WHERE ? = '' OR viewer = ?
		ORDER BY seq DESC
		LIMIT ?
	`, viewer, viewer, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []ir.Run{}
	for rows.Next() {
		var run ir.Run
		if err := rows.Scan(
			&run.Seq, &run.ID, &run.Entity, &run.Viewer, &run.Context, &run.Stream,
			&run.Added, &run.Updated, &run.Deleted, &run.Resolved,
			&run.Status, &run.Error, &run.EngineVersion,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// SetViewerUID records the remote uid of a local viewer.
func (s *Store) SetViewerUID(ctx context.Context, viewer, uid string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO viewers (viewer, uid) VALUES (?, ?)
		ON CONFLICT(viewer) DO UPDATE SET uid = excluded.uid
	`, viewer, uid)
	if err != nil {
		return fmt.Errorf("set viewer uid: %w", err)
	}
	return nil
}

// ViewerUID returns the remote uid recorded for viewer.
func (s *Store) ViewerUID(ctx context.Context, viewer string) (string, error) {
	var uid string
	err := s.db.QueryRowContext(ctx, `SELECT uid FROM viewers WHERE viewer = ?`, viewer).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ir.NewNotFound("viewer", viewer, "viewer has not synced its own user record")
	}
	if err != nil {
		return "", fmt.Errorf("read viewer uid: %w", err)
	}
	return uid, nil
}
