// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	xglog "github.com/baldenna/dutree/internal/log"
	"github.com/baldenna/dutree/internal/persistence/sqlite"
	"github.com/baldenna/dutree/internal/scan"
	"github.com/baldenna/dutree/internal/telemetry"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store provides SQLite persistence for scan runs.
type Store struct {
	db     *sql.DB
	path   string
	tracer trace.Tracer
	newID  func() string
}

// Open opens (or creates) the store at dbPath and runs migrations.
func Open(dbPath string) (*Store, error) {
	db, err := sqlite.Open(dbPath, sqlite.DefaultConfig())
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:     db,
		path:   dbPath,
		tracer: telemetry.Tracer("dutree/snapshot"),
		newID:  uuid.NewString,
	}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		root TEXT NOT NULL,
		started TEXT NOT NULL,
		finished TEXT NOT NULL,
		total_size INTEGER NOT NULL,
		entries INTEGER NOT NULL,
		errors INTEGER NOT NULL DEFAULT 0,
		max_depth INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS entries (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		path TEXT NOT NULL,
		kind TEXT NOT NULL CHECK(kind IN ('dir', 'file', 'symlink', 'other')),
		size INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'ok' CHECK(status IN ('ok', 'unreadable', 'error')),
		PRIMARY KEY (run_id, path)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_root_started ON runs(root, started);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveRun stores res and the entries visible within maxDepth in a single
// transaction. The tree is stored as rendered, so directories-only scans store
// directories only.
func (s *Store) SaveRun(ctx context.Context, res *scan.Result, maxDepth int) (Run, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot.save")
	defer span.End()

	run := Run{
		ID:        s.newID(),
		Root:      res.RootPath,
		Started:   res.Stats.Started,
		Finished:  res.Stats.Finished,
		TotalSize: res.Root.Size,
		Entries:   res.Stats.Entries,
		Errors:    res.Stats.Errors,
		MaxDepth:  maxDepth,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.SetStatus(codes.Error, "begin tx")
		return Run{}, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (id, root, started, finished, total_size, entries, errors, max_depth)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Root,
		run.Started.UTC().Format(timeLayout),
		run.Finished.UTC().Format(timeLayout),
		run.TotalSize,
		run.Entries,
		run.Errors,
		run.MaxDepth,
	)
	if err != nil {
		span.SetStatus(codes.Error, "insert run")
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO entries (run_id, path, kind, size, depth, status)
	VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Run{}, fmt.Errorf("prepare entry insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	var rows int
	var insertErr error
	res.Root.Visit(func(n *scan.Node) bool {
		if insertErr != nil {
			return false
		}
		if n == res.Root {
			return true
		}
		if n.Depth-1 > maxDepth {
			return false
		}
		if _, err := stmt.ExecContext(ctx, run.ID, n.Path, string(n.Kind), n.Size, n.Depth, n.Status.String()); err != nil {
			insertErr = fmt.Errorf("insert entry %q: %w", n.Path, err)
			return false
		}
		rows++
		return true
	})
	if insertErr != nil {
		span.RecordError(insertErr)
		span.SetStatus(codes.Error, "insert entries")
		return Run{}, insertErr
	}

	if err := tx.Commit(); err != nil {
		span.SetStatus(codes.Error, "commit")
		return Run{}, fmt.Errorf("commit: %w", err)
	}

	span.SetAttributes(telemetry.StoreAttributes(run.ID, rows)...)
	logger := xglog.WithComponentFromContext(ctx, "snapshot")
	logger.Debug().
		Str(xglog.FieldEvent, "snapshot.saved").
		Str("snapshot_id", run.ID).
		Str(xglog.FieldStore, s.path).
		Int(xglog.FieldEntries, rows).
		Msg("scan run stored")

	return run, nil
}

// timeLayout has a fixed width so that stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = `id, root, started, finished, total_size, entries, errors, max_depth`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	var started, finished string
	if err := row.Scan(&r.ID, &r.Root, &started, &finished, &r.TotalSize, &r.Entries, &r.Errors, &r.MaxDepth); err != nil {
		return Run{}, err
	}
	r.Started, _ = time.Parse(timeLayout, started)
	r.Finished, _ = time.Parse(timeLayout, finished)
	return r, nil
}

// ListRuns returns runs newest first. An empty root lists every root; a limit
// <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, root string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	query := `
	SELECT ` + runColumns + `
	FROM runs
	WHERE (? = '' OR root = ?)
	ORDER BY started DESC, id
	LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, root, root, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// GetRun retrieves a single run. Unknown IDs return ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	r, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run: %w", err)
	}
	return r, nil
}

// Entries returns the stored entries of a run ordered by path.
func (s *Store) Entries(ctx context.Context, runID string) ([]Entry, error) {
	if _, err := s.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, path, kind, size, depth, status
	FROM entries
	WHERE run_id = ?
	ORDER BY path
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.RunID, &e.Path, &e.Kind, &e.Size, &e.Depth, &e.Status); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteRun removes a run and its entries.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Verify runs an integrity check on the database file.
func (s *Store) Verify(ctx context.Context, mode string) ([]string, error) {
	return sqlite.VerifyIntegrity(ctx, s.path, mode)
}
