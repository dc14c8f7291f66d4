// Package store handles SQLite persistence of recorded input traces.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/verte-zerg/keyviz/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrTraceNotFound is returned when a trace id does not exist.
var ErrTraceNotFound = errors.New("trace not found")

// Store wraps SQLite access for trace data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS traces (
			id INTEGER PRIMARY KEY,
			uid TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			source TEXT NOT NULL,
			started_at TEXT NOT NULL,
			origin_ms REAL NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS trace_actions (
			trace_id INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			kind TEXT NOT NULL,
			key_label TEXT NOT NULL,
			code TEXT NOT NULL,
			is_repeat INTEGER NOT NULL,
			ts REAL NOT NULL,
			PRIMARY KEY (trace_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_traces_started_at ON traces(started_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// CreateTrace registers a new trace and returns its id. Each trace also
// gets a random UID that stays stable when databases are merged.
func (s *Store) CreateTrace(ctx context.Context, name, source string, startedAt time.Time, originMs float64) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO traces (uid, name, source, started_at, origin_ms) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), name, source, startedAt.Format(time.RFC3339Nano), originMs)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AppendActions stores actions for a trace in one transaction.
func (s *Store) AppendActions(ctx context.Context, traceID int64, actions []model.Action) (err error) {
	if len(actions) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO trace_actions (trace_id, seq, kind, key_label, code, is_repeat, ts)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := stmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	for _, a := range actions {
		if _, err = stmt.ExecContext(ctx, traceID, a.Seq, string(a.Kind), a.Key, a.Code, boolToInt(a.Repeat), a.TS); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListTraces returns all traces, oldest first, with their action counts.
func (s *Store) ListTraces(ctx context.Context) ([]model.TraceInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.uid, t.name, t.source, t.started_at, t.origin_ms, COUNT(a.seq)
		 FROM traces t
		 LEFT JOIN trace_actions a ON a.trace_id = t.id
		 GROUP BY t.id
		 ORDER BY t.started_at ASC, t.id ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var traces []model.TraceInfo
	for rows.Next() {
		info, err := scanTrace(rows)
		if err != nil {
			return nil, err
		}
		traces = append(traces, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return traces, nil
}

// FindTrace resolves a trace UID to its id.
func (s *Store) FindTrace(ctx context.Context, uid string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `SELECT id FROM traces WHERE uid = ?`, uid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("trace %s: %w", uid, ErrTraceNotFound)
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// LoadTrace returns a trace and its actions in sequence order.
func (s *Store) LoadTrace(ctx context.Context, id int64) (model.TraceInfo, []model.Action, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT t.id, t.uid, t.name, t.source, t.started_at, t.origin_ms,
			(SELECT COUNT(*) FROM trace_actions a WHERE a.trace_id = t.id)
		 FROM traces t WHERE t.id = ?`, id)
	info, err := scanTrace(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TraceInfo{}, nil, fmt.Errorf("trace %d: %w", id, ErrTraceNotFound)
	}
	if err != nil {
		return model.TraceInfo{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, kind, key_label, code, is_repeat, ts FROM trace_actions
		 WHERE trace_id = ? ORDER BY seq ASC`, id)
	if err != nil {
		return model.TraceInfo{}, nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	actions := make([]model.Action, 0, info.Actions)
	for rows.Next() {
		var a model.Action
		var kind string
		var repeat int
		if err := rows.Scan(&a.Seq, &kind, &a.Key, &a.Code, &repeat, &a.TS); err != nil {
			return model.TraceInfo{}, nil, err
		}
		a.Kind = model.ActionKind(kind)
		a.Repeat = repeat != 0
		actions = append(actions, a)
	}
	if err := rows.Err(); err != nil {
		return model.TraceInfo{}, nil, err
	}
	return info, actions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTrace(row scanner) (model.TraceInfo, error) {
	var info model.TraceInfo
	var startedAt string
	if err := row.Scan(&info.ID, &info.UID, &info.Name, &info.Source, &startedAt, &info.OriginMs, &info.Actions); err != nil {
		return model.TraceInfo{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return model.TraceInfo{}, err
	}
	info.StartedAt = parsed
	return info, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
