package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/pelada/internal/domain/model"
	"github.com/okian/pelada/pkg/logger"
	"github.com/okian/pelada/pkg/metrics"
)

const defaultBusyTimeout = 5 * time.Second

// SQLiteStore persists overrides in a local SQLite database.
type SQLiteStore struct {
	db          *sql.DB
	mu          sync.Mutex
	closed      bool
	logger      logger.Logger
	busyTimeout time.Duration
	now         func() time.Time
}

// OpenSQLiteStore opens (creating if needed) the database at path.
func OpenSQLiteStore(ctx context.Context, path string, opts ...SQLiteOption) (*SQLiteStore, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	s := &SQLiteStore{
		logger:      logger.Get().Named("override_store"),
		busyTimeout: defaultBusyTimeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(wal)&_pragma=busy_timeout(%d)", path, s.busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS status_overrides (
			match_id   TEXT PRIMARY KEY,
			status     TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
	} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema: %w", err)
		}
	}

	var count int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM status_overrides`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read row count: %w", err)
	}
	s.db = db

	s.logger.Info(ctx, "status override store opened",
		logger.String("path", path),
		logger.Int("rows", int(count)),
	)
	return s, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id model.MatchID) (model.Status, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrStoreClosed
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT status FROM status_overrides WHERE match_id = ?`, string(id)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		metrics.RecordErrorByComponent("override_store", "read")
		return "", false, fmt.Errorf("read override %s: %w", id, err)
	}
	st, err := model.ParseStatus(raw)
	if err != nil {
		// A row we cannot interpret is treated as absent.
		s.logger.Warn(ctx, "ignoring unreadable status override",
			logger.String("match", string(id)),
			logger.String("status", raw),
		)
		return "", false, nil
	}
	return st, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, id model.MatchID, status model.Status) error {
	if _, err := model.ParseStatus(string(status)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO status_overrides (match_id, status, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(match_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`,
		string(id), string(status), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		metrics.RecordErrorByComponent("override_store", "write")
		return fmt.Errorf("write override %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id model.MatchID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM status_overrides WHERE match_id = ?`, string(id)); err != nil {
		metrics.RecordErrorByComponent("override_store", "delete")
		return fmt.Errorf("delete override %s: %w", id, err)
	}
	return nil
}

// Close releases the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
