// Package store provides data persistence implementations.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"

	apperrors "insights-dashboard/internal/errors"
)

// SQLiteConfig configures a SQLiteStore.
type SQLiteConfig struct {
	Path string
	// PollInterval re-runs open queries periodically. Zero disables polling;
	// file-system notifications and in-process writes still wake listeners.
	PollInterval time.Duration
	// WatchFile enables fsnotify-based change detection so that writes by
	// other processes reach open listeners.
	WatchFile bool
}

// SQLiteStore implements InsightStore and Writer on a local SQLite file.
// It serves the development environment, where no managed store is
// available.
type SQLiteStore struct {
	db     *sql.DB
	cfg    SQLiteConfig
	logger zerolog.Logger

	mu        sync.Mutex
	listeners map[*sqliteIterator]struct{}

	watcher   *fsnotify.Watcher
	done      chan struct{}
	closeOnce sync.Once
}

// NewSQLiteStore creates a new SQLite-based document store.
func NewSQLiteStore(cfg SQLiteConfig, logger zerolog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool for concurrent access
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &SQLiteStore{
		db:        db,
		cfg:       cfg,
		logger:    logger.With().Str("component", "sqlite_store").Logger(),
		listeners: make(map[*sqliteIterator]struct{}),
		done:      make(chan struct{}),
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: failed to initialize schema: %w", apperrors.ErrStoreUnavailable, err)
	}

	if cfg.WatchFile {
		if err := s.startWatcher(); err != nil {
			s.logger.Warn().Err(err).Msg("File watcher unavailable, relying on polling")
		}
	}
	if cfg.PollInterval > 0 {
		go s.pollLoop(cfg.PollInterval)
	}

	return s, nil
}

// initSchema creates all required tables and indexes.
func (s *SQLiteStore) initSchema() error {
	schema := `
	-- Documents keyed by collection and id; data is the JSON document body
	CREATE TABLE IF NOT EXISTS documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close stops all listeners and closes the database connection.
func (s *SQLiteStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		listeners := make([]*sqliteIterator, 0, len(s.listeners))
		for it := range s.listeners {
			listeners = append(listeners, it)
		}
		s.mu.Unlock()
		for _, it := range listeners {
			it.Stop()
		}

		if s.watcher != nil {
			s.watcher.Close()
		}
		err = s.db.Close()
	})
	return err
}

// ============================================================================
// Writer Methods
// ============================================================================

// Add stores data under a generated id.
func (s *SQLiteStore) Add(ctx context.Context, collection string, data map[string]interface{}) (string, error) {
	id := uuid.NewString()
	if err := s.Put(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

// Put inserts or replaces a document.
func (s *SQLiteStore) Put(ctx context.Context, collection, id string, data map[string]interface{}) error {
	if id == "" {
		return apperrors.NewValidationError("id", id, "document id must not be empty")
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, collection, id, string(raw), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	s.wakeAll()
	return nil
}

// Delete removes a document.
func (s *SQLiteStore) Delete(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE collection = ? AND id = ?`, collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	s.wakeAll()
	return nil
}

// ============================================================================
// Query Methods
// ============================================================================

// Snapshots implements InsightStore.
func (s *SQLiteStore) Snapshots(ctx context.Context, q Query) (SnapshotIterator, error) {
	select {
	case <-s.done:
		return nil, apperrors.ErrStoreUnavailable
	default:
	}

	// Fail fast when the table cannot be read at all.
	if err := s.db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	it := &sqliteIterator{
		store:  s,
		query:  q,
		ctx:    ctx,
		cancel: cancel,
		wake:   make(chan struct{}, 1),
	}

	s.mu.Lock()
	s.listeners[it] = struct{}{}
	s.mu.Unlock()

	return it, nil
}

// queryDocuments runs q once.
func (s *SQLiteStore) queryDocuments(ctx context.Context, q Query) ([]Document, error) {
	direction := "ASC"
	if q.Descending {
		direction = "DESC"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = -1
	}

	query := `SELECT id, data FROM documents WHERE collection = ?`
	args := []interface{}{q.Collection}
	if q.OrderBy != "" {
		// Documents without the order field are excluded, matching a
		// Firestore orderBy query.
		query += ` AND json_extract(data, ?) IS NOT NULL ORDER BY json_extract(data, ?) ` + direction + `, id ASC`
		path := "$." + q.OrderBy
		args = append(args, path, path)
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		var data map[string]interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("failed to decode document %s: %w", id, err)
		}
		docs = append(docs, Document{ID: id, Data: data})
	}

	return docs, rows.Err()
}

// ============================================================================
// Change Detection
// ============================================================================

func (s *SQLiteStore) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: SQLite replaces and truncates the -wal and
	// -journal files, which drops watches placed on the files themselves.
	dir := filepath.Dir(s.cfg.Path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	s.watcher = watcher

	base := filepath.Base(s.cfg.Path)
	related := map[string]bool{
		base:              true,
		base + "-wal":     true,
		base + "-journal": true,
	}

	go func() {
		for {
			select {
			case <-s.done:
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !related[filepath.Base(event.Name)] {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					s.wakeAll()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn().Err(err).Msg("File watcher error")
			}
		}
	}()

	return nil
}

func (s *SQLiteStore) pollLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.wakeAll()
		}
	}
}

func (s *SQLiteStore) wakeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for it := range s.listeners {
		select {
		case it.wake <- struct{}{}:
		default:
		}
	}
}

func (s *SQLiteStore) remove(it *sqliteIterator) {
	s.mu.Lock()
	delete(s.listeners, it)
	s.mu.Unlock()
}

type sqliteIterator struct {
	store  *SQLiteStore
	query  Query
	ctx    context.Context
	cancel context.CancelFunc
	wake   chan struct{}

	started bool
	failed  bool
	lastSig uint64
	once    sync.Once
}

// Next implements SnapshotIterator. After the initial snapshot it only
// returns when the result set changed or a failed query succeeds again.
func (it *sqliteIterator) Next() (*Snapshot, error) {
	for {
		if it.started {
			select {
			case <-it.ctx.Done():
				return nil, apperrors.ErrSubscriptionClosed
			case <-it.wake:
			}
		}
		if it.ctx.Err() != nil {
			return nil, apperrors.ErrSubscriptionClosed
		}

		docs, err := it.store.queryDocuments(it.ctx, it.query)
		if err != nil {
			if it.ctx.Err() != nil {
				return nil, apperrors.ErrSubscriptionClosed
			}
			it.started = true
			it.failed = true
			return nil, err
		}

		sig := signature(docs)
		if it.started && !it.failed && sig == it.lastSig {
			continue
		}
		it.started = true
		it.failed = false
		it.lastSig = sig

		return &Snapshot{Documents: docs, ReadTime: time.Now()}, nil
	}
}

// Stop implements SnapshotIterator.
func (it *sqliteIterator) Stop() {
	it.once.Do(func() {
		it.cancel()
		it.store.remove(it)
	})
}

// signature hashes a result set so unchanged re-queries are not re-emitted.
func signature(docs []Document) uint64 {
	h := fnv.New64a()
	for _, d := range docs {
		h.Write([]byte(d.ID))
		h.Write([]byte{0})
		raw, _ := json.Marshal(d.Data)
		h.Write(raw)
		h.Write([]byte{0})
	}
	return h.Sum64()
}
