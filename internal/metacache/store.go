package metacache

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"takeoutsync/internal/library"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever the cached representation changes. A
// mismatched database is dropped and rebuilt; it only holds derived data.
const schemaVersion = 1

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Key identifies one version of a media file.
type Key struct {
	Path  string
	Size  int64
	MTime time.Time
}

// KeyFor stats path and returns its cache key.
func KeyFor(path string) (Key, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Key{}, err
	}
	return Key{Path: path, Size: info.Size(), MTime: info.ModTime()}, nil
}

// Store is a SQLite-backed metadata cache. A nil *Store is a valid, always
// missing cache.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the cache database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists > 0 {
		var version int
		err = s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
		if err == nil && version == schemaVersion {
			return nil
		}
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("read schema version: %w", err)
		}
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS media_metadata; DROP TABLE IF EXISTS schema_version;"); err != nil {
			return fmt.Errorf("drop stale cache: %w", err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Get returns the cached metadata for key. A size or mtime mismatch is a miss.
func (s *Store) Get(ctx context.Context, key Key, kind library.MediaKind) (library.Metadata, bool, error) {
	if s == nil {
		return library.Metadata{}, false, nil
	}
	var (
		size    int64
		mtimeNS int64
		stored  string
		payload string
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT size, mtime_ns, kind, metadata_json FROM media_metadata WHERE path = ?", key.Path,
	).Scan(&size, &mtimeNS, &stored, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return library.Metadata{}, false, nil
	}
	if err != nil {
		return library.Metadata{}, false, fmt.Errorf("query cache: %w", err)
	}
	if size != key.Size || mtimeNS != key.MTime.UnixNano() || stored != string(kind) {
		return library.Metadata{}, false, nil
	}
	var md library.Metadata
	if err := json.Unmarshal([]byte(payload), &md); err != nil {
		return library.Metadata{}, false, nil
	}
	return md, true, nil
}

// Put stores metadata for key, replacing any previous entry for the path.
func (s *Store) Put(ctx context.Context, key Key, kind library.MediaKind, md library.Metadata) error {
	if s == nil {
		return nil
	}
	payload, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	return s.execWithRetry(ctx,
		`INSERT INTO media_metadata (path, size, mtime_ns, kind, metadata_json, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET size = excluded.size, mtime_ns = excluded.mtime_ns,
		   kind = excluded.kind, metadata_json = excluded.metadata_json, updated_at = excluded.updated_at`,
		key.Path, key.Size, key.MTime.UnixNano(), string(kind), string(payload), time.Now().UTC().Format(time.RFC3339),
	)
}

// Count returns the number of cached entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	if s == nil {
		return 0, nil
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM media_metadata").Scan(&n); err != nil {
		return 0, fmt.Errorf("count cache: %w", err)
	}
	return n, nil
}

// Clear removes every cached entry.
func (s *Store) Clear(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.execWithRetry(ctx, "DELETE FROM media_metadata")
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return fmt.Errorf("write cache: %w", lastErr)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}
