// Package sqlite provides a SQLite implementation of storage.LexiconStore
// on the CGO-free modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/scrypster/coref/internal/storage"
)

// Schema creates the gazetteer table. Every statement is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS lexicon_entries (
    term TEXT NOT NULL,
    match_kind TEXT NOT NULL DEFAULT 'exact',
    gender TEXT NOT NULL DEFAULT 'unknown',
    multiplicity TEXT NOT NULL DEFAULT 'unknown',
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (term, match_kind)
);

CREATE INDEX IF NOT EXISTS idx_lexicon_entries_term ON lexicon_entries(term);
`

// LexiconStore implements storage.LexiconStore using SQLite.
type LexiconStore struct {
	db *sql.DB
}

var _ storage.LexiconStore = (*LexiconStore)(nil)

// NewLexiconStore opens (creating if needed) the database at dsn with WAL
// self-healing. If the initial open fails due to stale WAL files left by a
// crashed process, it verifies no other process holds them and retries once
// after removing the stale -shm/-wal files.
func NewLexiconStore(dsn string) (*LexiconStore, error) {
	store, err := openLexiconStore(dsn)
	if err == nil {
		return store, nil
	}

	if !isRecoverableWALError(err) {
		return nil, err
	}

	dbPath := dbPathFromDSN(dsn)
	if dbPath == "" || !isWALStale(dbPath) {
		return nil, err
	}

	removeStaleWAL(dbPath)

	store, retryErr := openLexiconStore(dsn)
	if retryErr != nil {
		return nil, fmt.Errorf("sqlite: failed after WAL recovery: %w (original: %v)", retryErr, err)
	}

	slog.Warn("sqlite: recovered from stale WAL files", "path", dbPath)
	return store, nil
}

func openLexiconStore(dsn string) (*LexiconStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// One connection serialises writers and keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to create schema: %w", err)
	}

	return &LexiconStore{db: db}, nil
}

// Lookup returns the best entry for text.
func (s *LexiconStore) Lookup(ctx context.Context, text string) (*storage.Entry, error) {
	candidates := storage.Candidates(text)
	if len(candidates) == 0 {
		return nil, storage.ErrNotFound
	}

	args := make([]any, len(candidates))
	for i, c := range candidates {
		args[i] = c
	}
	query := `SELECT term, match_kind, gender, multiplicity FROM lexicon_entries WHERE term IN (?` +
		strings.Repeat(", ?", len(candidates)-1) + `)`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query lexicon: %w", err)
	}
	defer rows.Close()

	var entries []storage.Entry
	for rows.Next() {
		var e storage.Entry
		if err := rows.Scan(&e.Term, &e.Match, &e.Gender, &e.Multiplicity); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan lexicon entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: failed to read lexicon: %w", err)
	}

	best, ok := storage.Best(text, entries)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return best, nil
}

// Import upserts entries in a single transaction.
func (s *LexiconStore) Import(ctx context.Context, entries []storage.Entry) (int, error) {
	prepared, err := storage.PrepareEntries(entries)
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to begin import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO lexicon_entries (term, match_kind, gender, multiplicity)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(term, match_kind) DO UPDATE SET
			gender = excluded.gender,
			multiplicity = excluded.multiplicity,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to prepare import: %w", err)
	}
	defer stmt.Close()

	for _, e := range prepared {
		if _, err := stmt.ExecContext(ctx, e.Term, string(e.Match), string(e.Gender), string(e.Multiplicity)); err != nil {
			return 0, fmt.Errorf("sqlite: failed to import %q: %w", e.Term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: failed to commit import: %w", err)
	}
	return len(prepared), nil
}

// Count returns the number of stored entries.
func (s *LexiconStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lexicon_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: failed to count lexicon: %w", err)
	}
	return n, nil
}

// Close flushes the WAL into the main database file and releases resources.
// The TRUNCATE checkpoint removes the -shm and -wal files so that another
// process can open the database without encountering stale WAL state.
func (s *LexiconStore) Close() error {
	if s.db == nil {
		return nil
	}

	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Warn("sqlite: WAL checkpoint on close failed", "error", err)
	}

	return s.db.Close()
}

// dbPathFromDSN extracts the file path from a DSN, or "" for in-memory databases.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}

	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" || path == "" {
			return ""
		}
		return path
	}

	return dsn
}

// isRecoverableWALError returns true if the error matches patterns caused by
// stale WAL files left behind after a crash (SIGKILL, OOM, etc.).
func isRecoverableWALError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") ||
		strings.Contains(msg, "database is locked")
}

// isWALStale checks whether -shm/-wal files exist for the given database path
// AND no other process currently holds them open (via lsof).
// Returns false if lsof is unavailable.
func isWALStale(dbPath string) bool {
	shmPath := dbPath + "-shm"
	walPath := dbPath + "-wal"

	if !fileExists(shmPath) && !fileExists(walPath) {
		return false
	}

	lsofPath, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}

	output, err := exec.Command(lsofPath, "-t", dbPath, shmPath, walPath).Output()
	if err != nil {
		// lsof exits 1 when no files are open.
		return true
	}
	return strings.TrimSpace(string(output)) == ""
}

func removeStaleWAL(dbPath string) {
	for _, suffix := range []string{"-shm", "-wal"} {
		path := dbPath + suffix
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("sqlite: failed to remove stale WAL file", "path", path, "error", err)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
