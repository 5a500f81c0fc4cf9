// Package store handles SQLite persistence of preferences and conversion history.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/verte-zerg/dsc2asc/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Preference keys.
const (
	PrefFormat   = "dsc2asc_pref_format"
	PrefEncoding = "dsc2asc_pref_encoding"
)

// Store wraps SQLite access for preferences and history.
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
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS conversions (
			id INTEGER PRIMARY KEY,
			converted_at TEXT NOT NULL,
			descriptor_path TEXT NOT NULL,
			fingerprint TEXT NOT NULL,
			format TEXT NOT NULL,
			eligible INTEGER NOT NULL,
			convertible INTEGER NOT NULL,
			converted INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversions_converted_at ON conversions(converted_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Preference returns a stored preference value; ok is false when it was never saved.
func (s *Store) Preference(ctx context.Context, key string) (value string, ok bool, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetPreference stores a preference value, replacing any previous one.
func (s *Store) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// InsertConversion records one conversion run.
func (s *Store) InsertConversion(ctx context.Context, entry model.HistoryEntry) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO conversions (converted_at, descriptor_path, fingerprint, format, eligible, convertible, converted)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ConvertedAt.UTC().Format(time.RFC3339Nano),
		entry.DescriptorPath,
		entry.Fingerprint,
		entry.Format,
		entry.Eligible,
		entry.Convertible,
		entry.Converted,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListConversions returns recorded runs in insertion order, limited to the last n when n > 0.
func (s *Store) ListConversions(ctx context.Context, last int) ([]model.HistoryEntry, error) {
	query := `SELECT id, converted_at, descriptor_path, fingerprint, format, eligible, convertible, converted
		FROM conversions ORDER BY id DESC`
	args := []any{}
	if last > 0 {
		query += ` LIMIT ?`
		args = append(args, last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.HistoryEntry
	for rows.Next() {
		var e model.HistoryEntry
		var convertedAt string
		if err := rows.Scan(&e.ID, &convertedAt, &e.DescriptorPath, &e.Fingerprint, &e.Format, &e.Eligible, &e.Convertible, &e.Converted); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, convertedAt)
		if err != nil {
			return nil, err
		}
		e.ConvertedAt = parsed
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

// Fingerprint hashes descriptor content for history entries.
func Fingerprint(content []byte) string {
	return fmt.Sprintf("%016x", xxh3.Hash(content))
}
