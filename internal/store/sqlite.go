package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// SQLiteStore persists detections in a local SQLite file.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("sqlite path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
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
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to recreate it)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *SQLiteStore) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, sqliteSchema); err != nil {
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

// Insert persists d and assigns d.ID.
func (s *SQLiteStore) Insert(ctx context.Context, d *Detection) error {
	if d == nil {
		return errors.New("detection is nil")
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d.DetectedAt = d.DetectedAt.UTC()
	var id int64
	err := retryOnBusy(ctx, func() error {
		return s.db.QueryRowContext(ctx,
			`INSERT INTO detections (streamer, detected_at, map_label, frame_path, score)
             VALUES (?, ?, ?, ?, ?) RETURNING id`,
			d.Streamer, formatTime(d.DetectedAt), d.MapLabel, d.FramePath, d.Score,
		).Scan(&id)
	})
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	d.ID = id
	return nil
}

// Get fetches a detection by identifier.
func (s *SQLiteStore) Get(ctx context.Context, id int64) (*Detection, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+detectionColumns+" FROM detections WHERE id = ?", id)
	d, err := scanSQLite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get detection: %w", err)
	}
	return d, nil
}

// List returns detections newest first.
func (s *SQLiteStore) List(ctx context.Context, filter Filter) ([]Detection, error) {
	query, args := listQuery(filter, questionMark)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	detections := make([]Detection, 0)
	for rows.Next() {
		d, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, *d)
	}
	return detections, rows.Err()
}

// Latest returns the newest identified detection, or the newest of any kind.
func (s *SQLiteStore) Latest(ctx context.Context) (*Detection, error) {
	known, args, fallback := latestQueries(questionMark)
	d, err := scanSQLite(s.db.QueryRowContext(ctx, known, args...))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("latest detection: %w", err)
	}
	d, err = scanSQLite(s.db.QueryRowContext(ctx, fallback))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest detection: %w", err)
	}
	return d, nil
}

// Stats aggregates detections matching filter.
func (s *SQLiteStore) Stats(ctx context.Context, filter Filter) (Stats, error) {
	q := buildStatsQueries(filter, questionMark)
	var stats Stats
	if err := s.db.QueryRowContext(ctx, q.totals, q.totalArgs...).Scan(
		&stats.TotalDetections, &stats.UniqueMaps, &stats.UniqueStreamers,
	); err != nil {
		return Stats{}, fmt.Errorf("count detections: %w", err)
	}
	var err error
	if stats.TopStreamers, err = s.counts(ctx, q.streamers, q.topArgs); err != nil {
		return Stats{}, fmt.Errorf("top streamers: %w", err)
	}
	if stats.MapFrequency, err = s.counts(ctx, q.maps, q.mapArgs); err != nil {
		return Stats{}, fmt.Errorf("map frequency: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStore) counts(ctx context.Context, query string, args []any) ([]Count, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make([]Count, 0)
	for rows.Next() {
		var c Count
		if err := rows.Scan(&c.Name, &c.Count); err != nil {
			return nil, err
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row sqlScanner) (*Detection, error) {
	var (
		d          Detection
		detectedAt string
	)
	if err := row.Scan(&d.ID, &d.Streamer, &detectedAt, &d.MapLabel, &d.FramePath, &d.Score); err != nil {
		return nil, err
	}
	t, err := parseTime(detectedAt)
	if err != nil {
		return nil, err
	}
	d.DetectedAt = t
	return &d, nil
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

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
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
	return lastErr
}
