package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema_postgres.sql
var postgresSchema string

const (
	postgresMaxConns = 4
	postgresMinConns = 1
)

// PostgresStore persists detections in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to dsn and prepares the schema.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("postgres database url required")
	}
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = postgresMaxConns
	poolCfg.MinConns = postgresMinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	if s != nil && s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	var exists bool
	if err := s.pool.QueryRow(ctx, "SELECT to_regclass('schema_version') IS NOT NULL").Scan(&exists); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if !exists {
		return s.createSchema(ctx)
	}
	var version int
	if err := s.pool.QueryRow(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (s *PostgresStore) createSchema(ctx context.Context) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, stmt := range strings.Split(postgresSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_version (version) VALUES ($1)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

// Insert persists d and assigns d.ID.
func (s *PostgresStore) Insert(ctx context.Context, d *Detection) error {
	if d == nil {
		return errors.New("detection is nil")
	}
	if err := d.Validate(); err != nil {
		return err
	}
	d.DetectedAt = d.DetectedAt.UTC()
	err := s.pool.QueryRow(ctx,
		`INSERT INTO detections (streamer, detected_at, map_label, frame_path, score)
         VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.Streamer, d.DetectedAt, d.MapLabel, d.FramePath, d.Score,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert detection: %w", err)
	}
	return nil
}

// Get fetches a detection by identifier.
func (s *PostgresStore) Get(ctx context.Context, id int64) (*Detection, error) {
	d, err := scanPostgres(s.pool.QueryRow(ctx, "SELECT "+detectionColumns+" FROM detections WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get detection: %w", err)
	}
	return d, nil
}

// List returns detections newest first.
func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]Detection, error) {
	query, args := listQuery(filter, dollar)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list detections: %w", err)
	}
	defer rows.Close()

	detections := make([]Detection, 0)
	for rows.Next() {
		d, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		detections = append(detections, *d)
	}
	return detections, rows.Err()
}

// Latest returns the newest identified detection, or the newest of any kind.
func (s *PostgresStore) Latest(ctx context.Context) (*Detection, error) {
	known, args, fallback := latestQueries(dollar)
	d, err := scanPostgres(s.pool.QueryRow(ctx, known, args...))
	if err == nil {
		return d, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("latest detection: %w", err)
	}
	d, err = scanPostgres(s.pool.QueryRow(ctx, fallback))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest detection: %w", err)
	}
	return d, nil
}

// Stats aggregates detections matching filter.
func (s *PostgresStore) Stats(ctx context.Context, filter Filter) (Stats, error) {
	q := buildStatsQueries(filter, dollar)
	var (
		stats                  Stats
		total, maps, streamers int64
	)
	if err := s.pool.QueryRow(ctx, q.totals, q.totalArgs...).Scan(&total, &maps, &streamers); err != nil {
		return Stats{}, fmt.Errorf("count detections: %w", err)
	}
	stats.TotalDetections, stats.UniqueMaps, stats.UniqueStreamers = int(total), int(maps), int(streamers)

	var err error
	if stats.TopStreamers, err = s.counts(ctx, q.streamers, q.topArgs); err != nil {
		return Stats{}, fmt.Errorf("top streamers: %w", err)
	}
	if stats.MapFrequency, err = s.counts(ctx, q.maps, q.mapArgs); err != nil {
		return Stats{}, fmt.Errorf("map frequency: %w", err)
	}
	return stats, nil
}

func (s *PostgresStore) counts(ctx context.Context, query string, args []any) ([]Count, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make([]Count, 0)
	for rows.Next() {
		var (
			name string
			n    int64
		)
		if err := rows.Scan(&name, &n); err != nil {
			return nil, err
		}
		counts = append(counts, Count{Name: name, Count: int(n)})
	}
	return counts, rows.Err()
}

func scanPostgres(row pgx.Row) (*Detection, error) {
	var d Detection
	if err := row.Scan(&d.ID, &d.Streamer, &d.DetectedAt, &d.MapLabel, &d.FramePath, &d.Score); err != nil {
		return nil, err
	}
	d.DetectedAt = d.DetectedAt.UTC()
	return &d, nil
}
