package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mapwatch/internal/config"
	"mapwatch/internal/mapdetect"
	"mapwatch/internal/services"
)

// schemaVersion is shared by both backends. Bump it when either schema changes.
const schemaVersion = 1

// TopStreamerLimit bounds Stats.TopStreamers.
const TopStreamerLimit = 5

// ErrSchemaMismatch indicates the database was created by a different schema version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Detection is one persisted map detection.
type Detection struct {
	ID         int64     `json:"id"`
	Streamer   string    `json:"streamer"`
	DetectedAt time.Time `json:"detected_at"`
	MapLabel   string    `json:"map"`
	FramePath  string    `json:"frame_path"`
	Score      int       `json:"score"`
}

// Known reports whether the detection identified a catalog map.
func (d Detection) Known() bool {
	return d.MapLabel != "" && d.MapLabel != mapdetect.UnknownMap
}

// Validate checks the fields every backend requires.
func (d Detection) Validate() error {
	if strings.TrimSpace(d.Streamer) == "" {
		return services.Wrap(services.ErrValidation, "store", "validate", "streamer is required", nil)
	}
	if strings.TrimSpace(d.MapLabel) == "" {
		return services.Wrap(services.ErrValidation, "store", "validate", "map label is required", nil)
	}
	if d.DetectedAt.IsZero() {
		return services.Wrap(services.ErrValidation, "store", "validate", "detected_at is required", nil)
	}
	if d.Score < 0 {
		return services.Wrap(services.ErrValidation, "store", "validate", fmt.Sprintf("negative score %d", d.Score), nil)
	}
	return nil
}

// Filter narrows List and Stats. Zero values match everything; Limit <= 0 is unlimited.
type Filter struct {
	Streamer string
	MapLabel string
	Limit    int
}

// Count is a label with its number of detections.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Stats summarizes the detections matching a filter.
type Stats struct {
	TotalDetections int     `json:"total_detections"`
	UniqueMaps      int     `json:"unique_maps"`
	UniqueStreamers int     `json:"unique_streamers"`
	TopStreamers    []Count `json:"top_streamers"`
	MapFrequency    []Count `json:"map_frequency"`
}

// Store is the persistence contract shared by the SQLite and PostgreSQL backends.
type Store interface {
	// Insert persists d and assigns its ID.
	Insert(ctx context.Context, d *Detection) error
	// Get returns the detection with id, or nil when absent.
	Get(ctx context.Context, id int64) (*Detection, error)
	// List returns detections newest first.
	List(ctx context.Context, filter Filter) ([]Detection, error)
	// Latest returns the newest identified detection, falling back to the
	// newest detection of any kind. Nil when the store is empty.
	Latest(ctx context.Context) (*Detection, error)
	Stats(ctx context.Context, filter Filter) (Stats, error)
	Close() error
}

// Open connects to the backend selected by cfg.Storage.Driver.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "config is nil", nil)
	}
	switch cfg.Storage.Driver {
	case config.StorageSQLite, "":
		return OpenSQLite(ctx, cfg.Storage.SQLitePath)
	case config.StoragePostgres:
		return OpenPostgres(ctx, cfg.Storage.DatabaseURL)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "store", "open",
			fmt.Sprintf("unsupported storage driver %q", cfg.Storage.Driver), nil)
	}
}

// timeLayout is fixed-width so text timestamps sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse detected_at %q: %w", value, err)
	}
	return t.UTC(), nil
}
