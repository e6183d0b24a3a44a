package sinks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"mapwatch/internal/services"
	"mapwatch/internal/store"
	"mapwatch/internal/textutil"
)

// BoardEntry is the latest detection recorded for one streamer.
type BoardEntry struct {
	Streamer   string    `json:"streamer"`
	MapLabel   string    `json:"map"`
	Score      int       `json:"score"`
	DetectedAt time.Time `json:"detected_at"`
	FramePath  string    `json:"frame_path"`
}

// RedisBoard keeps a per-streamer latest-map hash plus detection counters.
//
// Keys:
//
//	<prefix>:latest:<streamer>  hash of the newest detection
//	<prefix>:streamers          set of streamers on the board
//	<prefix>:maps               sorted set of identified map counts
//	<prefix>:detections_total   counter
//	<prefix>:unknown_total      counter
type RedisBoard struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisBoard wraps an existing client.
func NewRedisBoard(rdb *redis.Client, prefix string) *RedisBoard {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "mapwatch"
	}
	return &RedisBoard{rdb: rdb, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr, password string, db int, prefix string) (*RedisBoard, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, services.Wrap(services.ErrTransient, "sinks", "redis ping", addr, err)
	}
	return NewRedisBoard(rdb, prefix), nil
}

// Name identifies the sink in logs.
func (b *RedisBoard) Name() string { return "redis" }

func (b *RedisBoard) key(parts ...string) string {
	return b.prefix + ":" + strings.Join(parts, ":")
}

// Publish records d as the streamer's latest detection and bumps the counters.
func (b *RedisBoard) Publish(ctx context.Context, d store.Detection) error {
	streamer := textutil.SanitizeToken(d.Streamer)
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, b.key("latest", streamer), map[string]any{
			"streamer":    d.Streamer,
			"map":         d.MapLabel,
			"score":       d.Score,
			"detected_at": d.DetectedAt.UTC().Format(time.RFC3339Nano),
			"frame_path":  d.FramePath,
			"id":          d.ID,
		})
		pipe.SAdd(ctx, b.key("streamers"), streamer)
		pipe.Incr(ctx, b.key("detections_total"))
		if d.Known() {
			pipe.ZIncrBy(ctx, b.key("maps"), 1, d.MapLabel)
		} else {
			pipe.Incr(ctx, b.key("unknown_total"))
		}
		return nil
	})
	if err != nil {
		return services.Wrap(services.ErrTransient, "sinks", "redis publish", d.Streamer, err)
	}
	return nil
}

// Board returns the latest entry of every streamer on the board, sorted by streamer.
func (b *RedisBoard) Board(ctx context.Context) ([]BoardEntry, error) {
	members, err := b.rdb.SMembers(ctx, b.key("streamers")).Result()
	if err != nil {
		return nil, fmt.Errorf("read board members: %w", err)
	}
	entries := make([]BoardEntry, 0, len(members))
	for _, member := range members {
		fields, err := b.rdb.HGetAll(ctx, b.key("latest", member)).Result()
		if err != nil {
			return nil, fmt.Errorf("read board entry %s: %w", member, err)
		}
		if len(fields) == 0 {
			continue
		}
		entries = append(entries, decodeBoardEntry(fields))
	}
	sortBoard(entries)
	return entries, nil
}

// Counters returns the total and unknown detection counters.
func (b *RedisBoard) Counters(ctx context.Context) (total, unknown int64, err error) {
	total, err = b.counter(ctx, "detections_total")
	if err != nil {
		return 0, 0, err
	}
	unknown, err = b.counter(ctx, "unknown_total")
	if err != nil {
		return 0, 0, err
	}
	return total, unknown, nil
}

// MapCounts returns identified map counts, most frequent first.
func (b *RedisBoard) MapCounts(ctx context.Context) ([]store.Count, error) {
	zs, err := b.rdb.ZRevRangeWithScores(ctx, b.key("maps"), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read map counts: %w", err)
	}
	counts := make([]store.Count, 0, len(zs))
	for _, z := range zs {
		name, _ := z.Member.(string)
		counts = append(counts, store.Count{Name: name, Count: int(z.Score)})
	}
	return counts, nil
}

func (b *RedisBoard) counter(ctx context.Context, name string) (int64, error) {
	v, err := b.rdb.Get(ctx, b.key(name)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read counter %s: %w", name, err)
	}
	return v, nil
}

// Close closes the redis client.
func (b *RedisBoard) Close() error {
	return b.rdb.Close()
}

func decodeBoardEntry(fields map[string]string) BoardEntry {
	entry := BoardEntry{
		Streamer:  fields["streamer"],
		MapLabel:  fields["map"],
		FramePath: fields["frame_path"],
	}
	entry.Score, _ = strconv.Atoi(fields["score"])
	if t, err := time.Parse(time.RFC3339Nano, fields["detected_at"]); err == nil {
		entry.DetectedAt = t
	}
	return entry
}

func sortBoard(entries []BoardEntry) {
	slices.SortFunc(entries, func(a, b BoardEntry) int {
		return strings.Compare(strings.ToLower(a.Streamer), strings.ToLower(b.Streamer))
	})
}
