package store

import (
	"strconv"
	"strings"

	"mapwatch/internal/mapdetect"
)

const detectionColumns = "id, streamer, detected_at, map_label, frame_path, score"

// placeholder renders the n-th (1-based) bind parameter for a dialect.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return "$" + strconv.Itoa(n) }

// whereClause builds the WHERE clause for filter. extra conditions are ANDed
// after the filter conditions and may reference the next bind positions.
func whereClause(filter Filter, ph placeholder, extra ...string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if s := strings.TrimSpace(filter.Streamer); s != "" {
		args = append(args, s)
		conds = append(conds, "streamer = "+ph(len(args)))
	}
	if m := strings.TrimSpace(filter.MapLabel); m != "" {
		args = append(args, m)
		conds = append(conds, "map_label = "+ph(len(args)))
	}
	conds = append(conds, extra...)
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func listQuery(filter Filter, ph placeholder) (string, []any) {
	where, args := whereClause(filter, ph)
	query := "SELECT " + detectionColumns + " FROM detections" + where + " ORDER BY detected_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT " + ph(len(args))
	}
	return query, args
}

// latestQueries returns the identified-first query and its fallback.
func latestQueries(ph placeholder) (known string, knownArgs []any, fallback string) {
	known = "SELECT " + detectionColumns + " FROM detections WHERE map_label <> " + ph(1) +
		" ORDER BY detected_at DESC, id DESC LIMIT 1"
	fallback = "SELECT " + detectionColumns + " FROM detections ORDER BY detected_at DESC, id DESC LIMIT 1"
	return known, []any{mapdetect.UnknownMap}, fallback
}

type statsQueries struct {
	totals    string
	totalArgs []any
	streamers string
	topArgs   []any
	maps      string
	mapArgs   []any
}

func buildStatsQueries(filter Filter, ph placeholder) statsQueries {
	filter.Limit = 0
	var q statsQueries

	where, args := whereClause(filter, ph)
	q.totals = "SELECT COUNT(*), COUNT(DISTINCT map_label), COUNT(DISTINCT streamer) FROM detections" + where
	q.totalArgs = args

	where, args = whereClause(filter, ph)
	args = append(args, TopStreamerLimit)
	q.streamers = "SELECT streamer, COUNT(*) AS n FROM detections" + where +
		" GROUP BY streamer ORDER BY n DESC, streamer ASC LIMIT " + ph(len(args))
	q.topArgs = args

	_, args = whereClause(filter, ph)
	next := len(args) + 1
	where, args = whereClause(filter, ph, "map_label <> "+ph(next))
	args = append(args, mapdetect.UnknownMap)
	q.maps = "SELECT map_label, COUNT(*) AS n FROM detections" + where +
		" GROUP BY map_label ORDER BY n DESC, map_label ASC"
	q.mapArgs = args
	return q
}
