// Package dashboard serves the read-only JSON API over stored detections:
// the detection log with streamer and map filters, aggregate stats, the
// latest identified map, captured frames, the objective catalog, the Redis
// latest-map board when enabled, and a Prometheus text endpoint.
package dashboard
