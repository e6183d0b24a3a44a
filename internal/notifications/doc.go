// Package notifications delivers detection events via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Repeated detections of the same map for the
// same streamer are sent once until the map changes.
package notifications
