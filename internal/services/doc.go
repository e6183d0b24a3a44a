// Package services defines shared utilities consumed by the poller and the
// external integrations under it (Twitch, capture, OCR).
//
// Key responsibilities:
//   - Context helpers that stamp streamer names, cycle ids, stage names and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper, so a failure can be
//     classified (transient, external tool, validation) without string matching.
//
// Collaborators wrap their failures with a marker; the poller uses EventType
// and Retryable to decide how loudly to log and whether the next cycle can help.
package services
