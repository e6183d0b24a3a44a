// Package sinks fans a detection out to the primary store and to the
// optional secondary destinations: a Redis latest-map board, a NATS subject
// per streamer and a Meilisearch index.
//
// Only the primary store decides whether a detection was persisted.
// Secondary publish failures are logged and swallowed.
package sinks
