// Package store persists map detections.
//
// SQLite (modernc.org/sqlite) is the default backend; PostgreSQL through
// pgxpool is selected with storage.driver = "postgres". Both backends create
// their schema on first open and refuse to start against a database whose
// schema_version does not match. There are no migrations: a schema change
// means deleting the database.
package store
