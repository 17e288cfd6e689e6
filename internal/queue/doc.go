// Package queue persists pipeline runs in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, and stuck-run recovery. Runs capture the full
// per-slide record list as JSON so the daemon can serve finalized results
// after restart without any other storage.
//
// The database is treated as transient storage for in-flight jobs rather than
// a long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
//
// Treat this package as the single source of truth for run semantics; when
// you add new statuses or fields, update schema.sql and bump schemaVersion.
package queue
