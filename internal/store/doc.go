// Package store provides the local tracking store: run records, metric
// history, artifact listings and console logs imported from snapshots.
//
// SQLite is the default backend. A postgres:// or postgresql:// DSN selects
// PostgreSQL through pgx. Both share one portable schema.
//
// # Patterns
//
// Deterministic reads: every listing has a total ORDER BY
// (created_at DESC, id ASC for runs; idx for history; name for artifacts).
//
// Canonical storage: summary, config and history values are stored as
// canonical JSON so integer literals survive a round trip.
//
// Empty results are empty slices, never nil.
//
// # SQLite configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
