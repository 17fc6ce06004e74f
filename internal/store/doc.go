// Package store provides the SQLite-backed run ledger for cocomerge.
//
// Each merge run appends one row to runs, whatever its outcome, plus one row
// per entry of its category remap table to category_remaps. The ledger is
// append-only; history is listed newest first by insertion order.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - foreign_keys=ON: remap rows reference their run
//
// Timestamps are stored as RFC 3339 UTC text.
package store
