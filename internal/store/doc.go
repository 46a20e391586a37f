// Package store provides a SQLite-backed crossing log.
//
// The store is an append-only record of every crossing an engine
// dispatched, plus one row per engine instance. It is a dispatch sink:
// nothing is ever read back into an engine's tracked state.
//
// # Critical Patterns
//
// Crossing-Level Idempotency
//   - UNIQUE(instance_id, epoch, label) constraint
//   - id is ir.CrossingID(instance, epoch, label), so re-sending the
//     same crossing is a no-op
//
// Logical Time
//   - All ordering uses seq INTEGER (the engine's logical clock), never
//     timestamps
//
// Deterministic Query Results
//   - All queries include ORDER BY seq ASC, id ASC COLLATE BINARY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait up to 5s for locks
//   - foreign_keys=ON
package store
