// Package store provides SQLite-backed storage for mirrored records.
//
// The store holds four tables:
//   - records: mirrored entity rows, unique per (entity, viewer, pkey, owner_ref)
//   - struct_records: shared struct values keyed by content hash
//   - reconcile_runs: append-only run log
//   - viewers: the remote uid of each local viewer
//
// # Identity
//
// A record's storage id is assigned on Create and kept for its lifetime.
// Updates go through Save, which overwrites a row by id and never changes
// it. Relation fields of other records store these ids, so they stay valid
// across reconciles.
//
// # Lookups
//
// Filter, Get and Latest take a queryir predicate over the record columns
// (viewer, pkey, owner_ref, id). Predicates compile to parameterized SQL
// through querysql and every read is ordered by id.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Writes commit one statement at a time. No transaction spans a reconcile.
package store
