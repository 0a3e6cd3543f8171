// Package store provides database access for work-tracking data.
//
// Reports read from one of two backends:
//   - SQLite (github.com/mattn/go-sqlite3): created on demand with an embedded
//     schema; used for local datasets, fixtures and tests
//   - PostgreSQL (github.com/jackc/pgx/v5 stdlib driver): an existing tracker
//     database, opened read-only in practice
//
// Both are exposed as *Store, whose Query method satisfies the report
// engine's Querier interface and whose Dialect tells the SQL compiler which
// placeholders to write.
//
// # Datasets
//
// Dataset is the YAML form of a small tracker: projects, constants, users,
// issues with their components, versions, labels and epic links, and
// worklogs. Seed writes one in a single transaction. Inserts are idempotent.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// Timestamps are always written in UTC so that SQLite's text comparison of
// stored instants agrees with their chronological order.
package store
