// Package querysql compiles queryir queries to parameterized SQL.
//
// Two dialects are supported: SQLite (the embedded store and tests) and
// PostgreSQL (through pgx). They differ only in placeholder style and in how
// an OFFSET without LIMIT is written; every report query is otherwise plain
// SQL-92 with EXISTS sub-selects, derived tables and GROUP BY.
package querysql
