package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/worklens/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking in PRAGMA user_version:
// 0 - Empty database
// 1 - Work-tracking tables and lookup indexes
const currentSchemaVersion = 1

// SchemaVersionError reports a SQLite database written by a newer worklens
// whose schema this build does not know.
type SchemaVersionError struct {
	Found     int
	Supported int
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("database schema version %d is newer than supported version %d", e.Found, e.Supported)
}

// Store is a read-mostly handle on a work-tracking database.
// SQLite databases are created and migrated by Open; PostgreSQL databases
// are expected to carry the schema already (see ApplySchema for fixtures).
type Store struct {
	db      *sql.DB
	dialect querysql.Dialect
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically. A database stamped
// with a newer schema version is refused with *SchemaVersionError.
//
// The pragmas travel in the DSN so every pooled connection gets them:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Reports run list, count and aggregate queries side by side.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)

	version, err := schemaVersion(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if version > currentSchemaVersion {
		db.Close()
		return nil, &SchemaVersionError{Found: version, Supported: currentSchemaVersion}
	}

	s := &Store{db: db, dialect: querysql.SQLite}
	if err := s.ApplySchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	if version < currentSchemaVersion {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set user_version: %w", err)
		}
	}

	return s, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=on"
}

// OpenPostgres connects to a PostgreSQL database through the pgx driver.
// The schema is not touched; production databases own theirs.
func OpenPostgres(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &Store{db: db, dialect: querysql.Postgres}, nil
}

// Close closes the database connection.
// Should be called when the store is no longer needed.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Dialect reports which SQL flavour queries against this store must use.
func (s *Store) Dialect() querysql.Dialect {
	return s.dialect
}

// Query executes a query and returns the resulting rows.
// This is a convenience wrapper around db.QueryContext for use by the report engine.
// Callers are responsible for closing the returned rows.
func (s *Store) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// ApplySchema creates the work-tracking tables if they don't exist.
// This function is idempotent.
func (s *Store) ApplySchema(ctx context.Context) error {
	for _, stmt := range schemaStatements() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	return nil
}

// schemaStatements splits the embedded schema into single statements.
// The pgx driver runs parameterless Exec calls one statement at a time.
func schemaStatements() []string {
	var stmts []string
	for _, chunk := range strings.Split(schemaSQL, ";\n") {
		var body []string
		for _, line := range strings.Split(chunk, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), "--") {
				continue
			}
			body = append(body, line)
		}
		stmt := strings.TrimSpace(strings.Join(body, "\n"))
		if stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	return stmts
}

func schemaVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// rebind rewrites "?" placeholders for the store's dialect.
// Statements passed here never contain a literal question mark.
func (s *Store) rebind(query string) string {
	if s.dialect != querysql.Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
