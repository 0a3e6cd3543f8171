package querysql

import (
	"fmt"
	"strings"
)

// Dialect identifies the SQL flavour a compiler targets.
type Dialect int

const (
	// SQLite uses "?" placeholders and needs LIMIT before OFFSET.
	SQLite Dialect = iota
	// Postgres uses "$n" placeholders.
	Postgres
)

func (d Dialect) String() string {
	switch d {
	case SQLite:
		return "sqlite"
	case Postgres:
		return "postgres"
	default:
		return fmt.Sprintf("Dialect(%d)", int(d))
	}
}

// ParseDialect maps a configured driver name to a dialect.
// Accepts "sqlite", "sqlite3", "postgres", "postgresql" and "pgx".
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "":
		return SQLite, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	default:
		return 0, fmt.Errorf("unknown SQL dialect %q", name)
	}
}
