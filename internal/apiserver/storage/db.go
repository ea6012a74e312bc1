// Package storage opens database handles for the API server stores.
// SQLite is the default; Postgres and MySQL are selectable via config for
// deployments that outgrow a single file. The DB wrapper carries the
// dialect knowledge the stores need so their SQL stays written once, with
// ? placeholders.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect identifies the SQL flavor behind a DB handle.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
	MySQL    Dialect = "mysql"
)

// DB wraps a database/sql handle together with its dialect. Statements are
// written with ? placeholders; Exec, Query and QueryRow rewrite them to the
// driver's native style before running.
type DB struct {
	sq      *sql.DB
	dialect Dialect
}

// Open opens a database handle for the given driver and DSN.
// Supported drivers: "sqlite" (default), "postgres"/"postgresql", "mysql".
func Open(driver, dsn string) (*DB, error) {
	var (
		driverName string
		dialect    Dialect
	)
	switch driver {
	case "", "sqlite":
		driverName, dialect = "sqlite", SQLite
	case "postgres", "postgresql":
		driverName, dialect = "pgx", Postgres // pgx/v5/stdlib registers as "pgx"
	case "mysql":
		driverName, dialect = "mysql", MySQL
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	sq, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}

	if dialect == SQLite {
		if _, err := sq.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = sq.Close()
			return nil, fmt.Errorf("set WAL: %w", err)
		}
		if _, err := sq.Exec("PRAGMA busy_timeout=5000"); err != nil {
			_ = sq.Close()
			return nil, fmt.Errorf("set busy_timeout: %w", err)
		}
	}

	return &DB{sq: sq, dialect: dialect}, nil
}

// Dialect reports the SQL flavor this handle speaks.
func (db *DB) Dialect() Dialect { return db.dialect }

// Close closes the underlying handle.
func (db *DB) Close() error { return db.sq.Close() }

// Exec runs a statement written with ? placeholders.
func (db *DB) Exec(query string, args ...any) (sql.Result, error) {
	return db.sq.Exec(db.rebind(query), args...)
}

// Query runs a query written with ? placeholders.
func (db *DB) Query(query string, args ...any) (*sql.Rows, error) {
	return db.sq.Query(db.rebind(query), args...)
}

// QueryRow runs a single-row query written with ? placeholders.
func (db *DB) QueryRow(query string, args ...any) *sql.Row {
	return db.sq.QueryRow(db.rebind(query), args...)
}

// InsertID runs an INSERT on a table with a generated integer key named id
// and returns the new key. The pgx stdlib driver has no LastInsertId, so
// the statement is extended with RETURNING on Postgres.
func (db *DB) InsertID(query string, args ...any) (int64, error) {
	if db.dialect == Postgres {
		var id int64
		if err := db.sq.QueryRow(db.rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}

	res, err := db.sq.Exec(query, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// rebind rewrites ? placeholders to $N for Postgres. SQLite and MySQL take
// ? natively.
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres || !strings.ContainsRune(query, '?') {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}

// AutoIncrementPK returns the column definition for an auto-generated
// 64-bit integer primary key.
func (db *DB) AutoIncrementPK() string {
	switch db.dialect {
	case Postgres:
		return "BIGSERIAL PRIMARY KEY"
	case MySQL:
		return "BIGINT PRIMARY KEY AUTO_INCREMENT"
	default:
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	}
}

// Key returns the column type for string columns that are primary keys,
// unique, or indexed. MySQL cannot index a bare TEXT column, so it gets a
// VARCHAR sized under the utf8mb4 index limit.
func (db *DB) Key() string {
	if db.dialect == MySQL {
		return "VARCHAR(191)"
	}
	return "TEXT"
}

// CreateIndex creates an index when it does not already exist. MySQL lacks
// IF NOT EXISTS for indexes; the duplicate-index error on re-run is
// tolerated there.
func (db *DB) CreateIndex(name, table, columns string) {
	if db.dialect == MySQL {
		_, _ = db.sq.Exec(fmt.Sprintf("CREATE INDEX %s ON %s (%s)", name, table, columns))
		return
	}
	_, _ = db.sq.Exec(fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", name, table, columns))
}

// IsUniqueViolation reports whether err is a duplicate-key error from any
// of the supported drivers.
func (db *DB) IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
