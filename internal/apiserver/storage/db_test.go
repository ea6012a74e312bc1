package storage

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

func openSQLite(t *testing.T) *DB {
	t.Helper()
	db, err := Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open("oracle", "whatever"); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	pg := &DB{dialect: Postgres}
	got := pg.rebind(`INSERT INTO t (a, b, c) VALUES (?, ?, ?)`)
	want := `INSERT INTO t (a, b, c) VALUES ($1, $2, $3)`
	if got != want {
		t.Fatalf("rebind = %q, want %q", got, want)
	}

	if got := pg.rebind(`SELECT 1`); got != `SELECT 1` {
		t.Fatalf("placeholder-free statement changed: %q", got)
	}

	for _, d := range []Dialect{SQLite, MySQL} {
		db := &DB{dialect: d}
		q := `UPDATE t SET a = ? WHERE b = ?`
		if got := db.rebind(q); got != q {
			t.Fatalf("%s rebind changed statement: %q", d, got)
		}
	}
}

func TestDialectFragments(t *testing.T) {
	cases := []struct {
		dialect Dialect
		pk      string
		key     string
	}{
		{SQLite, "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"},
		{Postgres, "BIGSERIAL PRIMARY KEY", "TEXT"},
		{MySQL, "BIGINT PRIMARY KEY AUTO_INCREMENT", "VARCHAR(191)"},
	}

	for _, tc := range cases {
		db := &DB{dialect: tc.dialect}
		if got := db.AutoIncrementPK(); got != tc.pk {
			t.Errorf("%s AutoIncrementPK = %q, want %q", tc.dialect, got, tc.pk)
		}
		if got := db.Key(); got != tc.key {
			t.Errorf("%s Key = %q, want %q", tc.dialect, got, tc.key)
		}
	}
}

func TestInsertIDGeneratesSequentialKeys(t *testing.T) {
	db := openSQLite(t)

	if _, err := db.Exec(`CREATE TABLE items (id ` + db.AutoIncrementPK() + `, name TEXT NOT NULL)`); err != nil {
		t.Fatal(err)
	}

	first, err := db.InsertID(`INSERT INTO items (name) VALUES (?)`, "a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := db.InsertID(`INSERT INTO items (name) VALUES (?)`, "b")
	if err != nil {
		t.Fatal(err)
	}
	if second <= first {
		t.Fatalf("ids not increasing: %d then %d", first, second)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	db := openSQLite(t)

	if _, err := db.Exec(`CREATE TABLE accounts (email ` + db.Key() + ` PRIMARY KEY)`); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Exec(`INSERT INTO accounts (email) VALUES (?)`, "a@example.com"); err != nil {
		t.Fatal(err)
	}

	_, dup := db.Exec(`INSERT INTO accounts (email) VALUES (?)`, "a@example.com")
	if dup == nil {
		t.Fatal("expected duplicate-key error")
	}
	if !db.IsUniqueViolation(dup) {
		t.Fatalf("sqlite duplicate not detected: %v", dup)
	}
	if !db.IsUniqueViolation(fmt.Errorf("create account: %w", dup)) {
		t.Fatal("wrapped duplicate not detected")
	}

	pgDup := &pgconn.PgError{Code: "23505"}
	if !db.IsUniqueViolation(pgDup) {
		t.Fatal("postgres duplicate not detected")
	}
	myDup := &mysql.MySQLError{Number: 1062}
	if !db.IsUniqueViolation(myDup) {
		t.Fatal("mysql duplicate not detected")
	}

	if db.IsUniqueViolation(nil) {
		t.Fatal("nil is not a violation")
	}
	if db.IsUniqueViolation(fmt.Errorf("no such table: accounts")) {
		t.Fatal("unrelated error misclassified")
	}
	if db.IsUniqueViolation(&pgconn.PgError{Code: "23503"}) {
		t.Fatal("foreign-key violation misclassified")
	}
}
