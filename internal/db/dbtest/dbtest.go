// Package dbtest opens throwaway SQLite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/db"
)

var seq atomic.Int64

// Open returns an in-memory database with the full schema applied. Each
// call gets its own database; it is closed when the test ends.
func Open(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, seq.Add(1))
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

// Exec runs seed statements, failing the test on the first error.
func Exec(t *testing.T, dbh *sql.DB, stmts ...string) {
	t.Helper()
	for _, s := range stmts {
		if _, err := dbh.Exec(s); err != nil {
			t.Fatalf("seed %q: %v", s, err)
		}
	}
}
