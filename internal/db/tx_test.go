package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/db/dbtest"
)

func TestWithTxRollsBackOnError(t *testing.T) {
	dbh := dbtest.Open(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, dbh, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO profiles (id,email,created_at) VALUES ($1,$2,$3)`, "p1", "a@example.com", 1); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	var n int
	if err := dbh.QueryRow(`SELECT COUNT(1) FROM profiles`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("rolled back insert is visible: %d rows", n)
	}
}

func TestWithTxCommits(t *testing.T) {
	dbh := dbtest.Open(t)
	ctx := context.Background()

	err := db.WithTx(ctx, dbh, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO profiles (id,email,created_at) VALUES ($1,$2,$3)`, "p1", "a@example.com", 1)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}
	var email string
	if err := dbh.QueryRow(`SELECT email FROM profiles WHERE id=$1`, "p1").Scan(&email); err != nil {
		t.Fatal(err)
	}
	if email != "a@example.com" {
		t.Fatalf("email = %q", email)
	}
}

func TestParseDriver(t *testing.T) {
	cases := map[string]db.Driver{
		"pgx":        db.DriverPostgres,
		" Postgres ": db.DriverPostgres,
		"sqlite3":    db.DriverSQLite,
		"sqlite":     db.DriverSQLite,
	}
	for in, want := range cases {
		if got := db.ParseDriver(in); got != want {
			t.Errorf("ParseDriver(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := db.Open(context.Background(), db.Driver("oracle"), ""); err == nil {
		t.Fatal("expected error")
	}
}

func TestIsUniqueViolation(t *testing.T) {
	dbh := dbtest.Open(t)
	dbtest.Exec(t, dbh, `INSERT INTO profiles (id,email,created_at) VALUES ('p1','ada@example.com',1)`)

	_, err := dbh.Exec(`INSERT INTO profiles (id,email,created_at) VALUES ('p2','ADA@example.com',1)`)
	if err == nil || !db.IsUniqueViolation(err) {
		t.Fatalf("case-folded duplicate email: %v", err)
	}
	if db.IsUniqueViolation(errors.New("UNIQUE constraint failed")) {
		t.Fatal("plain error reported as a unique violation")
	}

	dbtest.Exec(t, dbh, `INSERT INTO certificate_templates (id,name,is_active,created_at) VALUES ('t1','A',1,1)`)
	_, err = dbh.Exec(`INSERT INTO certificate_templates (id,name,is_active,created_at) VALUES ('t2','B',1,1)`)
	if !db.IsUniqueViolation(err) {
		t.Fatalf("second active template: %v", err)
	}
	dbtest.Exec(t, dbh, `INSERT INTO certificate_templates (id,name,is_active,created_at) VALUES ('t3','C',0,1)`)
}
