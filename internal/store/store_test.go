package store

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 2 {
		t.Errorf("version = %d, want 2 (init + accounts)", result.Version)
	}
	if result.Dirty {
		t.Error("schema is dirty")
	}
}

func TestMigrateFreshReportsChanged(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if !result.Changed {
		t.Error("first Migrate() should report Changed=true")
	}
}

func TestKV(t *testing.T) {
	db := testDB(t)

	if _, err := db.GetKV("currentUser"); !errors.Is(err, ErrNoValue) {
		t.Fatalf("GetKV(missing) error = %v, want ErrNoValue", err)
	}
	if err := db.SetKV("currentUser", `{"id":"1"}`); err != nil {
		t.Fatal(err)
	}
	if err := db.SetKV("currentUser", `{"id":"2"}`); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetKV("currentUser")
	if err != nil {
		t.Fatal(err)
	}
	if got != `{"id":"2"}` {
		t.Errorf("GetKV() = %q, want the last value", got)
	}

	if err := db.DeleteKV("currentUser"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteKV("currentUser"); err != nil {
		t.Errorf("deleting twice error = %v", err)
	}
	if _, err := db.GetKV("currentUser"); !errors.Is(err, ErrNoValue) {
		t.Errorf("GetKV(deleted) error = %v, want ErrNoValue", err)
	}
}

func TestAccounts(t *testing.T) {
	db := testDB(t)
	now := time.Unix(1700000000, 0)

	a := Account{ID: "u-1", Name: "Ada", Email: "ada@example.com", PasswordHash: []byte("hash"), CreatedAt: now}
	if err := db.InsertAccount(a); err != nil {
		t.Fatal(err)
	}
	dup := a
	dup.ID = "u-2"
	dup.Email = "ADA@example.com"
	if err := db.InsertAccount(dup); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate email error = %v, want ErrEmailTaken", err)
	}

	got, err := db.AccountByEmail("ada@example.com")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != "u-1" || string(got.PasswordHash) != "hash" || !got.CreatedAt.Equal(now) {
		t.Errorf("AccountByEmail() = %+v", got)
	}
	if _, err := db.AccountByEmail("nobody@example.com"); !errors.Is(err, ErrNoValue) {
		t.Errorf("missing account error = %v, want ErrNoValue", err)
	}

	b := Account{ID: "u-3", Name: "Bob", Email: "bob@example.com", PasswordHash: []byte("h"), CreatedAt: now.Add(time.Second)}
	if err := db.InsertAccount(b); err != nil {
		t.Fatal(err)
	}
	list, err := db.ListAccounts()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != "u-1" || list[1].ID != "u-3" {
		t.Errorf("ListAccounts() = %+v", list)
	}
}
