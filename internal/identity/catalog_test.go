package identity

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/fixture"
	"github.com/matheus3301/mockchat/internal/store"
)

var epoch = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testCatalog(t *testing.T, db *store.DB, cfg Config) *Catalog {
	t.Helper()
	c, err := New(db, fixture.Users(epoch), clock.NewFake(epoch), nil, cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestFindByCredentials(t *testing.T) {
	c := testCatalog(t, testDB(t), DefaultConfig())

	tests := []struct {
		name     string
		email    string
		password string
		wantID   string
		wantErr  error
	}{
		{"known user", "sarah@example.com", "secret", "2", nil},
		{"case and spaces", "  Sarah@Example.com ", "secret", "2", nil},
		{"short password", "sarah@example.com", "12345", "", chat.ErrInvalidCredentials},
		{"unknown email", "nobody@example.com", "secret", "", chat.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := c.FindByCredentials(tt.email, tt.password)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if u.ID != tt.wantID {
				t.Errorf("user id = %q, want %q", u.ID, tt.wantID)
			}
		})
	}
}

func TestCreate(t *testing.T) {
	c := testCatalog(t, testDB(t), DefaultConfig())

	u, err := c.Create("Ada Lovelace", "ada@example.com", "analytical")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if u.ID == "" || u.Status != chat.Online || u.Avatar == "" || !u.LastSeen.Equal(epoch) {
		t.Errorf("created user = %+v", u)
	}
	if got, ok := c.Lookup(u.ID); !ok || got.Email != "ada@example.com" {
		t.Errorf("Lookup(%s) = %+v, %v", u.ID, got, ok)
	}
	if _, err := c.FindByCredentials("ada@example.com", "whatever"); err != nil {
		t.Errorf("mock policy should accept any long password: %v", err)
	}

	tests := []struct {
		name    string
		uname   string
		email   string
		pw      string
		wantErr error
	}{
		{"duplicate seeded", "John", "john@example.com", "secret", chat.ErrDuplicateIdentity},
		{"duplicate registered", "Ada", "ADA@example.com", "secret", chat.ErrDuplicateIdentity},
		{"duplicate before password length", "John", "john@example.com", "ab", chat.ErrDuplicateIdentity},
		{"display name form", "Ann", "Ann <ann@example.com>", "secret", chat.ErrValidation},
		{"short password", "Bob", "bob@example.com", "12345", chat.ErrValidation},
		{"bad email", "Bob", "bob", "secret", chat.ErrValidation},
		{"empty name", " ", "bob@example.com", "secret", chat.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Create(tt.uname, tt.email, tt.pw); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if n := len(c.List()); n != 6 {
		t.Errorf("List() has %d users, want 6", n)
	}
}

func TestCreateEntropy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinEntropyBits = 60
	c := testCatalog(t, testDB(t), cfg)

	if _, err := c.Create("Weak", "weak@example.com", "aaaaaa"); !errors.Is(err, chat.ErrValidation) {
		t.Errorf("weak password error = %v, want ErrValidation", err)
	}
	if _, err := c.Create("Strong", "strong@example.com", "correct-Horse-battery-staple-42"); err != nil {
		t.Errorf("strong password error = %v", err)
	}
}

func TestRegisteredAccountsReload(t *testing.T) {
	db := testDB(t)
	cfg := DefaultConfig()
	cfg.VerifyPasswords = true

	first := testCatalog(t, db, cfg)
	u, err := first.Create("Ada", "ada@example.com", "analytical")
	if err != nil {
		t.Fatal(err)
	}

	second := testCatalog(t, db, cfg)
	got, err := second.Get(u.ID)
	if err != nil {
		t.Fatalf("Get() after reload error = %v", err)
	}
	if got.Email != "ada@example.com" {
		t.Errorf("reloaded user = %+v", got)
	}
	if _, err := second.FindByCredentials("ada@example.com", "wrong-password"); !errors.Is(err, chat.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := second.FindByCredentials("ada@example.com", "analytical"); err != nil {
		t.Errorf("right password error = %v", err)
	}
	if _, err := second.FindByCredentials("john@example.com", "anything"); err != nil {
		t.Errorf("seeded users keep the mock policy: %v", err)
	}
}

func TestCurrentUser(t *testing.T) {
	c := testCatalog(t, testDB(t), DefaultConfig())

	if _, ok, err := c.LoadCurrent(); err != nil || ok {
		t.Fatalf("LoadCurrent() on empty store = %v, %v", ok, err)
	}

	john, _ := c.Get("1")
	if err := c.PersistCurrent(john); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.LoadCurrent()
	if err != nil || !ok {
		t.Fatalf("LoadCurrent() = %v, %v", ok, err)
	}
	if got.ID != "1" || got.Name != "John Doe" || got.Email != "john@example.com" || !got.LastSeen.Equal(john.LastSeen) {
		t.Errorf("LoadCurrent() = %+v, want %+v", got, john)
	}

	later := epoch.Add(time.Hour)
	if _, err := c.SetStatus("1", chat.Away, later); err != nil {
		t.Fatal(err)
	}
	got, _, _ = c.LoadCurrent()
	if got.Status != chat.Away || !got.LastSeen.Equal(later) {
		t.Errorf("persisted user not synced: %+v", got)
	}

	if _, err := c.SetStatus("2", chat.Offline, later); err != nil {
		t.Fatal(err)
	}
	got, _, _ = c.LoadCurrent()
	if got.ID != "1" {
		t.Errorf("status change of another user replaced the current user: %+v", got)
	}

	if err := c.ClearCurrent(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.LoadCurrent(); ok {
		t.Error("current user still present after ClearCurrent")
	}
}

func TestSetStatusUnknownUser(t *testing.T) {
	c := testCatalog(t, testDB(t), DefaultConfig())
	if _, err := c.SetStatus("nobody", chat.Online, epoch); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("SetStatus() error = %v, want ErrNotFound", err)
	}
}
