package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// ErrEmailTaken is returned by InsertAccount when the email is already stored.
var ErrEmailTaken = errors.New("email taken")

// Account is a registered user together with its password hash.
type Account struct {
	ID           string
	Name         string
	Email        string
	Avatar       string
	PasswordHash []byte
	CreatedAt    time.Time
}

// InsertAccount stores a newly registered account. Emails compare case-insensitively.
func (db *DB) InsertAccount(a Account) error {
	_, err := db.Exec(`
		INSERT INTO accounts (id, name, email, avatar, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.ID, a.Name, a.Email, a.Avatar, a.PasswordHash, a.CreatedAt.Unix())
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("insert account %s: %w", a.Email, ErrEmailTaken)
		}
		return fmt.Errorf("insert account %s: %w", a.Email, err)
	}
	return nil
}

// ListAccounts returns every registered account ordered by creation.
func (db *DB) ListAccounts() ([]Account, error) {
	rows, err := db.Query(`
		SELECT id, name, email, avatar, password_hash, created_at
		FROM accounts ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Account
	for rows.Next() {
		var a Account
		var created int64
		if err := rows.Scan(&a.ID, &a.Name, &a.Email, &a.Avatar, &a.PasswordHash, &created); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		a.CreatedAt = time.Unix(created, 0)
		out = append(out, a)
	}
	return out, rows.Err()
}

// AccountByEmail looks up one account. It returns ErrNoValue when none matches.
func (db *DB) AccountByEmail(email string) (Account, error) {
	var a Account
	var created int64
	err := db.QueryRow(`
		SELECT id, name, email, avatar, password_hash, created_at
		FROM accounts WHERE email = ?
	`, strings.TrimSpace(email)).Scan(&a.ID, &a.Name, &a.Email, &a.Avatar, &a.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNoValue
		}
		return Account{}, fmt.Errorf("account %s: %w", email, err)
	}
	a.CreatedAt = time.Unix(created, 0)
	return a, nil
}
