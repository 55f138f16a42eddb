// Package identity keeps the catalog of known users and the persisted record
// of who is signed in.
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/fixture"
	"github.com/matheus3301/mockchat/internal/store"
	passwordvalidator "github.com/wagslane/go-password-validator"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// CurrentUserKey is the key-value entry holding the signed-in user.
const CurrentUserKey = "currentUser"

// Backend persists registered accounts and the current-user record.
// *store.DB implements it.
type Backend interface {
	GetKV(key string) (string, error)
	SetKV(key, value string) error
	DeleteKV(key string) error
	InsertAccount(a store.Account) error
	ListAccounts() ([]store.Account, error)
}

// Config is the credential policy.
type Config struct {
	MinPasswordLength int
	// MinEntropyBits enables a strength check on registration when > 0.
	MinEntropyBits float64
	// VerifyPasswords checks bcrypt hashes on login for registered accounts.
	// Seeded users always follow the length-only policy.
	VerifyPasswords bool
}

// DefaultConfig accepts any password of 6 characters or more.
func DefaultConfig() Config {
	return Config{MinPasswordLength: 6}
}

// Catalog is the identity store.
type Catalog struct {
	backend Backend
	clock   clock.Clock
	logger  *zap.Logger
	cfg     Config

	mu      sync.RWMutex
	users   []chat.User
	byEmail map[string]int
	byID    map[string]int
	hashes  map[string][]byte
}

// New builds a catalog from the seed users and every account stored in backend.
func New(backend Backend, seed []chat.User, c clock.Clock, logger *zap.Logger, cfg Config) (*Catalog, error) {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = DefaultConfig().MinPasswordLength
	}
	cat := &Catalog{
		backend: backend,
		clock:   c,
		logger:  logger,
		cfg:     cfg,
		byEmail: make(map[string]int),
		byID:    make(map[string]int),
		hashes:  make(map[string][]byte),
	}
	for _, u := range seed {
		if err := cat.add(u, nil); err != nil {
			return nil, err
		}
	}

	accounts, err := backend.ListAccounts()
	if err != nil {
		return nil, fmt.Errorf("load accounts: %w", err)
	}
	for _, a := range accounts {
		u := chat.User{ID: a.ID, Name: a.Name, Email: a.Email, Avatar: a.Avatar, Status: chat.Offline, LastSeen: a.CreatedAt}
		if err := cat.add(u, a.PasswordHash); err != nil {
			logger.Warn("skipping stored account", zap.String("user_id", a.ID), zap.Error(err))
		}
	}
	logger.Debug("identity catalog loaded", zap.Int("users", len(cat.users)), zap.Int("registered", len(accounts)))
	return cat, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (c *Catalog) taken(email string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.byEmail[normalizeEmail(email)]
	return ok
}

func (c *Catalog) add(u chat.User, hash []byte) error {
	key := normalizeEmail(u.Email)
	if _, ok := c.byEmail[key]; ok {
		return fmt.Errorf("user %s: %w", u.Email, chat.ErrDuplicateIdentity)
	}
	if _, ok := c.byID[u.ID]; ok {
		return &chat.ValidationError{Field: "id", Reason: "duplicate user " + u.ID}
	}
	c.byEmail[key] = len(c.users)
	c.byID[u.ID] = len(c.users)
	c.users = append(c.users, u)
	if hash != nil {
		c.hashes[u.ID] = hash
	}
	return nil
}

// FindByCredentials resolves a sign-in attempt. The email must belong to a
// known user and the password must meet the minimum length.
func (c *Catalog) FindByCredentials(email, password string) (chat.User, error) {
	c.mu.RLock()
	i, ok := c.byEmail[normalizeEmail(email)]
	var u chat.User
	var hash []byte
	if ok {
		u = c.users[i]
		hash = c.hashes[u.ID]
	}
	c.mu.RUnlock()

	if !ok || utf8.RuneCountInString(password) < c.cfg.MinPasswordLength {
		c.logger.Info("login rejected", zap.String("email", email))
		return chat.User{}, chat.ErrInvalidCredentials
	}
	if c.cfg.VerifyPasswords && hash != nil {
		if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil {
			c.logger.Info("login rejected", zap.String("email", email), zap.String("reason", "password mismatch"))
			return chat.User{}, chat.ErrInvalidCredentials
		}
	}
	c.logger.Info("login accepted", zap.String("user_id", u.ID))
	return u, nil
}

// Create registers a new user. It fails with chat.ErrDuplicateIdentity when
// the email is taken and with a *chat.ValidationError for bad input.
func (c *Catalog) Create(name, email, password string) (chat.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if c.taken(email) {
		return chat.User{}, fmt.Errorf("register %s: %w", email, chat.ErrDuplicateIdentity)
	}
	if name == "" {
		return chat.User{}, &chat.ValidationError{Field: "name", Reason: "required"}
	}
	// Only a bare address is accepted, not "Name <addr>".
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return chat.User{}, &chat.ValidationError{Field: "email", Reason: "not an email address"}
	}
	if utf8.RuneCountInString(password) < c.cfg.MinPasswordLength {
		return chat.User{}, &chat.ValidationError{
			Field:  "password",
			Reason: fmt.Sprintf("must be at least %d characters", c.cfg.MinPasswordLength),
		}
	}
	if c.cfg.MinEntropyBits > 0 {
		if err := passwordvalidator.Validate(password, c.cfg.MinEntropyBits); err != nil {
			return chat.User{}, &chat.ValidationError{Field: "password", Reason: err.Error()}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return chat.User{}, fmt.Errorf("hash password: %w", err)
	}

	now := c.clock.Now()
	u := chat.User{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Avatar:   fixture.RegisteredAvatar,
		Status:   chat.Online,
		LastSeen: now,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another registration may have won the race since taken.
	if _, ok := c.byEmail[normalizeEmail(email)]; ok {
		return chat.User{}, fmt.Errorf("register %s: %w", email, chat.ErrDuplicateIdentity)
	}
	err = c.backend.InsertAccount(store.Account{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Avatar:       u.Avatar,
		PasswordHash: hash,
		CreatedAt:    now,
	})
	if errors.Is(err, store.ErrEmailTaken) {
		return chat.User{}, fmt.Errorf("register %s: %w", email, chat.ErrDuplicateIdentity)
	}
	if err != nil {
		return chat.User{}, err
	}
	if err := c.add(u, hash); err != nil {
		return chat.User{}, err
	}
	c.logger.Info("user registered", zap.String("user_id", u.ID))
	return u, nil
}

// Get returns a user by id.
func (c *Catalog) Get(id string) (chat.User, error) {
	u, ok := c.Lookup(id)
	if !ok {
		return chat.User{}, chat.NotFoundf("user %q", id)
	}
	return u, nil
}

// Lookup is a chat.UserLookup over the catalog.
func (c *Catalog) Lookup(id string) (chat.User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return chat.User{}, false
	}
	return c.users[i], true
}

// List returns every known user in catalog order.
func (c *Catalog) List() []chat.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.users)
}

// SetStatus updates a user's presence and lastSeen. If the user is the
// persisted current user, that record is rewritten too.
func (c *Catalog) SetStatus(id string, p chat.Presence, at time.Time) (chat.User, error) {
	c.mu.Lock()
	i, ok := c.byID[id]
	if !ok {
		c.mu.Unlock()
		return chat.User{}, chat.NotFoundf("user %q", id)
	}
	c.users[i].Status = p
	c.users[i].LastSeen = at
	u := c.users[i]
	c.mu.Unlock()

	cur, ok, err := c.LoadCurrent()
	if err != nil {
		return u, err
	}
	if ok && cur.ID == id {
		cur.Status = p
		cur.LastSeen = at
		if err := c.PersistCurrent(cur); err != nil {
			return u, err
		}
	}
	return u, nil
}

// PersistCurrent records u as the signed-in user.
func (c *Catalog) PersistCurrent(u chat.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("encode current user: %w", err)
	}
	return c.backend.SetKV(CurrentUserKey, string(b))
}

// LoadCurrent returns the persisted current user, reporting false when nobody
// is signed in.
func (c *Catalog) LoadCurrent() (chat.User, bool, error) {
	raw, err := c.backend.GetKV(CurrentUserKey)
	if errors.Is(err, store.ErrNoValue) {
		return chat.User{}, false, nil
	}
	if err != nil {
		return chat.User{}, false, err
	}
	var u chat.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return chat.User{}, false, fmt.Errorf("decode current user: %w", err)
	}
	return u, true, nil
}

// ClearCurrent forgets the signed-in user.
func (c *Catalog) ClearCurrent() error {
	return c.backend.DeleteKV(CurrentUserKey)
}
