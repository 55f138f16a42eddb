// Package session is the single entry point a client uses: it tracks the
// signed-in user and the active conversation and composes the conversation
// store, lifecycle engine, presence aggregator and identity catalog.
package session

import (
	"sync"

	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/conversation"
	"github.com/matheus3301/mockchat/internal/identity"
	"github.com/matheus3301/mockchat/internal/lifecycle"
	"github.com/matheus3301/mockchat/internal/presence"
	"go.uber.org/zap"
)

// Params are the collaborators of a Session.
type Params struct {
	Store         *conversation.Store
	Engine        *lifecycle.Engine
	Presence      *presence.Aggregator
	Identity      *identity.Catalog
	Clock         clock.Clock
	Bus           *bus.Bus
	Logger        *zap.Logger
	PreviewLength int
}

// Session is the facade over one signed-in user's view of the chat state.
type Session struct {
	store    *conversation.Store
	engine   *lifecycle.Engine
	presence *presence.Aggregator
	identity *identity.Catalog
	clock    clock.Clock
	bus      *bus.Bus
	logger   *zap.Logger
	preview  int

	mu     sync.Mutex
	user   *chat.User
	active string
}

// New creates a signed-out session.
func New(p Params) *Session {
	if p.Clock == nil {
		p.Clock = clock.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.PreviewLength <= 0 {
		p.PreviewLength = chat.DefaultPreviewLength
	}
	return &Session{
		store:    p.Store,
		engine:   p.Engine,
		presence: p.Presence,
		identity: p.Identity,
		clock:    p.Clock,
		bus:      p.Bus,
		logger:   p.Logger,
		preview:  p.PreviewLength,
	}
}

// CurrentUser returns the signed-in user.
func (s *Session) CurrentUser() (chat.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return chat.User{}, false
	}
	return *s.user, true
}

// UserID returns the id of the signed-in user. It satisfies the viewer
// callback of presence.Simulator.
func (s *Session) UserID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return "", false
	}
	return s.user.ID, true
}

// User resolves any known user.
func (s *Session) User(id string) (chat.User, error) {
	return s.identity.Get(id)
}

// Lookup is the chat.UserLookup used to render views.
func (s *Session) Lookup(id string) (chat.User, bool) {
	return s.identity.Lookup(id)
}

func (s *Session) requireUser() (chat.User, error) {
	if s.user == nil {
		return chat.User{}, chat.ErrNotAuthenticated
	}
	return *s.user, nil
}

func (s *Session) publish(kind string, chatID string) {
	evt := bus.Event{Kind: kind, Timestamp: s.clock.Now(), ChatID: chatID}
	if s.user != nil {
		evt.UserID = s.user.ID
	}
	s.bus.Publish(evt)
}
