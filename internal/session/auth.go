package session

import (
	"fmt"

	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/chat"
	"go.uber.org/zap"
)

// Login signs a user in, marks them online and persists them as the current
// user. The most recent conversation becomes active without being marked read.
func (s *Session) Login(email, password string) (chat.User, error) {
	u, err := s.identity.FindByCredentials(email, password)
	if err != nil {
		return chat.User{}, err
	}
	return s.start(u)
}

// Register creates an account and signs it in.
func (s *Session) Register(name, email, password string) (chat.User, error) {
	u, err := s.identity.Create(name, email, password)
	if err != nil {
		return chat.User{}, err
	}
	return s.start(u)
}

// Restore resumes the persisted current user, if any. A record naming a
// user the catalog no longer knows is discarded.
func (s *Session) Restore() (chat.User, bool, error) {
	u, ok, err := s.identity.LoadCurrent()
	if err != nil || !ok {
		return chat.User{}, false, err
	}
	known, found := s.identity.Lookup(u.ID)
	if !found {
		s.logger.Warn("discarding unknown persisted user", zap.String("user_id", u.ID))
		return chat.User{}, false, s.identity.ClearCurrent()
	}
	u, err = s.start(known)
	if err != nil {
		return chat.User{}, false, err
	}
	return u, true, nil
}

func (s *Session) start(u chat.User) (chat.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil && s.user.ID != u.ID {
		_ = s.signOut()
	}
	if err := s.identity.PersistCurrent(u); err != nil {
		return chat.User{}, fmt.Errorf("persist current user: %w", err)
	}
	online, err := s.presence.SetUserStatus(u.ID, chat.Online)
	if err != nil {
		return chat.User{}, err
	}
	s.user = &online
	s.active = ""
	if chats := s.store.ListForUser(online.ID); len(chats) > 0 {
		s.active = chats[0].ID
	}
	s.logger.Info("signed in", zap.String("user_id", online.ID), zap.String("active_chat", s.active))
	s.publish(bus.SessionChanged, s.active)
	return online, nil
}

// Logout marks the user offline, drops their typing indicators and clears
// the persisted record. Logging out while signed out is a no-op.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	return s.signOut()
}

func (s *Session) signOut() error {
	id := s.user.ID
	s.presence.ClearUser(id)
	if _, err := s.presence.SetUserStatus(id, chat.Offline); err != nil {
		s.logger.Warn("mark offline failed", zap.String("user_id", id), zap.Error(err))
	}
	err := s.identity.ClearCurrent()
	s.user = nil
	s.active = ""
	s.logger.Info("signed out", zap.String("user_id", id))
	s.publish(bus.SessionChanged, "")
	return err
}

// SetPresence changes the signed-in user's status.
func (s *Session) SetPresence(p chat.Presence) (chat.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.requireUser()
	if err != nil {
		return chat.User{}, err
	}
	updated, err := s.presence.SetUserStatus(u.ID, p)
	if err != nil {
		return chat.User{}, err
	}
	s.user = &updated
	return updated, nil
}
