package session

import (
	"fmt"

	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/conversation"
	"github.com/matheus3301/mockchat/internal/lifecycle"
	"go.uber.org/zap"
)

// ChatView is a conversation rendered for the signed-in user.
type ChatView struct {
	Chat    chat.Chat
	Name    string
	Avatar  string
	Preview string
	Typing  string
	Active  bool
}

// Conversations lists the user's chats, most recent first, keeping those
// whose display name contains query.
func (s *Session) Conversations(query string) ([]ChatView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	var out []ChatView
	for _, c := range s.store.ListForUser(u.ID) {
		if !chat.MatchesQuery(&c, u.ID, s.Lookup, query) {
			continue
		}
		out = append(out, s.view(c, u.ID))
	}
	return out, nil
}

func (s *Session) view(c chat.Chat, viewerID string) ChatView {
	return ChatView{
		Chat:    c,
		Name:    chat.DisplayName(&c, viewerID, s.Lookup),
		Avatar:  chat.DisplayAvatar(&c, viewerID, s.Lookup),
		Preview: chat.Preview(&c, viewerID, s.Lookup, s.preview),
		Typing:  chat.TypingLabel(&c, viewerID, s.Lookup),
		Active:  c.ID == s.active,
	}
}

// SelectConversation makes chatID active and marks it read for the user.
// Selecting the active chat again changes nothing.
func (s *Session) SelectConversation(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	c, err := s.store.Get(chatID)
	if err != nil {
		return err
	}
	if !c.HasParticipant(u.ID) {
		return fmt.Errorf("open chat %q: %w", chatID, chat.ErrInvalidSender)
	}
	if _, err := s.store.MarkRead(chatID, u.ID); err != nil {
		return err
	}
	if s.active == chatID {
		return nil
	}
	s.active = chatID
	s.publish(bus.SessionChanged, chatID)
	return nil
}

// CurrentConversation returns the active chat, reporting false when none is.
func (s *Session) CurrentConversation() (ChatView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.requireUser()
	if err != nil || s.active == "" {
		return ChatView{}, false, err
	}
	c, err := s.store.Get(s.active)
	if conversation.IsNotFound(err) {
		s.active = ""
		return ChatView{}, false, nil
	}
	if err != nil {
		return ChatView{}, false, err
	}
	return s.view(c, u.ID), true, nil
}

// CurrentMessages returns the active chat's log, or nothing when no chat is active.
func (s *Session) CurrentMessages() ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.requireUser(); err != nil || s.active == "" {
		return nil, err
	}
	msgs, err := s.store.Messages(s.active)
	if conversation.IsNotFound(err) {
		return nil, nil
	}
	return msgs, err
}

// Messages returns the log of any chat the user participates in.
func (s *Session) Messages(chatID string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	c, err := s.store.Get(chatID)
	if err != nil {
		return nil, err
	}
	if !c.HasParticipant(u.ID) {
		return nil, fmt.Errorf("read chat %q: %w", chatID, chat.ErrInvalidSender)
	}
	return s.store.Messages(chatID)
}

// Send posts a message from the user to the active chat. With no active chat
// it does nothing and reports false.
func (s *Session) Send(content string, kind chat.MessageKind, att *chat.Attachment) (chat.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.requireUser()
	if err != nil {
		return chat.Message{}, false, err
	}
	if s.active == "" {
		return chat.Message{}, false, nil
	}
	m, err := s.engine.Send(lifecycle.Draft{
		ChatID:     s.active,
		SenderID:   u.ID,
		Content:    content,
		Kind:       kind,
		Attachment: att,
	})
	if err != nil {
		return chat.Message{}, false, err
	}
	if err := s.presence.SetTyping(s.active, u.ID, false); err != nil && !conversation.IsNotFound(err) {
		s.logger.Debug("clear typing after send", zap.Error(err))
	}
	return m, true, nil
}

// SetTyping reports whether the user is composing in the active chat.
// With no active chat it does nothing.
func (s *Session) SetTyping(typing bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, err := s.requireUser()
	if err != nil {
		return err
	}
	if s.active == "" {
		return nil
	}
	return s.presence.SetTyping(s.active, u.ID, typing)
}

// Receive appends a message from another participant. If the chat is the
// one the user has open it is read straight away; otherwise it counts as unread.
func (s *Session) Receive(chatID, senderID, content string, kind chat.MessageKind, att *chat.Attachment) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	opt := conversation.CountUnread()
	if s.user != nil {
		if senderID == s.user.ID {
			return chat.Message{}, &chat.ValidationError{Field: "sender_id", Reason: "inbound messages come from other participants"}
		}
		if chatID == s.active {
			opt = conversation.ReadBy(s.user.ID)
		}
	}
	m, err := s.engine.Receive(lifecycle.Draft{
		ChatID:     chatID,
		SenderID:   senderID,
		Content:    content,
		Kind:       kind,
		Attachment: att,
	}, opt)
	if err != nil {
		return chat.Message{}, err
	}
	if err := s.presence.SetTyping(chatID, senderID, false); err != nil {
		s.logger.Debug("clear typing after receive", zap.Error(err))
	}
	return s.store.Message(chatID, m.ID)
}
