package conversation

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/status"
	"go.uber.org/zap"
)

// Store owns every chat and its message log. It is the serialization point
// for conversation state: each mutation and the derived fields it touches
// (last message, updatedAt, unread count, typing set) change under one lock,
// so a snapshot never shows a log inconsistent with its derived fields.
type Store struct {
	mu     sync.RWMutex
	chats  map[string]*entry
	clock  clock.Clock
	bus    *bus.Bus
	logger *zap.Logger
}

type entry struct {
	chat  chat.Chat
	log   []chat.Message
	index map[string]int
}

// New creates an empty store.
func New(c clock.Clock, b *bus.Bus, logger *zap.Logger) *Store {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		chats:  make(map[string]*entry),
		clock:  c,
		bus:    b,
		logger: logger,
	}
}

// Add registers a chat together with its initial message log. The log must be
// in timestamp order and every sender must be a participant. When the log is
// non-empty, UpdatedAt is taken from its last entry.
func (s *Store) Add(c chat.Chat, log []chat.Message) error {
	if err := c.Validate(); err != nil {
		return err
	}
	e := &entry{
		chat:  c.Clone(),
		index: make(map[string]int, len(log)),
	}
	e.chat.LastMessage = nil
	if e.chat.UpdatedAt.IsZero() {
		e.chat.UpdatedAt = e.chat.CreatedAt
	}
	for _, m := range log {
		if err := e.accept(m); err != nil {
			return fmt.Errorf("seed chat %s: %w", c.ID, err)
		}
		e.push(m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[c.ID]; ok {
		return &chat.ValidationError{Field: "id", Reason: "duplicate chat " + c.ID}
	}
	s.chats[c.ID] = e
	s.logger.Debug("chat added", zap.String("chat_id", c.ID), zap.Int("messages", len(log)))
	return nil
}

// Remove drops a chat from scope. Pending work targeting it becomes a no-op.
func (s *Store) Remove(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.chats[chatID]; !ok {
		return chat.NotFoundf("chat %q", chatID)
	}
	delete(s.chats, chatID)
	s.publish(bus.Event{Kind: bus.ChatRemoved, ChatID: chatID})
	return nil
}

// ListForUser returns the chats userID participates in, most recently
// updated first, ties broken by id ascending.
func (s *Store) ListForUser(userID string) []chat.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []chat.Chat
	for _, e := range s.chats {
		if e.chat.HasParticipant(userID) {
			out = append(out, e.snapshot())
		}
	}
	slices.SortFunc(out, func(a, b chat.Chat) int {
		if c := b.UpdatedAt.Compare(a.UpdatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Get returns a snapshot of one chat.
func (s *Store) Get(chatID string) (chat.Chat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.chats[chatID]
	if !ok {
		return chat.Chat{}, chat.NotFoundf("chat %q", chatID)
	}
	return e.snapshot(), nil
}

// Messages returns a copy of a chat's log, oldest first.
func (s *Store) Messages(chatID string) ([]chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.chats[chatID]
	if !ok {
		return nil, chat.NotFoundf("chat %q", chatID)
	}
	out := make([]chat.Message, len(e.log))
	for i := range e.log {
		out[i] = e.log[i].Clone()
	}
	return out, nil
}

// Message returns one message of a chat.
func (s *Store) Message(chatID, msgID string) (chat.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.chats[chatID]
	if !ok {
		return chat.Message{}, chat.NotFoundf("chat %q", chatID)
	}
	i, ok := e.index[msgID]
	if !ok {
		return chat.Message{}, chat.NotFoundf("message %q in chat %q", msgID, chatID)
	}
	return e.log[i].Clone(), nil
}

// AppendOption adjusts how AppendMessage updates derived fields.
type AppendOption func(*appendOptions)

type appendOptions struct {
	countUnread bool
	readBy      string
}

// CountUnread increments the chat's unread count as part of the append.
func CountUnread() AppendOption {
	return func(o *appendOptions) { o.countUnread = true }
}

// ReadBy marks the chat read for userID as part of the append, as MarkRead would.
func ReadBy(userID string) AppendOption {
	return func(o *appendOptions) { o.readBy = userID }
}

// AppendMessage adds m to the end of the chat's log and updates the derived
// fields. Either every effect applies or none does.
func (s *Store) AppendMessage(chatID string, m chat.Message, opts ...AppendOption) error {
	var o appendOptions
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.chats[chatID]
	if !ok {
		return chat.NotFoundf("chat %q", chatID)
	}
	m.ChatID = chatID
	if err := e.accept(m); err != nil {
		return err
	}
	e.push(m)
	if o.countUnread {
		e.chat.UnreadCount++
	}

	s.publish(bus.Event{Kind: bus.MessageAppended, ChatID: chatID, MessageID: m.ID, UserID: m.SenderID})
	s.publish(bus.Event{Kind: bus.ChatUpdated, ChatID: chatID})
	if o.readBy != "" {
		s.markRead(e, o.readBy)
	}
	return nil
}

// AdvanceStatus moves one message forward. Re-applying the current status
// reports changed=false; a backward move fails with status.ErrInvalidTransition.
func (s *Store) AdvanceStatus(chatID, msgID string, to status.State) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.chats[chatID]
	if !ok {
		return false, chat.NotFoundf("chat %q", chatID)
	}
	i, ok := e.index[msgID]
	if !ok {
		return false, chat.NotFoundf("message %q in chat %q", msgID, chatID)
	}
	from := e.log[i].Status
	changed, err := status.Advance(from, to)
	if err != nil || !changed {
		return false, err
	}
	e.log[i].Status = to
	s.publish(bus.Event{
		Kind:      bus.MessageStatus,
		ChatID:    chatID,
		MessageID: msgID,
		Payload:   status.Change{ChatID: chatID, MessageID: msgID, From: from, To: to},
	})
	return true, nil
}

// MarkRead marks every message not sent by userID as read and resets the
// unread count. It returns how many messages changed; a repeated call changes nothing.
func (s *Store) MarkRead(chatID, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.chats[chatID]
	if !ok {
		return 0, chat.NotFoundf("chat %q", chatID)
	}
	return s.markRead(e, userID), nil
}

func (s *Store) markRead(e *entry, userID string) int {
	chatID := e.chat.ID
	n := 0
	for i := range e.log {
		m := &e.log[i]
		if m.SenderID == userID || m.Status == status.Read {
			continue
		}
		from := m.Status
		m.Status = status.Read
		n++
		s.publish(bus.Event{
			Kind:      bus.MessageStatus,
			ChatID:    chatID,
			MessageID: m.ID,
			Payload:   status.Change{ChatID: chatID, MessageID: m.ID, From: from, To: status.Read},
		})
	}
	hadUnread := e.chat.UnreadCount != 0
	e.chat.UnreadCount = 0
	if n > 0 || hadUnread {
		s.publish(bus.Event{Kind: bus.ChatRead, ChatID: chatID, UserID: userID})
	}
	return n
}

// IncrementUnread bumps the unread counter of a chat by one.
func (s *Store) IncrementUnread(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.chats[chatID]
	if !ok {
		return chat.NotFoundf("chat %q", chatID)
	}
	e.chat.UnreadCount++
	s.publish(bus.Event{Kind: bus.ChatUpdated, ChatID: chatID})
	return nil
}

// SetTyping adds or removes userID from the chat's typing set. Users outside
// the chat are rejected with chat.ErrInvalidSender.
func (s *Store) SetTyping(chatID, userID string, typing bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.chats[chatID]
	if !ok {
		return false, chat.NotFoundf("chat %q", chatID)
	}
	if !e.chat.HasParticipant(userID) {
		return false, fmt.Errorf("typing in chat %q by %q: %w", chatID, userID, chat.ErrInvalidSender)
	}

	present := e.chat.IsTyping(userID)
	switch {
	case typing && !present:
		e.chat.Typing = append(e.chat.Typing, userID)
	case !typing && present:
		e.chat.Typing = slices.DeleteFunc(e.chat.Typing, func(id string) bool { return id == userID })
	default:
		return false, nil
	}
	s.publish(bus.Event{Kind: bus.TypingChanged, ChatID: chatID, UserID: userID, Payload: typing})
	return true, nil
}

// ChatIDs returns the ids of every chat in scope, sorted.
func (s *Store) ChatIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.chats))
	for id := range s.chats {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// IsNotFound reports whether err means the target left scope.
func IsNotFound(err error) bool {
	return errors.Is(err, chat.ErrNotFound)
}

func (s *Store) publish(evt bus.Event) {
	evt.Timestamp = s.clock.Now()
	s.bus.Publish(evt)
}

func (e *entry) accept(m chat.Message) error {
	if m.ID == "" {
		return &chat.ValidationError{Field: "message.id", Reason: "required"}
	}
	if _, dup := e.index[m.ID]; dup {
		return &chat.ValidationError{Field: "message.id", Reason: "duplicate message " + m.ID}
	}
	if m.ChatID != "" && m.ChatID != e.chat.ID {
		return &chat.ValidationError{Field: "message.chat_id", Reason: "belongs to " + m.ChatID}
	}
	if !e.chat.HasParticipant(m.SenderID) {
		return fmt.Errorf("sender %q in chat %q: %w", m.SenderID, e.chat.ID, chat.ErrInvalidSender)
	}
	if !m.Status.Valid() {
		return &chat.ValidationError{Field: "message.status", Reason: "unknown status " + string(m.Status)}
	}
	if n := len(e.log); n > 0 && m.Timestamp.Before(e.log[n-1].Timestamp) {
		return &chat.ValidationError{Field: "message.timestamp", Reason: "precedes the last message"}
	}
	return nil
}

func (e *entry) push(m chat.Message) {
	m.ChatID = e.chat.ID
	e.index[m.ID] = len(e.log)
	e.log = append(e.log, m.Clone())
	e.chat.UpdatedAt = m.Timestamp
}

func (e *entry) snapshot() chat.Chat {
	c := e.chat.Clone()
	if n := len(e.log); n > 0 {
		last := e.log[n-1].Clone()
		c.LastMessage = &last
	}
	return c
}
