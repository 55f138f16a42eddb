package api

import (
	"fmt"
	"time"

	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/session"
	"github.com/matheus3301/mockchat/internal/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// User is the wire form of a user.
type User struct {
	ID       string
	Name     string
	Email    string
	Avatar   string
	Status   string
	LastSeen time.Time
}

// Chat is the wire form of a chat as the signed-in user sees it.
type Chat struct {
	ID            string
	Kind          string
	Name          string
	Avatar        string
	Description   string
	Participants  []string
	Preview       string
	Typing        string
	UnreadCount   int
	UpdatedAt     time.Time
	LastMessageID string
	Active        bool
}

// Message is the wire form of a message.
type Message struct {
	ID       string
	ChatID   string
	SenderID string
	// SenderName is empty when the sender is not a known user.
	SenderName string
	Content    string
	Kind       string
	Status     string
	Timestamp  time.Time
	FileName   string
	FileSize   int64
	FileURL    string
}

// Event is one entry of the Watch stream.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	ChatID    string
	MessageID string
	UserID    string
	// Status is the new message status of a message.status event.
	Status string
	// Typing is set by typing.changed events.
	Typing bool
	// Presence is set by presence.changed events.
	Presence string
}

// Whoami describes the daemon and its signed-in user.
type Whoami struct {
	Profile      string
	SignedIn     bool
	User         User
	ActiveChatID string
	Uptime       time.Duration
}

func millis(t time.Time) any {
	if t.IsZero() {
		return int64(0)
	}
	return t.UnixMilli()
}

func fromMillis(v float64) time.Time {
	if v == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(v))
}

func userFields(u chat.User) map[string]any {
	return map[string]any{
		"id":        u.ID,
		"name":      u.Name,
		"email":     u.Email,
		"avatar":    u.Avatar,
		"status":    string(u.Status),
		"last_seen": millis(u.LastSeen),
	}
}

func chatFields(v session.ChatView) map[string]any {
	participants := make([]any, len(v.Chat.Participants))
	for i, id := range v.Chat.Participants {
		participants[i] = id
	}
	last := ""
	if v.Chat.LastMessage != nil {
		last = v.Chat.LastMessage.ID
	}
	return map[string]any{
		"id":              v.Chat.ID,
		"kind":            string(v.Chat.Kind),
		"name":            v.Name,
		"avatar":          v.Avatar,
		"description":     v.Chat.Description,
		"participants":    participants,
		"preview":         v.Preview,
		"typing":          v.Typing,
		"unread_count":    v.Chat.UnreadCount,
		"updated_at":      millis(v.Chat.UpdatedAt),
		"last_message_id": last,
		"active":          v.Active,
	}
}

func messageFields(m chat.Message, lookup chat.UserLookup) map[string]any {
	out := map[string]any{
		"id":        m.ID,
		"chat_id":   m.ChatID,
		"sender_id": m.SenderID,
		"content":   m.Content,
		"kind":      string(m.Kind),
		"status":    string(m.Status),
		"timestamp": millis(m.Timestamp),
	}
	if u, ok := lookup(m.SenderID); ok {
		out["sender_name"] = u.Name
	}
	if a := m.Attachment; a != nil {
		out["file_name"] = a.FileName
		out["file_size"] = a.FileSize
		out["file_url"] = a.FileURL
	}
	return out
}

func eventFields(id string, evt bus.Event) map[string]any {
	out := map[string]any{
		"id":         id,
		"kind":       evt.Kind,
		"ts":         millis(evt.Timestamp),
		"chat_id":    evt.ChatID,
		"message_id": evt.MessageID,
		"user_id":    evt.UserID,
	}
	switch p := evt.Payload.(type) {
	case status.Change:
		out["status"] = string(p.To)
	case bool:
		out["typing"] = p
	case chat.Presence:
		out["presence"] = string(p)
	}
	return out
}

func str(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func num(s *structpb.Struct, key string) float64 {
	return s.GetFields()[key].GetNumberValue()
}

func flag(s *structpb.Struct, key string) bool {
	return s.GetFields()[key].GetBoolValue()
}

func sub(s *structpb.Struct, key string) *structpb.Struct {
	return s.GetFields()[key].GetStructValue()
}

func list(s *structpb.Struct, key string) []*structpb.Value {
	return s.GetFields()[key].GetListValue().GetValues()
}

func decodeUser(s *structpb.Struct) User {
	return User{
		ID:       str(s, "id"),
		Name:     str(s, "name"),
		Email:    str(s, "email"),
		Avatar:   str(s, "avatar"),
		Status:   str(s, "status"),
		LastSeen: fromMillis(num(s, "last_seen")),
	}
}

func decodeChat(s *structpb.Struct) Chat {
	c := Chat{
		ID:            str(s, "id"),
		Kind:          str(s, "kind"),
		Name:          str(s, "name"),
		Avatar:        str(s, "avatar"),
		Description:   str(s, "description"),
		Preview:       str(s, "preview"),
		Typing:        str(s, "typing"),
		UnreadCount:   int(num(s, "unread_count")),
		UpdatedAt:     fromMillis(num(s, "updated_at")),
		LastMessageID: str(s, "last_message_id"),
		Active:        flag(s, "active"),
	}
	for _, v := range list(s, "participants") {
		c.Participants = append(c.Participants, v.GetStringValue())
	}
	return c
}

func decodeMessage(s *structpb.Struct) (Message, error) {
	st, err := decodeStatus(s)
	if err != nil {
		return Message{}, fmt.Errorf("message %s: %w", str(s, "id"), err)
	}
	return Message{
		ID:         str(s, "id"),
		ChatID:     str(s, "chat_id"),
		SenderID:   str(s, "sender_id"),
		SenderName: str(s, "sender_name"),
		Content:    str(s, "content"),
		Kind:       str(s, "kind"),
		Status:     st,
		Timestamp:  fromMillis(num(s, "timestamp")),
		FileName:   str(s, "file_name"),
		FileSize:   int64(num(s, "file_size")),
		FileURL:    str(s, "file_url"),
	}, nil
}

func decodeEvent(s *structpb.Struct) (Event, error) {
	st, err := decodeStatus(s)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: %w", str(s, "id"), err)
	}
	return Event{
		ID:        str(s, "id"),
		Kind:      str(s, "kind"),
		Timestamp: fromMillis(num(s, "ts")),
		ChatID:    str(s, "chat_id"),
		MessageID: str(s, "message_id"),
		UserID:    str(s, "user_id"),
		Status:    st,
		Typing:    flag(s, "typing"),
		Presence:  str(s, "presence"),
	}, nil
}

// decodeStatus validates the optional delivery status field.
func decodeStatus(s *structpb.Struct) (string, error) {
	v := str(s, "status")
	if v == "" {
		return "", nil
	}
	st, err := status.Parse(v)
	return string(st), err
}

// attachment reads the optional file fields of a Send or Receive request.
func attachment(s *structpb.Struct) *chat.Attachment {
	a := chat.Attachment{
		FileName: str(s, "file_name"),
		FileSize: int64(num(s, "file_size")),
		FileURL:  str(s, "file_url"),
	}
	if a == (chat.Attachment{}) {
		return nil
	}
	return &a
}
