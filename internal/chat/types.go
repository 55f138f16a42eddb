package chat

import (
	"slices"
	"time"

	"github.com/matheus3301/mockchat/internal/status"
)

// Presence is a user's online status.
type Presence string

const (
	Online  Presence = "online"
	Away    Presence = "away"
	Offline Presence = "offline"
)

// Valid reports whether p is a known presence value.
func (p Presence) Valid() bool {
	switch p {
	case Online, Away, Offline:
		return true
	}
	return false
}

// User is a known identity. The JSON form is the flat record persisted for
// the current session user.
type User struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	Avatar   string    `json:"avatar,omitempty"`
	Status   Presence  `json:"status"`
	LastSeen time.Time `json:"lastSeen,omitzero"`
}

// Kind distinguishes two-party chats from groups.
type Kind string

const (
	Direct Kind = "direct"
	Group  Kind = "group"
)

// Chat is a conversation. LastMessage, UnreadCount, UpdatedAt and Typing are
// derived fields owned by the conversation store.
type Chat struct {
	ID           string
	Kind         Kind
	Participants []string
	Name         string
	Avatar       string
	Description  string
	LastMessage  *Message
	UnreadCount  int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Typing       []string
}

// HasParticipant reports whether userID belongs to the chat.
func (c *Chat) HasParticipant(userID string) bool {
	return slices.Contains(c.Participants, userID)
}

// IsTyping reports whether userID is in the chat's typing set.
func (c *Chat) IsTyping(userID string) bool {
	return slices.Contains(c.Typing, userID)
}

// Clone returns a deep copy safe to hand out of the store.
func (c *Chat) Clone() Chat {
	out := *c
	out.Participants = slices.Clone(c.Participants)
	out.Typing = slices.Clone(c.Typing)
	if c.LastMessage != nil {
		m := c.LastMessage.Clone()
		out.LastMessage = &m
	}
	return out
}

// Validate checks the structural invariants of a seeded chat.
func (c *Chat) Validate() error {
	if c.ID == "" {
		return &ValidationError{Field: "id", Reason: "required"}
	}
	if len(c.Participants) == 0 {
		return &ValidationError{Field: "participants", Reason: "must not be empty"}
	}
	switch c.Kind {
	case Direct:
		if len(c.Participants) != 2 {
			return &ValidationError{Field: "participants", Reason: "direct chats have exactly 2 participants"}
		}
	case Group:
	default:
		return &ValidationError{Field: "kind", Reason: "unknown chat kind " + string(c.Kind)}
	}
	for _, id := range c.Typing {
		if !c.HasParticipant(id) {
			return &ValidationError{Field: "typing", Reason: id + " is not a participant"}
		}
	}
	return nil
}

// MessageKind is the payload type of a message.
type MessageKind string

const (
	Text  MessageKind = "text"
	Image MessageKind = "image"
	File  MessageKind = "file"
	Voice MessageKind = "voice"
)

// ParseMessageKind converts a wire string into a MessageKind. Empty means text.
func ParseMessageKind(s string) (MessageKind, error) {
	switch k := MessageKind(s); k {
	case "":
		return Text, nil
	case Text, Image, File, Voice:
		return k, nil
	}
	return "", &ValidationError{Field: "kind", Reason: "unknown message kind " + s}
}

// Attachment describes the payload of a non-text message.
type Attachment struct {
	FileName string
	FileSize int64
	FileURL  string
}

// Message is an entry in a chat's log. Timestamp is immutable; Status only moves forward.
type Message struct {
	ID         string
	ChatID     string
	SenderID   string
	Content    string
	Kind       MessageKind
	Timestamp  time.Time
	Status     status.State
	Attachment *Attachment
}

// Clone returns a copy that does not share the attachment pointer.
func (m *Message) Clone() Message {
	out := *m
	if m.Attachment != nil {
		a := *m.Attachment
		out.Attachment = &a
	}
	return out
}
