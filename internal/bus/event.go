package bus

import "time"

// Event kinds. Subscribers filter by prefix, so "message." matches both message kinds.
const (
	ChatUpdated     = "chat.updated"
	ChatRead        = "chat.read"
	ChatRemoved     = "chat.removed"
	MessageAppended = "message.appended"
	MessageStatus   = "message.status"
	TypingChanged   = "typing.changed"
	PresenceChanged = "presence.changed"
	SessionChanged  = "session.changed"
)

// Event represents a state change published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	ChatID    string
	MessageID string
	UserID    string
	Payload   any
}
