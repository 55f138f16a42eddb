package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultGroupAvatar = "https://storage.googleapis.com/workspace-0f70711f-8b4e-4d94-86f1-2a93ccde5887/image/6d30bc9d-3170-4620-8a9a-c7cc8b2167d6.png"
	DefaultUserAvatar  = "https://storage.googleapis.com/workspace-0f70711f-8b4e-4d94-86f1-2a93ccde5887/image/a8fead57-fac9-45b3-9cbe-d995e1cef5f2.png"

	// DefaultPreviewLength is the rune budget of a text preview.
	DefaultPreviewLength = 50
)

// UserLookup resolves a user id, reporting false for unknown users.
type UserLookup func(id string) (User, bool)

// Counterpart returns the other participant of a direct chat.
func Counterpart(c *Chat, viewerID string, lookup UserLookup) (User, bool) {
	if c.Kind == Group {
		return User{}, false
	}
	for _, id := range c.Participants {
		if id != viewerID {
			return lookup(id)
		}
	}
	return User{}, false
}

// DisplayName is the group name, or the counterpart's name for direct chats.
func DisplayName(c *Chat, viewerID string, lookup UserLookup) string {
	if c.Kind == Group {
		if c.Name != "" {
			return c.Name
		}
		return "Group Chat"
	}
	if u, ok := Counterpart(c, viewerID, lookup); ok && u.Name != "" {
		return u.Name
	}
	return "Unknown User"
}

// DisplayAvatar mirrors DisplayName for avatars, falling back to defaults.
func DisplayAvatar(c *Chat, viewerID string, lookup UserLookup) string {
	if c.Kind == Group {
		if c.Avatar != "" {
			return c.Avatar
		}
		return DefaultGroupAvatar
	}
	if u, ok := Counterpart(c, viewerID, lookup); ok && u.Avatar != "" {
		return u.Avatar
	}
	return DefaultUserAvatar
}

// Preview renders the chat's last message for a list row.
func Preview(c *Chat, viewerID string, lookup UserLookup, maxLen int) string {
	m := c.LastMessage
	if m == nil {
		return "No messages yet"
	}
	if maxLen <= 0 {
		maxLen = DefaultPreviewLength
	}

	sender := "Unknown"
	if m.SenderID == viewerID {
		sender = "You"
	} else if u, ok := lookup(m.SenderID); ok {
		sender = u.Name
	}

	switch m.Kind {
	case Image:
		return sender + ": 📷 Photo"
	case File:
		name := "File"
		if m.Attachment != nil && m.Attachment.FileName != "" {
			name = m.Attachment.FileName
		}
		return sender + ": 📎 " + name
	case Voice:
		return sender + ": 🎵 Voice message"
	}

	text := truncate(m.Content, maxLen)
	if c.Kind == Group {
		return sender + ": " + text
	}
	return text
}

// TypingLabel describes who else is typing, or "" when nobody is.
func TypingLabel(c *Chat, viewerID string, lookup UserLookup) string {
	var names []string
	for _, id := range c.Typing {
		if id == viewerID {
			continue
		}
		name := "Unknown"
		if u, ok := lookup(id); ok {
			name = u.Name
		}
		names = append(names, name)
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0] + " is typing..."
	}
	return fmt.Sprintf("%d people are typing...", len(names))
}

// MatchesQuery reports whether the chat's display name contains query, ignoring case.
func MatchesQuery(c *Chat, viewerID string, lookup UserLookup, query string) bool {
	if query == "" {
		return true
	}
	name := strings.ToLower(DisplayName(c, viewerID, lookup))
	return strings.Contains(name, strings.ToLower(query))
}

func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	return string(r[:maxLen]) + "..."
}
