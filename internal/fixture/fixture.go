// Package fixture holds the demo users and conversations a daemon starts with.
// Timestamps are relative to the time passed in, so a fresh daemon always
// shows recent activity.
package fixture

import (
	"fmt"
	"time"

	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/conversation"
	"github.com/matheus3301/mockchat/internal/status"
)

const imgBase = "https://storage.googleapis.com/workspace-0f70711f-8b4e-4d94-86f1-2a93ccde5887/image/"

// RegisteredAvatar is given to users created through registration.
const RegisteredAvatar = imgBase + "5a6f5083-1277-4e46-a8bc-db69b4b42729.png"

// Users returns the demo catalog.
func Users(now time.Time) []chat.User {
	return []chat.User{
		{ID: "1", Name: "John Doe", Email: "john@example.com", Avatar: imgBase + "111b79d5-2569-4cc1-bf81-34d117880571.png", Status: chat.Online, LastSeen: now},
		{ID: "2", Name: "Sarah Wilson", Email: "sarah@example.com", Avatar: imgBase + "4e911acb-2d49-4e15-9b49-bc06780c4d88.png", Status: chat.Online, LastSeen: now},
		{ID: "3", Name: "Mike Johnson", Email: "mike@example.com", Avatar: imgBase + "6fb3f163-f4cf-4c8b-bc2b-0e541277755e.png", Status: chat.Away, LastSeen: now.Add(-5 * time.Minute)},
		{ID: "4", Name: "Emily Chen", Email: "emily@example.com", Avatar: imgBase + "014b0def-3926-4361-a502-6984477efa39.png", Status: chat.Offline, LastSeen: now.Add(-2 * time.Hour)},
		{ID: "5", Name: "David Brown", Email: "david@example.com", Avatar: imgBase + "48b47df7-cd52-442b-9623-cc252b13d385.png", Status: chat.Online, LastSeen: now},
	}
}

// Conversation is a chat with its initial log.
type Conversation struct {
	Chat     chat.Chat
	Messages []chat.Message
}

const day = 24 * time.Hour

// Conversations returns the demo chats, each with its message log.
func Conversations(now time.Time) []Conversation {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	text := func(chatID string, n int, sender, content string, d time.Duration, st status.State) chat.Message {
		return chat.Message{
			ID:        fmt.Sprintf("msg-%s-%d", chatID[len("chat-"):], n),
			ChatID:    chatID,
			SenderID:  sender,
			Content:   content,
			Kind:      chat.Text,
			Timestamp: ago(d),
			Status:    st,
		}
	}

	design := text("chat-1", 4, "2", imgBase+"f7deea67-b456-4cf6-abf0-1174212cba02.png", 30*time.Minute, status.Delivered)
	design.Kind = chat.Image

	return []Conversation{
		{
			Chat: chat.Chat{ID: "chat-1", Kind: chat.Direct, Participants: []string{"1", "2"}, UnreadCount: 2, CreatedAt: ago(7 * day)},
			Messages: []chat.Message{
				text("chat-1", 1, "2", "Hey John! How are you doing?", 2*time.Hour, status.Read),
				text("chat-1", 2, "1", "Hi Sarah! I'm doing great, thanks for asking. How about you?", 90*time.Minute, status.Read),
				text("chat-1", 3, "2", "I'm good too! Working on that new project we discussed.", time.Hour, status.Read),
				design,
				text("chat-1", 5, "2", "What do you think about this design?", 10*time.Minute, status.Sent),
			},
		},
		{
			Chat: chat.Chat{ID: "chat-2", Kind: chat.Direct, Participants: []string{"1", "3"}, CreatedAt: ago(5 * day)},
			Messages: []chat.Message{
				text("chat-2", 1, "3", "John, can we schedule a meeting for tomorrow?", 3*time.Hour, status.Read),
				text("chat-2", 2, "1", "Sure! What time works for you?", 150*time.Minute, status.Read),
				text("chat-2", 3, "3", "How about 2 PM?", 2*time.Hour, status.Read),
			},
		},
		{
			Chat: chat.Chat{
				ID:           "chat-3",
				Kind:         chat.Group,
				Name:         "Project Team",
				Participants: []string{"1", "2", "3", "4"},
				UnreadCount:  1,
				CreatedAt:    ago(10 * day),
				Avatar:       imgBase + "78c1b1e8-87d1-4f00-a1ef-46208205ed40.png",
				Description:  "Main project discussion group",
			},
			Messages: []chat.Message{
				text("chat-3", 1, "2", "Good morning team! Let's discuss today's priorities.", 4*time.Hour, status.Read),
				text("chat-3", 2, "3", "I'll focus on the backend APIs today.", 210*time.Minute, status.Read),
				text("chat-3", 3, "4", "I'll work on the UI components.", 3*time.Hour, status.Read),
				text("chat-3", 4, "1", "Perfect! I'll review the requirements document.", time.Hour, status.Read),
				text("chat-3", 5, "2", "Great! Let's sync up at lunch.", 30*time.Minute, status.Delivered),
			},
		},
		{
			Chat: chat.Chat{ID: "chat-4", Kind: chat.Direct, Participants: []string{"1", "4"}, CreatedAt: ago(3 * day)},
			Messages: []chat.Message{
				text("chat-4", 1, "4", "Hi John! Hope you're having a great week.", 36*time.Hour, status.Read),
				text("chat-4", 2, "1", "Thanks Emily! You too. How's the new project going?", day, status.Read),
			},
		},
		{
			Chat: chat.Chat{ID: "chat-5", Kind: chat.Direct, Participants: []string{"1", "5"}, UnreadCount: 3, CreatedAt: ago(day), Typing: []string{"5"}},
			Messages: []chat.Message{
				text("chat-5", 1, "5", "John, I need to discuss the quarterly reports with you.", 20*time.Minute, status.Delivered),
				text("chat-5", 2, "5", "When would be a good time for you?", 15*time.Minute, status.Delivered),
				text("chat-5", 3, "5", "It's quite urgent.", 5*time.Minute, status.Sent),
			},
		},
	}
}

// TypingFunc starts a typing indicator. It lets seeded indicators go through
// the same entry point as live ones so they expire too.
type TypingFunc func(chatID, userID string) error

// Seed loads the demo conversations into store. Seeded typing indicators are
// handed to typing; a nil typing drops them.
func Seed(store *conversation.Store, now time.Time, typing TypingFunc) error {
	for _, c := range Conversations(now) {
		who := c.Chat.Typing
		c.Chat.Typing = nil
		if err := store.Add(c.Chat, c.Messages); err != nil {
			return fmt.Errorf("seed %s: %w", c.Chat.ID, err)
		}
		if typing == nil {
			continue
		}
		for _, id := range who {
			if err := typing(c.Chat.ID, id); err != nil {
				return fmt.Errorf("seed typing %s/%s: %w", c.Chat.ID, id, err)
			}
		}
	}
	return nil
}
