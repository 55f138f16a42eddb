package fixture

import (
	"testing"
	"time"

	"github.com/matheus3301/mockchat/internal/conversation"
)

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSeedOrdering(t *testing.T) {
	store := conversation.New(nil, nil, nil)
	var typed []string
	err := Seed(store, now, func(chatID, userID string) error {
		typed = append(typed, chatID+"/"+userID)
		return nil
	})
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	var got []string
	for _, c := range store.ListForUser("1") {
		got = append(got, c.ID)
	}
	want := []string{"chat-5", "chat-1", "chat-3", "chat-2", "chat-4"}
	if len(got) != len(want) {
		t.Fatalf("ListForUser(1) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ListForUser(1) = %v, want %v", got, want)
		}
	}

	if len(typed) != 1 || typed[0] != "chat-5/5" {
		t.Errorf("typing callbacks = %v, want [chat-5/5]", typed)
	}
}

func TestSeedDerivedFields(t *testing.T) {
	store := conversation.New(nil, nil, nil)
	if err := Seed(store, now, nil); err != nil {
		t.Fatal(err)
	}

	c, err := store.Get("chat-1")
	if err != nil {
		t.Fatal(err)
	}
	if c.LastMessage == nil || c.LastMessage.ID != "msg-1-5" {
		t.Fatalf("last message = %+v, want msg-1-5", c.LastMessage)
	}
	if !c.UpdatedAt.Equal(now.Add(-10 * time.Minute)) {
		t.Errorf("updatedAt = %v, want 10 minutes ago", c.UpdatedAt)
	}
	if c.UnreadCount != 2 {
		t.Errorf("unread = %d, want 2", c.UnreadCount)
	}

	five, _ := store.Get("chat-5")
	if len(five.Typing) != 0 {
		t.Errorf("nil typing func should drop seeded indicators, got %v", five.Typing)
	}
}

func TestUsersUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, u := range Users(now) {
		if seen[u.Email] || seen[u.ID] {
			t.Errorf("duplicate user %s", u.ID)
		}
		seen[u.Email], seen[u.ID] = true, true
		if !u.Status.Valid() {
			t.Errorf("user %s has invalid status %q", u.ID, u.Status)
		}
	}
}
