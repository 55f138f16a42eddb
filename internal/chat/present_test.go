package chat

import (
	"errors"
	"strings"
	"testing"
)

func testLookup() UserLookup {
	users := map[string]User{
		"1": {ID: "1", Name: "John Doe"},
		"2": {ID: "2", Name: "Sarah Wilson", Avatar: "sarah.png"},
		"3": {ID: "3", Name: "Mike Johnson"},
	}
	return func(id string) (User, bool) {
		u, ok := users[id]
		return u, ok
	}
}

func TestDisplayName(t *testing.T) {
	lookup := testLookup()
	tests := []struct {
		name string
		chat Chat
		want string
	}{
		{"direct", Chat{Kind: Direct, Participants: []string{"1", "2"}}, "Sarah Wilson"},
		{"direct unknown", Chat{Kind: Direct, Participants: []string{"1", "9"}}, "Unknown User"},
		{"group named", Chat{Kind: Group, Name: "Project Team", Participants: []string{"1", "2", "3"}}, "Project Team"},
		{"group unnamed", Chat{Kind: Group, Participants: []string{"1", "2", "3"}}, "Group Chat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayName(&tt.chat, "1", lookup); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDisplayAvatarDefaults(t *testing.T) {
	lookup := testLookup()
	direct := Chat{Kind: Direct, Participants: []string{"1", "2"}}
	if got := DisplayAvatar(&direct, "1", lookup); got != "sarah.png" {
		t.Errorf("direct avatar = %q, want sarah.png", got)
	}
	direct.Participants = []string{"1", "3"}
	if got := DisplayAvatar(&direct, "1", lookup); got != DefaultUserAvatar {
		t.Errorf("direct avatar = %q, want default", got)
	}
	group := Chat{Kind: Group, Participants: []string{"1", "2"}}
	if got := DisplayAvatar(&group, "1", lookup); got != DefaultGroupAvatar {
		t.Errorf("group avatar = %q, want default", got)
	}
}

func TestPreview(t *testing.T) {
	lookup := testLookup()
	long := strings.Repeat("x", 60)
	tests := []struct {
		name string
		kind Kind
		msg  *Message
		want string
	}{
		{"empty", Direct, nil, "No messages yet"},
		{"direct text", Direct, &Message{SenderID: "2", Kind: Text, Content: "hi"}, "hi"},
		{"group text", Group, &Message{SenderID: "2", Kind: Text, Content: "hi"}, "Sarah Wilson: hi"},
		{"own group text", Group, &Message{SenderID: "1", Kind: Text, Content: "hi"}, "You: hi"},
		{"truncated", Direct, &Message{SenderID: "2", Kind: Text, Content: long}, strings.Repeat("x", 50) + "..."},
		{"image", Direct, &Message{SenderID: "2", Kind: Image}, "Sarah Wilson: 📷 Photo"},
		{"file named", Direct, &Message{SenderID: "1", Kind: File, Attachment: &Attachment{FileName: "a.pdf"}}, "You: 📎 a.pdf"},
		{"file bare", Direct, &Message{SenderID: "9", Kind: File}, "Unknown: 📎 File"},
		{"voice", Direct, &Message{SenderID: "2", Kind: Voice}, "Sarah Wilson: 🎵 Voice message"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Chat{Kind: tt.kind, Participants: []string{"1", "2"}, LastMessage: tt.msg}
			if got := Preview(&c, "1", lookup, 0); got != tt.want {
				t.Errorf("Preview() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypingLabel(t *testing.T) {
	lookup := testLookup()
	c := Chat{Kind: Group, Participants: []string{"1", "2", "3"}}

	if got := TypingLabel(&c, "1", lookup); got != "" {
		t.Errorf("nobody typing: got %q", got)
	}
	c.Typing = []string{"1"}
	if got := TypingLabel(&c, "1", lookup); got != "" {
		t.Errorf("viewer typing should be hidden: got %q", got)
	}
	c.Typing = []string{"1", "2"}
	if got := TypingLabel(&c, "1", lookup); got != "Sarah Wilson is typing..." {
		t.Errorf("one typing: got %q", got)
	}
	c.Typing = []string{"2", "3"}
	if got := TypingLabel(&c, "1", lookup); got != "2 people are typing..." {
		t.Errorf("two typing: got %q", got)
	}
}

func TestMatchesQuery(t *testing.T) {
	lookup := testLookup()
	c := Chat{Kind: Direct, Participants: []string{"1", "2"}}
	if !MatchesQuery(&c, "1", lookup, "sarah") {
		t.Error("expected case-insensitive match")
	}
	if MatchesQuery(&c, "1", lookup, "mike") {
		t.Error("unexpected match")
	}
	if !MatchesQuery(&c, "1", lookup, "") {
		t.Error("empty query matches everything")
	}
}

func TestChatValidate(t *testing.T) {
	ok := Chat{ID: "c", Kind: Direct, Participants: []string{"1", "2"}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	bad := []Chat{
		{Kind: Direct, Participants: []string{"1", "2"}},
		{ID: "c", Kind: Direct, Participants: []string{"1"}},
		{ID: "c", Kind: Group},
		{ID: "c", Kind: "channel", Participants: []string{"1"}},
		{ID: "c", Kind: Group, Participants: []string{"1", "2"}, Typing: []string{"3"}},
	}
	for i, c := range bad {
		if err := c.Validate(); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: Validate() error = %v, want ErrValidation", i, err)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := Message{ID: "m", Attachment: &Attachment{FileName: "a"}}
	c := Chat{ID: "c", Participants: []string{"1", "2"}, Typing: []string{"2"}, LastMessage: &m}
	cp := c.Clone()
	cp.Participants[0] = "x"
	cp.Typing[0] = "x"
	cp.LastMessage.Attachment.FileName = "b"
	if c.Participants[0] != "1" || c.Typing[0] != "2" || m.Attachment.FileName != "a" {
		t.Error("Clone shares state with the original")
	}
}
