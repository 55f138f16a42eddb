package model

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
)

// fakeBackend keeps just enough daemon state to drive the view model.
type fakeBackend struct {
	mu       sync.Mutex
	user     *api.User
	active   string
	chats    []api.Chat
	messages map[string][]api.Message
	sent     []api.Outgoing
	typing   []bool
	queries  []string
	events   chan api.Event
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chats: []api.Chat{
			{ID: "chat-5", Name: "David Brown", UnreadCount: 3},
			{ID: "chat-3", Name: "Project Team", Kind: "group", UnreadCount: 1},
		},
		messages: map[string][]api.Message{
			"chat-5": {{ID: "m1", ChatID: "chat-5", Content: "hi"}},
			"chat-3": {{ID: "m2", ChatID: "chat-3", Content: "team"}, {ID: "m3", ChatID: "chat-3"}},
		},
		events: make(chan api.Event, 8),
	}
}

func (f *fakeBackend) Whoami(context.Context) (api.Whoami, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.user == nil {
		return api.Whoami{Profile: "main"}, nil
	}
	return api.Whoami{Profile: "main", SignedIn: true, User: *f.user, ActiveChatID: f.active}, nil
}

func (f *fakeBackend) Login(_ context.Context, email, password string) (api.User, error) {
	if len(password) < 6 {
		return api.User{}, chat.ErrInvalidCredentials
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = &api.User{ID: "1", Email: email, Status: "online"}
	f.active = "chat-5"
	return *f.user, nil
}

func (f *fakeBackend) Register(ctx context.Context, name, email, password string) (api.User, error) {
	u, err := f.Login(ctx, email, password)
	u.Name = name
	return u, err
}

func (f *fakeBackend) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user = nil
	return nil
}

func (f *fakeBackend) ListChats(_ context.Context, query string) ([]api.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	var out []api.Chat
	for _, c := range f.chats {
		if containsFold(c.Name, query) {
			c.Active = c.ID == f.active
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeBackend) SelectChat(_ context.Context, chatID string) (api.Chat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, c := range f.chats {
		if c.ID == chatID {
			f.active = chatID
			f.chats[i].UnreadCount = 0
			return f.chats[i], nil
		}
	}
	return api.Chat{}, chat.ErrNotFound
}

func (f *fakeBackend) ListMessages(_ context.Context, chatID string) ([]api.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.messages[chatID], nil
}

func (f *fakeBackend) Send(_ context.Context, o api.Outgoing) (api.Message, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active == "" {
		return api.Message{}, false, nil
	}
	f.sent = append(f.sent, o)
	m := api.Message{ID: "new", ChatID: f.active, Content: o.Content, Status: "sending"}
	f.messages[f.active] = append(f.messages[f.active], m)
	return m, true, nil
}

func (f *fakeBackend) SetTyping(_ context.Context, typing bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing = append(f.typing, typing)
	return nil
}

func (f *fakeBackend) SetPresence(_ context.Context, presence string) (api.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.user.Status = presence
	return *f.user, nil
}

func (f *fakeBackend) Watch(ctx context.Context, _ string) (<-chan api.Event, func() error, error) {
	out := make(chan api.Event)
	go func() {
		defer close(out)
		for {
			select {
			case e := <-f.events:
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() error { return nil }, nil
}

func TestViewModelSignedOut(t *testing.T) {
	vm := NewViewModel(newFakeBackend())
	if err := vm.Refresh(context.Background()); err != nil {
		t.Fatal(err)
	}
	if vm.Whoami().SignedIn || vm.Chats() != nil {
		t.Errorf("signed-out model = %+v, %v", vm.Whoami(), vm.Chats())
	}
	select {
	case <-vm.RefreshCh():
	default:
		t.Error("Refresh did not signal")
	}
}

func TestViewModelLoginAndOpen(t *testing.T) {
	ctx := context.Background()
	vm := NewViewModel(newFakeBackend())

	if err := vm.Login(ctx, "john@example.com", "123"); !errors.Is(err, chat.ErrInvalidCredentials) {
		t.Fatalf("Login() error = %v", err)
	}
	if err := vm.Login(ctx, "john@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	if got := len(vm.Chats()); got != 2 {
		t.Fatalf("chats = %d, want 2", got)
	}
	active, ok := vm.Active()
	if !ok || active.ID != "chat-5" || len(vm.Messages()) != 1 {
		t.Errorf("active = %+v, %v; messages = %d", active, ok, len(vm.Messages()))
	}
	if vm.Unread() != 4 {
		t.Errorf("Unread() = %d, want 4", vm.Unread())
	}

	if err := vm.Open(ctx, "chat-3"); err != nil {
		t.Fatal(err)
	}
	active, _ = vm.Active()
	if active.ID != "chat-3" || active.UnreadCount != 0 || len(vm.Messages()) != 2 {
		t.Errorf("after Open active = %+v, messages = %d", active, len(vm.Messages()))
	}
	if err := vm.Open(ctx, "chat-404"); !errors.Is(err, chat.ErrNotFound) {
		t.Errorf("Open(missing) error = %v", err)
	}
}

func TestViewModelQueryKeepsActive(t *testing.T) {
	ctx := context.Background()
	vm := NewViewModel(newFakeBackend())
	if err := vm.Login(ctx, "john@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	if err := vm.SetQuery(ctx, "team"); err != nil {
		t.Fatal(err)
	}
	if len(vm.Chats()) != 1 || vm.Query() != "team" {
		t.Errorf("filtered chats = %+v", vm.Chats())
	}
	if active, ok := vm.Active(); !ok || active.ID != "chat-5" {
		t.Errorf("active chat lost by filter: %+v, %v", active, ok)
	}
	if c, ok := vm.FindChat("project"); !ok || c.ID != "chat-3" {
		t.Errorf("FindChat(project) = %+v, %v", c, ok)
	}
	if _, ok := vm.FindChat("nobody"); ok {
		t.Error("FindChat(nobody) matched")
	}
}

func TestViewModelSendAndLogout(t *testing.T) {
	ctx := context.Background()
	b := newFakeBackend()
	vm := NewViewModel(b)
	if ok, err := vm.Send(ctx, api.Outgoing{Content: "x"}); ok || err != nil {
		t.Errorf("Send() without chat = %v, %v", ok, err)
	}
	if err := vm.Login(ctx, "john@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	if ok, err := vm.Send(ctx, api.Outgoing{Content: "hello", Kind: "text"}); !ok || err != nil {
		t.Fatalf("Send() = %v, %v", ok, err)
	}
	msgs := vm.Messages()
	if last := msgs[len(msgs)-1]; last.Content != "hello" || last.Status != "sending" {
		t.Errorf("last message = %+v", last)
	}
	if err := vm.SetPresence(ctx, "away"); err != nil || vm.Whoami().User.Status != "away" {
		t.Errorf("SetPresence() = %v, status %q", err, vm.Whoami().User.Status)
	}
	if err := vm.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if vm.Whoami().SignedIn || len(vm.Messages()) != 0 {
		t.Error("state kept after Logout")
	}
}

func TestFollowRefreshesOnEvents(t *testing.T) {
	b := newFakeBackend()
	vm := NewViewModel(b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := vm.Login(ctx, "john@example.com", "secret"); err != nil {
		t.Fatal(err)
	}
	<-vm.RefreshCh()

	done := make(chan struct{})
	go func() {
		defer close(done)
		vm.Follow(ctx, 10*time.Millisecond, func(err error) { t.Errorf("Follow error: %v", err) })
	}()

	b.mu.Lock()
	b.chats[1].UnreadCount = 7
	b.mu.Unlock()
	b.events <- api.Event{Kind: "chat.updated", ChatID: "chat-3"}

	select {
	case <-vm.RefreshCh():
	case <-time.After(2 * time.Second):
		t.Fatal("no refresh after event")
	}
	if vm.Unread() != 10 {
		t.Errorf("Unread() = %d, want 10", vm.Unread())
	}
	cancel()
	<-done
}

func TestTypingNotifier(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	var reports []bool
	n := NewTypingNotifier(clk, 2*time.Second, func(typing bool) { reports = append(reports, typing) })

	n.Keystroke()
	clk.Advance(time.Second)
	n.Keystroke()
	clk.Advance(1500 * time.Millisecond)
	if !n.Typing() || len(reports) != 1 || !reports[0] {
		t.Fatalf("after two keystrokes reports = %v, typing = %v", reports, n.Typing())
	}
	clk.Advance(time.Second)
	if n.Typing() || len(reports) != 2 || reports[1] {
		t.Fatalf("after idle reports = %v", reports)
	}

	n.Keystroke()
	n.Done()
	n.Done()
	if want := []bool{true, false, true, false}; !slices.Equal(reports, want) {
		t.Errorf("reports = %v, want %v", reports, want)
	}
	if clk.Pending() != 0 {
		t.Errorf("pending timers = %d, want 0", clk.Pending())
	}
}

func TestTypingNotifierRefreshesLongTyping(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	var reports []bool
	n := NewTypingNotifier(clk, 2*time.Second, func(typing bool) { reports = append(reports, typing) })

	// Typing steadily for 6s outlasts the daemon's 5s expiry.
	for i := 0; i <= 12; i++ {
		n.Keystroke()
		clk.Advance(500 * time.Millisecond)
	}
	n.Done()

	if want := []bool{true, true, true, true, false}; !slices.Equal(reports, want) {
		t.Errorf("reports = %v, want %v", reports, want)
	}
}
