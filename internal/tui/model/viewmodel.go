package model

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/chat"
)

// Backend is the part of the daemon client the TUI uses.
type Backend interface {
	Whoami(ctx context.Context) (api.Whoami, error)
	Login(ctx context.Context, email, password string) (api.User, error)
	Register(ctx context.Context, name, email, password string) (api.User, error)
	Logout(ctx context.Context) error
	ListChats(ctx context.Context, query string) ([]api.Chat, error)
	SelectChat(ctx context.Context, chatID string) (api.Chat, error)
	ListMessages(ctx context.Context, chatID string) ([]api.Message, error)
	Send(ctx context.Context, o api.Outgoing) (api.Message, bool, error)
	SetTyping(ctx context.Context, typing bool) error
	SetPresence(ctx context.Context, presence string) (api.User, error)
	Watch(ctx context.Context, prefix string) (<-chan api.Event, func() error, error)
}

// ViewModel caches what the daemon reports and signals UI refreshes.
type ViewModel struct {
	mu sync.RWMutex

	client   Backend
	whoami   api.Whoami
	chats    []api.Chat
	active   *api.Chat
	messages []api.Message
	query    string

	refreshCh chan struct{}
}

// NewViewModel creates a new view model connected to the daemon client.
func NewViewModel(c Backend) *ViewModel {
	return &ViewModel{
		client:    c,
		refreshCh: make(chan struct{}, 1),
	}
}

// RefreshCh returns the channel that signals UI refresh.
func (vm *ViewModel) RefreshCh() <-chan struct{} {
	return vm.refreshCh
}

func (vm *ViewModel) signalRefresh() {
	select {
	case vm.refreshCh <- struct{}{}:
	default:
	}
}

// Refresh reloads the signed-in user, the chat list and the open thread.
func (vm *ViewModel) Refresh(ctx context.Context) error {
	who, err := vm.client.Whoami(ctx)
	if err != nil {
		return err
	}
	if !who.SignedIn {
		vm.mu.Lock()
		vm.whoami = who
		vm.chats, vm.active, vm.messages = nil, nil, nil
		vm.mu.Unlock()
		vm.signalRefresh()
		return nil
	}

	vm.mu.RLock()
	query := vm.query
	vm.mu.RUnlock()
	chats, err := vm.client.ListChats(ctx, query)
	if err != nil {
		return err
	}
	var msgs []api.Message
	if who.ActiveChatID != "" {
		if msgs, err = vm.client.ListMessages(ctx, who.ActiveChatID); err != nil && !errors.Is(err, chat.ErrNotFound) {
			return err
		}
	}

	vm.mu.Lock()
	vm.whoami = who
	vm.chats = chats
	vm.messages = msgs
	vm.active = nil
	for i := range chats {
		if chats[i].ID == who.ActiveChatID {
			c := chats[i]
			vm.active = &c
		}
	}
	// The active chat can be filtered out of the list.
	if vm.active == nil && who.ActiveChatID != "" {
		vm.active = &api.Chat{ID: who.ActiveChatID}
	}
	vm.mu.Unlock()
	vm.signalRefresh()
	return nil
}

// Login signs in and reloads everything.
func (vm *ViewModel) Login(ctx context.Context, email, password string) error {
	if _, err := vm.client.Login(ctx, email, password); err != nil {
		return err
	}
	return vm.Refresh(ctx)
}

// Register creates an account, signs in as it and reloads everything.
func (vm *ViewModel) Register(ctx context.Context, name, email, password string) error {
	if _, err := vm.client.Register(ctx, name, email, password); err != nil {
		return err
	}
	return vm.Refresh(ctx)
}

// Logout signs out.
func (vm *ViewModel) Logout(ctx context.Context) error {
	if err := vm.client.Logout(ctx); err != nil {
		return err
	}
	return vm.Refresh(ctx)
}

// Open makes chatID the active chat, which marks it read.
func (vm *ViewModel) Open(ctx context.Context, chatID string) error {
	if _, err := vm.client.SelectChat(ctx, chatID); err != nil {
		return err
	}
	return vm.Refresh(ctx)
}

// SetQuery filters the chat list by display name.
func (vm *ViewModel) SetQuery(ctx context.Context, query string) error {
	vm.mu.Lock()
	vm.query = query
	vm.mu.Unlock()
	return vm.Refresh(ctx)
}

// Send posts o to the active chat. It reports false when no chat is open.
func (vm *ViewModel) Send(ctx context.Context, o api.Outgoing) (bool, error) {
	_, ok, err := vm.client.Send(ctx, o)
	if err != nil || !ok {
		return ok, err
	}
	return true, vm.Refresh(ctx)
}

// SetPresence changes the signed-in user's status.
func (vm *ViewModel) SetPresence(ctx context.Context, presence string) error {
	if _, err := vm.client.SetPresence(ctx, presence); err != nil {
		return err
	}
	return vm.Refresh(ctx)
}

// SetTyping reports whether the signed-in user is typing in the active chat.
func (vm *ViewModel) SetTyping(ctx context.Context, typing bool) error {
	return vm.client.SetTyping(ctx, typing)
}

// Follow refreshes the model whenever the daemon publishes an event, until
// ctx is done. A broken stream is reopened after retry.
func (vm *ViewModel) Follow(ctx context.Context, retry time.Duration, onErr func(error)) {
	for ctx.Err() == nil {
		events, wait, err := vm.client.Watch(ctx, "")
		if err == nil {
			for range events {
				// Coalesce bursts, e.g. one send emits several events.
				drain(events)
				if err := vm.Refresh(ctx); err != nil && ctx.Err() == nil {
					onErr(err)
				}
			}
			err = wait()
		}
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			onErr(err)
		}
		select {
		case <-time.After(retry):
		case <-ctx.Done():
			return
		}
	}
}

func drain(ch <-chan api.Event) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Whoami returns the last known daemon and user state.
func (vm *ViewModel) Whoami() api.Whoami {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.whoami
}

// Chats returns a snapshot of the current chat list.
func (vm *ViewModel) Chats() []api.Chat {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.chats
}

// Active returns the open chat, if any.
func (vm *ViewModel) Active() (api.Chat, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	if vm.active == nil {
		return api.Chat{}, false
	}
	return *vm.active, true
}

// Messages returns a snapshot of the open chat's messages.
func (vm *ViewModel) Messages() []api.Message {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.messages
}

// Query returns the active chat list filter.
func (vm *ViewModel) Query() string {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	return vm.query
}

// Unread sums the unread counts of the listed chats.
func (vm *ViewModel) Unread() int {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	n := 0
	for _, c := range vm.chats {
		n += c.UnreadCount
	}
	return n
}

// FindChat returns the first listed chat whose name contains name, ignoring case.
func (vm *ViewModel) FindChat(name string) (api.Chat, bool) {
	vm.mu.RLock()
	defer vm.mu.RUnlock()
	for _, c := range vm.chats {
		if c.ID == name {
			return c, true
		}
	}
	for _, c := range vm.chats {
		if containsFold(c.Name, name) {
			return c, true
		}
	}
	return api.Chat{}, false
}
