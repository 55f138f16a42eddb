package presence

import (
	"errors"
	"sync"
	"time"

	"github.com/matheus3301/mockchat/internal/bus"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/conversation"
	"go.uber.org/zap"
)

// Directory updates the stored presence of a user.
type Directory interface {
	SetStatus(userID string, p chat.Presence, at time.Time) (chat.User, error)
}

// Aggregator owns typing indicators and user presence. Typing entries expire
// after the configured timeout unless refreshed or cleared first.
type Aggregator struct {
	store   *conversation.Store
	dir     Directory
	clock   clock.Clock
	bus     *bus.Bus
	logger  *zap.Logger
	timeout time.Duration

	mu     sync.Mutex
	gen    uint64
	expiry map[typingKey]expiryTimer
}

// expiryTimer pairs a timer with the generation it was armed in, so a
// callback that lost the race to a refresh can tell it is stale.
type expiryTimer struct {
	timer clock.Timer
	gen   uint64
}

type typingKey struct {
	chatID string
	userID string
}

// NewAggregator creates an aggregator. A zero timeout disables expiry.
func NewAggregator(store *conversation.Store, dir Directory, c clock.Clock, b *bus.Bus, logger *zap.Logger, timeout time.Duration) *Aggregator {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{
		store:   store,
		dir:     dir,
		clock:   c,
		bus:     b,
		logger:  logger,
		timeout: timeout,
		expiry:  make(map[typingKey]expiryTimer),
	}
}

// SetTyping adds or removes userID from the chat's typing set. Users who are
// not participants are rejected with chat.ErrInvalidSender. Starting to type
// again refreshes the expiry.
func (a *Aggregator) SetTyping(chatID, userID string, typing bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.store.SetTyping(chatID, userID, typing); err != nil {
		return err
	}

	key := typingKey{chatID: chatID, userID: userID}
	if e, ok := a.expiry[key]; ok {
		e.timer.Stop()
		delete(a.expiry, key)
	}
	if typing && a.timeout > 0 {
		a.gen++
		gen := a.gen
		a.expiry[key] = expiryTimer{
			timer: a.clock.AfterFunc(a.timeout, func() { a.expire(key, gen) }),
			gen:   gen,
		}
	}
	return nil
}

// SetUserStatus records a presence change and refreshes lastSeen.
func (a *Aggregator) SetUserStatus(userID string, p chat.Presence) (chat.User, error) {
	if !p.Valid() {
		return chat.User{}, &chat.ValidationError{Field: "status", Reason: "unknown presence " + string(p)}
	}
	now := a.clock.Now()
	u, err := a.dir.SetStatus(userID, p, now)
	if err != nil {
		return chat.User{}, err
	}
	a.bus.Publish(bus.Event{Kind: bus.PresenceChanged, Timestamp: now, UserID: userID, Payload: p})
	return u, nil
}

// ClearUser stops every typing indicator of userID, e.g. on sign-out.
func (a *Aggregator) ClearUser(userID string) {
	a.mu.Lock()
	var keys []typingKey
	for k, e := range a.expiry {
		if k.userID == userID {
			e.timer.Stop()
			delete(a.expiry, k)
			keys = append(keys, k)
		}
	}
	a.mu.Unlock()

	for _, k := range keys {
		_, _ = a.store.SetTyping(k.chatID, k.userID, false)
	}
}

// Stop cancels every pending expiry.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for k, e := range a.expiry {
		e.timer.Stop()
		delete(a.expiry, k)
	}
}

func (a *Aggregator) expire(key typingKey, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cur, ok := a.expiry[key]; !ok || cur.gen != gen {
		return
	}
	delete(a.expiry, key)

	_, err := a.store.SetTyping(key.chatID, key.userID, false)
	if err != nil && !errors.Is(err, chat.ErrNotFound) {
		a.logger.Warn("typing expiry failed", zap.Error(err), zap.String("chat_id", key.chatID))
	}
}
