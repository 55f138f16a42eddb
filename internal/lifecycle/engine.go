package lifecycle

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/matheus3301/mockchat/internal/conversation"
	"github.com/matheus3301/mockchat/internal/status"
	"go.uber.org/zap"
)

// Config holds the simulated acknowledgment delays and payload limits.
type Config struct {
	SentDelay      time.Duration // accepted by the (simulated) network
	DeliveredDelay time.Duration // received by the (simulated) recipient
	ImageMaxBytes  int64
	FileMaxBytes   int64
}

// DefaultConfig matches the demo's simulation policy.
func DefaultConfig() Config {
	return Config{
		SentDelay:      time.Second,
		DeliveredDelay: 2 * time.Second,
		ImageMaxBytes:  10 << 20,
		FileMaxBytes:   25 << 20,
	}
}

// Draft is a message before it has an id, timestamp and status.
type Draft struct {
	ChatID     string
	SenderID   string
	Content    string
	Kind       chat.MessageKind
	Attachment *chat.Attachment
}

// Engine creates messages and drives them through
// sending -> sent -> delivered. Deferred transitions are scheduled on a
// clock.Clock; a transition whose chat or message has left scope is dropped.
type Engine struct {
	store  *conversation.Store
	clock  clock.Clock
	logger *zap.Logger
	cfg    Config
	newID  func() string

	mu      sync.Mutex
	pending map[string]map[string]*pendingMsg
}

type pendingMsg struct {
	timers []clock.Timer
	left   int
}

// NewEngine creates a lifecycle engine writing to store.
func NewEngine(store *conversation.Store, c clock.Clock, logger *zap.Logger, cfg Config) *Engine {
	if c == nil {
		c = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DeliveredDelay < cfg.SentDelay {
		cfg.DeliveredDelay = cfg.SentDelay
	}
	return &Engine{
		store:   store,
		clock:   c,
		logger:  logger,
		cfg:     cfg,
		newID:   func() string { return "msg-" + uuid.NewString() },
		pending: make(map[string]map[string]*pendingMsg),
	}
}

// Send validates and appends an outgoing message with status sending, then
// schedules the sent and delivered acknowledgments.
func (e *Engine) Send(d Draft) (chat.Message, error) {
	m, err := e.build(d, status.Sending)
	if err != nil {
		return chat.Message{}, err
	}
	if err := e.store.AppendMessage(d.ChatID, m); err != nil {
		return chat.Message{}, err
	}
	m.ChatID = d.ChatID

	e.schedule(d.ChatID, m.ID, []transition{
		{to: status.Sent, after: e.cfg.SentDelay},
		{to: status.Delivered, after: e.cfg.DeliveredDelay},
	})
	e.logger.Info("message sent",
		zap.String("chat_id", d.ChatID),
		zap.String("msg_id", m.ID),
		zap.String("kind", string(m.Kind)),
	)
	return m, nil
}

// Receive appends an inbound message from another participant. It arrives
// already delivered; opts decide whether it counts as unread.
func (e *Engine) Receive(d Draft, opts ...conversation.AppendOption) (chat.Message, error) {
	m, err := e.build(d, status.Delivered)
	if err != nil {
		return chat.Message{}, err
	}
	if err := e.store.AppendMessage(d.ChatID, m, opts...); err != nil {
		return chat.Message{}, err
	}
	m.ChatID = d.ChatID
	e.logger.Debug("message received", zap.String("chat_id", d.ChatID), zap.String("msg_id", m.ID))
	return m, nil
}

// Acknowledge applies an externally observed transition, e.g. a receipt from
// a real transport. Repeats are no-ops; regressions fail.
func (e *Engine) Acknowledge(chatID, msgID string, to status.State) error {
	_, err := e.store.AdvanceStatus(chatID, msgID, to)
	return err
}

// Cancel stops the pending transitions of every message in chatID.
func (e *Engine) Cancel(chatID string) int {
	e.mu.Lock()
	msgs := e.pending[chatID]
	delete(e.pending, chatID)
	e.mu.Unlock()

	n := 0
	for _, p := range msgs {
		for _, t := range p.timers {
			if t.Stop() {
				n++
			}
		}
	}
	return n
}

// Forget removes a chat from scope and cancels its pending transitions.
func (e *Engine) Forget(chatID string) error {
	e.Cancel(chatID)
	return e.store.Remove(chatID)
}

// Stop cancels every pending transition.
func (e *Engine) Stop() {
	e.mu.Lock()
	chats := make([]string, 0, len(e.pending))
	for id := range e.pending {
		chats = append(chats, id)
	}
	e.mu.Unlock()
	for _, id := range chats {
		e.Cancel(id)
	}
}

// Pending returns the number of messages with transitions still scheduled.
func (e *Engine) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, msgs := range e.pending {
		n += len(msgs)
	}
	return n
}

type transition struct {
	to    status.State
	after time.Duration
}

func (e *Engine) schedule(chatID, msgID string, steps []transition) {
	e.mu.Lock()
	defer e.mu.Unlock()

	p := &pendingMsg{left: len(steps)}
	for _, step := range steps {
		p.timers = append(p.timers, e.clock.AfterFunc(step.after, func() {
			e.fire(chatID, msgID, step.to)
		}))
	}
	if e.pending[chatID] == nil {
		e.pending[chatID] = make(map[string]*pendingMsg)
	}
	e.pending[chatID][msgID] = p
}

func (e *Engine) fire(chatID, msgID string, to status.State) {
	e.mu.Lock()
	if p, ok := e.pending[chatID][msgID]; ok {
		p.left--
		if p.left <= 0 {
			delete(e.pending[chatID], msgID)
			if len(e.pending[chatID]) == 0 {
				delete(e.pending, chatID)
			}
		}
	}
	e.mu.Unlock()

	changed, err := e.store.AdvanceStatus(chatID, msgID, to)
	switch {
	case conversation.IsNotFound(err):
		e.logger.Debug("transition target gone", zap.String("chat_id", chatID), zap.String("msg_id", msgID), zap.String("to", string(to)))
	case errors.Is(err, status.ErrInvalidTransition):
		// Already past this state, e.g. read before the delivery receipt.
		e.logger.Debug("transition superseded", zap.String("msg_id", msgID), zap.String("to", string(to)))
	case err != nil:
		e.logger.Error("transition failed", zap.Error(err), zap.String("msg_id", msgID))
	case changed:
		e.logger.Debug("message advanced", zap.String("msg_id", msgID), zap.String("to", string(to)))
	}
}

func (e *Engine) build(d Draft, st status.State) (chat.Message, error) {
	kind := d.Kind
	if kind == "" {
		kind = chat.Text
	}
	if _, err := chat.ParseMessageKind(string(kind)); err != nil {
		return chat.Message{}, err
	}
	content := d.Content
	if kind == chat.Text {
		content = strings.TrimSpace(content)
	}
	if content == "" {
		return chat.Message{}, &chat.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if err := e.checkSize(kind, content, d.Attachment); err != nil {
		return chat.Message{}, err
	}

	m := chat.Message{
		ID:        e.newID(),
		ChatID:    d.ChatID,
		SenderID:  d.SenderID,
		Content:   content,
		Kind:      kind,
		Timestamp: e.clock.Now(),
		Status:    st,
	}
	if d.Attachment != nil && kind != chat.Text {
		a := *d.Attachment
		m.Attachment = &a
	}
	return m, nil
}

func (e *Engine) checkSize(kind chat.MessageKind, content string, a *chat.Attachment) error {
	size := int64(len(content))
	if a != nil {
		if a.FileSize < 0 {
			return &chat.ValidationError{Field: "file_size", Reason: "negative"}
		}
		// A declared size never shrinks the payload actually carried.
		size = max(size, a.FileSize)
	}
	switch kind {
	case chat.Image:
		if e.cfg.ImageMaxBytes > 0 && size > e.cfg.ImageMaxBytes {
			return &chat.ValidationError{Field: "attachment", Reason: "image exceeds size limit"}
		}
	case chat.File:
		if e.cfg.FileMaxBytes > 0 && size > e.cfg.FileMaxBytes {
			return &chat.ValidationError{Field: "attachment", Reason: "file exceeds size limit"}
		}
	}
	return nil
}
