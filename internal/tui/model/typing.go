package model

import (
	"sync"
	"time"

	"github.com/matheus3301/mockchat/internal/clock"
)

const (
	// DefaultTypingIdle is how long after the last keystroke typing stops.
	DefaultTypingIdle = 2 * time.Second
	// DefaultTypingRefresh is how often continuous typing is reported again.
	// It stays under half of the daemon's 5s typing timeout.
	DefaultTypingRefresh = 2 * time.Second
)

// TypingNotifier turns composer keystrokes into typing on/off reports. The
// first keystroke reports true, and so does a keystroke once the refresh
// interval has passed since the last report. Idle time without input, a send
// or leaving the chat reports false.
type TypingNotifier struct {
	mu       sync.Mutex
	clock    clock.Clock
	idle     time.Duration
	refresh  time.Duration
	report   func(typing bool)
	timer    clock.Timer
	gen      uint64
	typing   bool
	reported time.Time
}

// NewTypingNotifier creates a notifier. report is called outside the lock.
func NewTypingNotifier(c clock.Clock, idle time.Duration, report func(typing bool)) *TypingNotifier {
	if c == nil {
		c = clock.New()
	}
	if idle <= 0 {
		idle = DefaultTypingIdle
	}
	return &TypingNotifier{clock: c, idle: idle, refresh: DefaultTypingRefresh, report: report}
}

// Keystroke records input in the composer.
func (t *TypingNotifier) Keystroke() {
	t.mu.Lock()
	now := t.clock.Now()
	send := !t.typing || now.Sub(t.reported) >= t.refresh
	t.typing = true
	if send {
		t.reported = now
	}
	if t.timer != nil {
		t.timer.Stop()
	}
	t.gen++
	gen := t.gen
	t.timer = t.clock.AfterFunc(t.idle, func() { t.expire(gen) })
	t.mu.Unlock()

	if send {
		t.report(true)
	}
}

// Done ends typing now, e.g. after a send.
func (t *TypingNotifier) Done() {
	t.mu.Lock()
	was := t.typing
	t.typing = false
	t.gen++
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if was {
		t.report(false)
	}
}

// Typing reports whether the last report was true.
func (t *TypingNotifier) Typing() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.typing
}

func (t *TypingNotifier) expire(gen uint64) {
	t.mu.Lock()
	// A later keystroke or Done superseded this timer.
	if t.gen != gen || !t.typing {
		t.mu.Unlock()
		return
	}
	t.typing = false
	t.timer = nil
	t.mu.Unlock()

	t.report(false)
}
