package ui

import (
	"errors"
	"sync"
	"time"

	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/rivo/tview"
)

// FlashLevel is the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

var flashTTL = [...]time.Duration{
	FlashInfo: 5 * time.Second,
	FlashWarn: 8 * time.Second,
	FlashErr:  10 * time.Second,
}

// FlashMessage is one status bar notification.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// FlashModel holds the latest notification until it expires. It is safe for
// use from the goroutines that run daemon calls.
type FlashModel struct {
	mu      sync.Mutex
	clock   clock.Clock
	current FlashMessage
	watchCh chan FlashMessage
}

// NewFlashModel creates a flash model. A nil clock means wall time.
func NewFlashModel(c clock.Clock) *FlashModel {
	if c == nil {
		c = clock.New()
	}
	return &FlashModel{clock: c, watchCh: make(chan FlashMessage, 8)}
}

func (f *FlashModel) Info(msg string) { f.set(msg, FlashInfo) }

func (f *FlashModel) Warn(msg string) { f.set(msg, FlashWarn) }

// Err shows err as DescribeError words it.
func (f *FlashModel) Err(err error) { f.set(DescribeError(err), FlashErr) }

func (f *FlashModel) set(msg string, level FlashLevel) {
	fm := FlashMessage{Text: msg, Level: level, Expires: f.clock.Now().Add(flashTTL[level])}
	f.mu.Lock()
	f.current = fm
	f.mu.Unlock()
	select {
	case f.watchCh <- fm:
	default:
	}
}

// Current returns the live message, if any.
func (f *FlashModel) Current() (FlashMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.current.Text == "" || f.clock.Now().After(f.current.Expires) {
		return FlashMessage{}, false
	}
	return f.current, true
}

// Watch delivers every message as it is set. Messages are dropped when the
// reader falls behind.
func (f *FlashModel) Watch() <-chan FlashMessage {
	return f.watchCh
}

// DescribeError words a daemon error for the status bar.
func DescribeError(err error) string {
	var verr *chat.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.Is(err, chat.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, chat.ErrDuplicateIdentity):
		return "That email is already registered"
	case errors.Is(err, chat.ErrNotAuthenticated):
		return "Sign in first"
	case errors.Is(err, chat.ErrInvalidSender):
		return "You are not a member of this chat"
	case errors.Is(err, api.ErrRateLimited):
		return "Too many requests, slow down"
	case errors.Is(err, api.ErrUnavailable):
		return "Daemon is not reachable"
	}
	return err.Error()
}

// FlashBar shows the current flash message.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates the one-line notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Show draws the model's live message, or clears the bar.
func (fb *FlashBar) Show(f *FlashModel) {
	msg, ok := f.Current()
	if !ok {
		fb.SetText("")
		return
	}
	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case FlashWarn:
		color = fb.theme.FlashWarnColor
	case FlashErr:
		color = fb.theme.FlashErrColor
	}
	fb.SetText(" [" + ColorTag(color) + "]" + tview.Escape(msg.Text) + "[-]")
}
