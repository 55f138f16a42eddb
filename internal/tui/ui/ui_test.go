package ui

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/chat"
	"github.com/matheus3301/mockchat/internal/clock"
	"github.com/rivo/tview"
)

func TestFlashExpiry(t *testing.T) {
	clk := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	f := NewFlashModel(clk)

	if _, ok := f.Current(); ok {
		t.Fatal("new model has a message")
	}
	f.Info("sent")
	if m, ok := f.Current(); !ok || m.Text != "sent" {
		t.Fatalf("Current() = %+v %v, want sent", m, ok)
	}
	f.Err(errors.New("boom"))
	if m, _ := f.Current(); m.Level != FlashErr || m.Text != "boom" {
		t.Fatalf("Current() = %+v", m)
	}
	clk.Advance(9 * time.Second)
	if _, ok := f.Current(); !ok {
		t.Error("error flash expired before its 10s")
	}
	clk.Advance(2 * time.Second)
	if _, ok := f.Current(); ok {
		t.Error("flash did not expire")
	}

	select {
	case m := <-f.Watch():
		if m.Text != "sent" {
			t.Errorf("first watched flash = %q", m.Text)
		}
	default:
		t.Error("Watch() delivered nothing")
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("login: %w", chat.ErrInvalidCredentials), "Invalid email or password"},
		{chat.ErrNotAuthenticated, "Sign in first"},
		{fmt.Errorf("%w: slow", api.ErrRateLimited), "Too many requests, slow down"},
		{&chat.ValidationError{Field: "password", Reason: "too short"}, (&chat.ValidationError{Field: "password", Reason: "too short"}).Error()},
		{errors.New("disk full"), "disk full"},
	}
	for _, tt := range tests {
		if got := DescribeError(tt.err); got != tt.want {
			t.Errorf("DescribeError(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

type page struct {
	*tview.Box
	name string
}

func (p page) Name() string                  { return p.name }
func (p page) Hints() []MenuHint             { return []MenuHint{{Key: "q", Description: p.name}} }
func (p page) FocusTarget() tview.Primitive { return p.Box }

func TestPagesStack(t *testing.T) {
	p := NewPages()
	for _, name := range []string{"login", "list", "thread"} {
		p.Add(name, page{Box: tview.NewBox(), name: strings.ToUpper(name)})
	}
	var tops []string
	var crumbs [][]string
	p.SetOnChange(func(top Component, c []string) {
		tops = append(tops, top.Name())
		crumbs = append(crumbs, c)
	})

	if _, ok := p.Pop(); ok {
		t.Error("Pop on an empty stack succeeded")
	}
	p.Reset("list")
	if !p.Push("thread") || p.Push("thread") || p.Push("nope") {
		t.Error("Push should only accept known pages not already on top")
	}
	if !slices.Equal(p.Crumbs(), []string{"LIST", "THREAD"}) {
		t.Fatalf("Crumbs() = %v", p.Crumbs())
	}
	if name, ok := p.Pop(); !ok || name != "thread" || p.Current() != "list" {
		t.Errorf("Pop() = %q %v, current %q", name, ok, p.Current())
	}
	if _, ok := p.Pop(); ok || p.Depth() != 1 {
		t.Error("root page was popped")
	}
	p.Reset("login")
	if top, ok := p.Top(); !ok || top.Name() != "LOGIN" {
		t.Errorf("Top() = %v", top)
	}
	if !slices.Equal(tops, []string{"LIST", "THREAD", "LIST", "LOGIN"}) {
		t.Errorf("onChange tops = %v", tops)
	}
	if !slices.Equal(crumbs[1], []string{"LIST", "THREAD"}) {
		t.Errorf("crumbs on push = %v", crumbs[1])
	}
}

func TestMenuLayout(t *testing.T) {
	var hints []MenuHint
	for i := range 7 {
		hints = append(hints, MenuHint{Key: fmt.Sprint(i + 1), Description: "Chat", Numeric: true})
	}
	lines := strings.Split(strings.TrimSuffix(layoutHints(hints, DefaultTheme()), "\n"), "\n")
	if len(lines) != menuRows {
		t.Fatalf("got %d rows, want %d", len(lines), menuRows)
	}
	if !strings.Contains(lines[0], "<1>") || !strings.Contains(lines[0], "<6>") {
		t.Errorf("first row = %q, want hints 1 and 6", lines[0])
	}
	if strings.Contains(lines[4], "<10>") || !strings.Contains(lines[4], "<5>") {
		t.Errorf("last row = %q", lines[4])
	}
	if layoutHints(nil, DefaultTheme()) != "" {
		t.Error("no hints should render nothing")
	}
}

func TestPromptHistory(t *testing.T) {
	p := NewPrompt(DefaultTheme())
	var got []string
	p.SetOnSubmit(func(mode PromptMode, text string) {
		got = append(got, fmt.Sprintf("%d:%s", mode, text))
	})

	for _, cmd := range []string{"chat team", "chat team", "presence away", ""} {
		p.Activate(PromptCommand, cmd)
		p.done(tcell.KeyEnter)
	}
	if !slices.Equal(p.History(), []string{"chat team", "presence away"}) {
		t.Errorf("History() = %v", p.History())
	}

	p.Activate(PromptCommand, "")
	p.capture(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	p.capture(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))
	if p.GetText() != "chat team" {
		t.Errorf("after two Up text = %q", p.GetText())
	}
	p.capture(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	p.capture(tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone))
	if p.GetText() != "" {
		t.Errorf("after Down past the end text = %q", p.GetText())
	}

	p.Activate(PromptFilter, "team")
	p.SetText("")
	p.done(tcell.KeyEnter)
	want := []string{"0:chat team", "0:chat team", "0:presence away", "1:"}
	if !slices.Equal(got, want) {
		t.Errorf("submissions = %v, want %v", got, want)
	}
}

func TestPresenceColor(t *testing.T) {
	th := DefaultTheme()
	tests := map[string]bool{"online": true, "away": true, "offline": false, "": false}
	for presence, distinct := range tests {
		got := th.PresenceColor(presence)
		if distinct == (got == th.OfflineColor) {
			t.Errorf("PresenceColor(%q) = %v", presence, got)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m"},
		{59 * time.Minute, "59m"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
