package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData is what the header shows about the daemon and its user.
type SessionData struct {
	Profile  string
	User     string
	Presence string
	Chats    int
	Unread   int
	Uptime   time.Duration
}

// SessionInfo displays profile and user metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.Clear()
	if data == nil {
		return
	}

	fg := ColorTag(si.theme.FgColor)
	val := ColorTag(si.theme.CounterColor)

	user := data.User
	if user == "" {
		user = "-"
	}
	presence := "signed out"
	presenceColor := ColorTag(si.theme.PresenceColor(""))
	if data.Presence != "" {
		presence = data.Presence
		presenceColor = ColorTag(si.theme.PresenceColor(data.Presence))
	}

	text := fmt.Sprintf(
		"[%s::b]Profile:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Status:[-:-:-]  [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-]\n"+
			"[%s::b]Unread:[-:-:-]  [%s]%d[-]\n"+
			"[%s::b]Uptime:[-:-:-]  [%s]%s[-]",
		fg, val, tview.Escape(data.Profile),
		fg, val, tview.Escape(user),
		fg, presenceColor, presence,
		fg, val, data.Chats,
		fg, val, data.Unread,
		fg, val, formatDuration(data.Uptime),
	)

	_, _ = fmt.Fprint(si, text)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
