package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// FocusTarget implements Component.
func (ci *ConversationInfo) FocusTarget() tview.Primitive { return ci }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
		{Key: ":", Description: "Command"},
		{Key: "?", Description: "Help"},
	}
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(c *api.Chat) {
	ci.Clear()
	if c == nil {
		return
	}
	_, _ = fmt.Fprint(ci, renderInfo(c, ci.theme, time.Now()))
	ci.SetTitle(fmt.Sprintf(" %s Details ", tview.Escape(c.Name)))
}

func renderInfo(c *api.Chat, theme *ui.Theme, now time.Time) string {
	fg := ui.ColorTag(theme.FgColor)
	ct := ui.ColorTag(theme.CounterColor)

	kind := "Direct Message"
	if c.Kind == "group" {
		kind = "Group"
	}
	lastActive := formatTimestamp(c.UpdatedAt, now)
	if lastActive == "" {
		lastActive = "-"
	}
	typing := c.Typing
	if typing == "" {
		typing = "-"
	}

	rows := [][2]string{
		{"Name:", c.Name},
		{"ID:", c.ID},
		{"Type:", kind},
		{"Members:", fmt.Sprint(len(c.Participants))},
		{"Unread:", fmt.Sprint(c.UnreadCount)},
		{"Last Active:", lastActive},
		{"Last Message:", c.Preview},
		{"Typing:", typing},
	}
	if c.Description != "" {
		rows = append(rows, [2]string{"Description:", c.Description})
	}

	var b strings.Builder
	b.WriteString("\n")
	for _, r := range rows {
		fmt.Fprintf(&b, " [%s::b]%-13s[-:-:-] [%s]%s[-]\n", fg, r[0], ct, tview.Escape(sanitizeForTerminal(r[1])))
	}
	return b.String()
}
