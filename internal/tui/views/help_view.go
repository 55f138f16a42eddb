package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/mockchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// FocusTarget implements Component.
func (hv *HelpView) FocusTarget() tview.Primitive { return hv }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

func (hv *HelpView) render() {
	kc := ui.ColorTag(hv.theme.MenuKeyColor)

	sections := []struct {
		title string
		rows  [][2]string
	}{
		{"Global Keys", [][2]string{
			{":", "Command mode"},
			{"Esc", "Cancel / Go back"},
			{"?", "Help"},
			{"q", "Quit"},
			{"Ctrl-C", "Quit immediately"},
		}},
		{"Conversation List", [][2]string{
			{"Enter", "Open conversation"},
			{"/", "Filter by name"},
			{"0", "Clear filter"},
			{"1-9", "Open Nth chat"},
			{"p", "Cycle presence"},
			{"j/k", "Move down / up"},
		}},
		{"Message Thread", [][2]string{
			{"i", "Focus composer"},
			{"d", "Conversation details"},
			{"Enter", "Send message (in composer)"},
			{"Esc", "Leave composer"},
		}},
		{"Commands (: mode)", [][2]string{
			{":chat <name>", "Open chat by name"},
			{":presence <s>", "online, away or offline"},
			{":image <url>", "Send a photo"},
			{":file <name> <bytes>", "Send a file"},
			{":voice", "Send a voice message"},
			{":logout", "Sign out"},
			{":help, :h", "Show this help"},
			{":quit, :q", "Quit application"},
		}},
	}

	var b strings.Builder
	for _, sec := range sections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", sec.title)
		for _, r := range sec.rows {
			fmt.Fprintf(&b, "  [%s]%-22s[-:-:-] %s\n", kc, tview.Escape(r[0]), r[1])
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
}
