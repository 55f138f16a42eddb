package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// menuRows is the number of hints per column; it matches the header height.
const menuRows = 5

// Menu lays out the key hints of the current page in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates the hint area of the header.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	return &Menu{TextView: tv, theme: theme}
}

// Update redraws the hints, filling each column top to bottom.
func (m *Menu) Update(hints []MenuHint) {
	m.SetText(layoutHints(hints, m.theme))
}

func layoutHints(hints []MenuHint, theme *Theme) string {
	cols := (len(hints) + menuRows - 1) / menuRows
	width := make([]int, cols)
	for i, h := range hints {
		width[i/menuRows] = max(width[i/menuRows], len(h.Key)+len(h.Description)+3)
	}

	var b strings.Builder
	for row := 0; row < min(menuRows, len(hints)); row++ {
		for col := 0; col < cols; col++ {
			i := col*menuRows + row
			if i >= len(hints) {
				break
			}
			h := hints[i]
			color := theme.MenuKeyColor
			if h.Numeric {
				color = theme.NumericKeyColor
			}
			pad := width[col] - len(h.Key) - len(h.Description) - 3
			fmt.Fprintf(&b, "[%s::b]<%s>[-:-:-] %s%s  ", ColorTag(color), h.Key, h.Description, strings.Repeat(" ", pad))
		}
		b.WriteString("\n")
	}
	return b.String()
}
