package ui

import (
	"strings"

	"github.com/rivo/tview"
)

var logoArt = []string{
	` ╔╦╗╔═╗╔═╗╦ ╦`,
	` ║║║║  ╠═╣ ║ `,
	` ╩ ╩╚═╝╩ ╩ ╩ `,
}

const logoTagline = "mock chat client"

// Logo is the header's right-hand banner.
type Logo struct {
	*tview.TextView
}

// NewLogo draws the banner in the theme's title color.
func NewLogo(theme *Theme) *Logo {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(1, 0, 1, 0)

	var b strings.Builder
	for _, line := range logoArt {
		b.WriteString("[" + ColorTag(theme.TitleColor) + "::b]" + line + "[-:-:-]\n")
	}
	b.WriteString("[" + ColorTag(theme.FgColor) + "]" + logoTagline + "[-]")
	tv.SetText(b.String())
	return &Logo{TextView: tv}
}
