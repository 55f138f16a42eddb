package ui

import "github.com/rivo/tview"

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // 1-9 jump keys, drawn in their own color
}

// Component is one page of the application.
type Component interface {
	tview.Primitive
	// Name is shown in the breadcrumb bar.
	Name() string
	Hints() []MenuHint
	// FocusTarget receives keyboard focus when the page comes to the top.
	FocusTarget() tview.Primitive
}
