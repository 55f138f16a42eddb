package ui

import "github.com/rivo/tview"

// Pages keeps a navigation stack of named components on top of tview.Pages.
// The bottom entry is the root page and is never popped.
type Pages struct {
	*tview.Pages
	components map[string]Component
	stack      []string
	onChange   func(top Component, crumbs []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// Add registers a component under name, hidden.
func (p *Pages) Add(name string, c Component) {
	p.components[name] = c
	p.AddPage(name, c, true, false)
}

// SetOnChange registers a callback run after every stack change with the
// new top component and the breadcrumb names of the whole stack.
func (p *Pages) SetOnChange(fn func(top Component, crumbs []string)) {
	p.onChange = fn
}

// Push shows name on top of the stack. It reports false when name is unknown
// or already on top.
func (p *Pages) Push(name string) bool {
	if _, ok := p.components[name]; !ok || p.Current() == name {
		return false
	}
	p.stack = append(p.stack, name)
	p.changed()
	return true
}

// Pop removes the top page and returns its name. The root page stays.
func (p *Pages) Pop() (string, bool) {
	if len(p.stack) < 2 {
		return "", false
	}
	top := p.stack[len(p.stack)-1]
	p.HidePage(top)
	p.stack = p.stack[:len(p.stack)-1]
	p.changed()
	return top, true
}

// Reset makes name the only page on the stack.
func (p *Pages) Reset(name string) {
	if _, ok := p.components[name]; !ok {
		return
	}
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = append(p.stack[:0], name)
	p.changed()
}

// Current returns the name of the top page, or "" before the first Reset.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Top returns the component on top of the stack.
func (p *Pages) Top() (Component, bool) {
	c, ok := p.components[p.Current()]
	return c, ok
}

// Depth returns the number of pages on the stack.
func (p *Pages) Depth() int {
	return len(p.stack)
}

// Crumbs returns the display names of the stacked components, root first.
func (p *Pages) Crumbs() []string {
	names := make([]string, len(p.stack))
	for i, n := range p.stack {
		names[i] = p.components[n].Name()
	}
	return names
}

func (p *Pages) changed() {
	top := p.Current()
	p.ShowPage(top)
	p.SendToFront(top)
	if p.onChange != nil {
		p.onChange(p.components[top], p.Crumbs())
	}
}
