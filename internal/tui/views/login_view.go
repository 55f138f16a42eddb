package views

import (
	"fmt"
	"strings"

	"github.com/matheus3301/mockchat/internal/tui/ui"
	"github.com/rivo/tview"
)

// Credentials is what the login form submits. Name is only set when registering.
type Credentials struct {
	Register bool
	Name     string
	Email    string
	Password string
}

// LoginView is the sign-in and registration form shown while signed out.
type LoginView struct {
	*tview.Flex
	theme    *ui.Theme
	form     *tview.Form
	message  *tview.TextView
	register bool
	onSubmit func(Credentials)
}

// NewLoginView creates the form in sign-in mode.
func NewLoginView(theme *ui.Theme) *LoginView {
	form := tview.NewForm()
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.BorderColor)

	message := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	message.SetBackgroundColor(theme.BgColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(message, 2, 0, false)
	flex.SetBorder(true)
	flex.SetBorderColor(theme.BorderColor)
	flex.SetBackgroundColor(theme.BgColor)
	flex.SetTitleColor(theme.TitleColor)

	lv := &LoginView{
		Flex:    flex,
		theme:   theme,
		form:    form,
		message: message,
	}
	lv.build()
	return lv
}

// Name implements Component.
func (lv *LoginView) Name() string {
	if lv.register {
		return "Register"
	}
	return "Login"
}

// FocusTarget implements Component.
func (lv *LoginView) FocusTarget() tview.Primitive { return lv.form }

// Hints implements Component.
func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Submit"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetOnSubmit sets the callback run when the form is submitted.
func (lv *LoginView) SetOnSubmit(fn func(Credentials)) {
	lv.onSubmit = fn
}

// Form returns the form (for focus management).
func (lv *LoginView) Form() *tview.Form {
	return lv.form
}

// ShowMessage displays a status line under the form.
func (lv *LoginView) ShowMessage(msg string) {
	lv.message.Clear()
	_, _ = fmt.Fprint(lv.message, tview.Escape(msg))
}

// ShowError displays msg in the error color.
func (lv *LoginView) ShowError(msg string) {
	lv.message.Clear()
	_, _ = fmt.Fprintf(lv.message, "[%s]%s[-]", ui.ColorTag(lv.theme.FlashErrColor), tview.Escape(msg))
}

// Reset clears the form and switches back to sign-in mode.
func (lv *LoginView) Reset() {
	lv.register = false
	lv.build()
	lv.message.Clear()
}

func (lv *LoginView) toggle() {
	lv.register = !lv.register
	lv.build()
	lv.message.Clear()
}

func (lv *LoginView) build() {
	lv.form.Clear(true)
	if lv.register {
		lv.Flex.SetTitle(" Create Account ")
		lv.form.AddInputField("Name", "", 32, nil, nil)
	} else {
		lv.Flex.SetTitle(" Sign In ")
	}
	lv.form.AddInputField("Email", "", 32, nil, nil)
	lv.form.AddPasswordField("Password", "", 32, '*', nil)

	action, other := "Sign in", "Create account"
	if lv.register {
		action, other = "Register", "Back to sign in"
	}
	lv.form.AddButton(action, lv.submit)
	lv.form.AddButton(other, lv.toggle)
}

func (lv *LoginView) submit() {
	if lv.onSubmit == nil {
		return
	}
	c := Credentials{
		Register: lv.register,
		Email:    strings.TrimSpace(lv.text("Email")),
		Password: lv.text("Password"),
	}
	if lv.register {
		c.Name = strings.TrimSpace(lv.text("Name"))
	}
	lv.onSubmit(c)
}

func (lv *LoginView) text(label string) string {
	if item, ok := lv.form.GetFormItemByLabel(label).(*tview.InputField); ok {
		return item.GetText()
	}
	return ""
}
