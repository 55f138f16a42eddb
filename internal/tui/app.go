package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/tui/keys"
	"github.com/matheus3301/mockchat/internal/tui/model"
	"github.com/matheus3301/mockchat/internal/tui/ui"
	"github.com/matheus3301/mockchat/internal/tui/views"
	"github.com/rivo/tview"
)

const (
	pageLogin   = "login"
	pageList    = "conversations"
	pageThread  = "thread"
	pageDetails = "details"
	pageHelp    = "help"
)

var presenceCycle = map[string]string{"online": "away", "away": "offline", "offline": "online"}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	theme    *ui.Theme
	pages    *ui.Pages
	root     *tview.Flex
	vm       *model.ViewModel
	typing   *model.TypingNotifier
	registry *keys.Registry
	flash    *ui.FlashModel

	info     *ui.SessionInfo
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	prompt   *ui.Prompt
	flashBar *ui.FlashBar

	login   *views.LoginView
	list    *views.ConversationList
	thread  *views.MessageThread
	details *views.ConversationInfo
	help    *views.HelpView

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp creates the TUI application on top of a daemon client.
func NewApp(c model.Backend) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	vm := model.NewViewModel(c)

	a := &App{
		app:      tview.NewApplication(),
		theme:    theme,
		pages:    ui.NewPages(),
		vm:       vm,
		registry: keys.NewRegistry(),
		flash:    ui.NewFlashModel(nil),
		info:     ui.NewSessionInfo(theme),
		menu:     ui.NewMenu(theme),
		crumbs:   ui.NewCrumbs(theme),
		prompt:   ui.NewPrompt(theme),
		flashBar: ui.NewFlashBar(theme),
		login:    views.NewLoginView(theme),
		list:     views.NewConversationList(theme),
		thread:   views.NewMessageThread(theme),
		details:  views.NewConversationInfo(theme),
		help:     views.NewHelpView(theme),
		ctx:      ctx,
		cancel:   cancel,
	}
	a.typing = model.NewTypingNotifier(nil, model.DefaultTypingIdle, func(typing bool) {
		go func() {
			if err := a.vm.SetTyping(a.ctx, typing); err != nil && a.ctx.Err() == nil {
				a.flash.Err(err)
			}
		}()
	})
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	a.registry.AddGlobal("command", &keys.Action{
		Key: tcell.KeyRune, Rune: ':',
		Handler: func() { a.showPrompt(ui.PromptCommand) },
	})
	a.registry.AddGlobal("help", &keys.Action{
		Key: tcell.KeyRune, Rune: '?',
		Handler: func() { a.push(pageHelp) },
	})
	a.registry.AddGlobal("quit", &keys.Action{
		Key: tcell.KeyRune, Rune: 'q',
		Handler: func() {
			if a.pages.Current() == pageList {
				a.Stop()
				return
			}
			a.back()
		},
	})

	a.registry.AddView(pageList, "filter", &keys.Action{
		Key: tcell.KeyRune, Rune: '/',
		Handler: func() { a.showPrompt(ui.PromptFilter) },
	})
	a.registry.AddView(pageList, "clear", &keys.Action{
		Key: tcell.KeyRune, Rune: '0',
		Handler: func() { a.setQuery("") },
	})
	for n := '1'; n <= '9'; n++ {
		idx := int(n - '0')
		a.registry.AddView(pageList, "jump"+string(n), &keys.Action{
			Key: tcell.KeyRune, Rune: n,
			Handler: func() {
				if id := a.list.ChatByIndex(idx); id != "" {
					a.openChat(id)
				}
			},
		})
	}
	a.registry.AddView(pageList, "presence", &keys.Action{
		Key: tcell.KeyRune, Rune: 'p',
		Handler: func() {
			next, ok := presenceCycle[a.vm.Whoami().User.Status]
			if !ok {
				next = "online"
			}
			a.setPresence(next)
		},
	})

	a.registry.AddView(pageThread, "compose", &keys.Action{
		Key: tcell.KeyRune, Rune: 'i',
		Handler: func() { a.app.SetFocus(a.thread.Composer()) },
	})
	a.registry.AddView(pageThread, "details", &keys.Action{
		Key: tcell.KeyRune, Rune: 'd',
		Handler: func() {
			if c, ok := a.vm.Active(); ok {
				a.details.Update(&c)
				a.push(pageDetails)
			}
		},
	})
}

func (a *App) setupCallbacks() {
	a.list.SetSelectedFunc(func(row, _ int) {
		if id := a.list.ChatByIndex(row); id != "" {
			a.openChat(id)
		}
	})

	a.thread.SetOnInput(a.typing.Keystroke)
	a.thread.SetOnSend(func(text string) {
		a.typing.Done()
		a.send(api.Outgoing{Content: text, Kind: "text"})
	})

	a.login.SetOnSubmit(func(c views.Credentials) {
		a.login.ShowMessage("Signing in...")
		go func() {
			var err error
			if c.Register {
				err = a.vm.Register(a.ctx, c.Name, c.Email, c.Password)
			} else {
				err = a.vm.Login(a.ctx, c.Email, c.Password)
			}
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.login.ShowError(ui.DescribeError(err))
					return
				}
				a.login.Reset()
				a.render()
			})
		}()
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptFilter {
			a.setQuery(text)
			return
		}
		a.runCommand(ParseCommand(text))
	})
	a.prompt.SetOnCancel(a.hidePrompt)

	a.pages.SetOnChange(func(top ui.Component, crumbs []string) {
		a.crumbs.Update(crumbs)
		a.menu.Update(top.Hints())
	})
}

func (a *App) setupLayout() {
	logo := ui.NewLogo(a.theme)
	header := tview.NewFlex().
		AddItem(a.info, 0, 1, false).
		AddItem(a.menu, 0, 1, false).
		AddItem(logo, 22, 0, false)

	a.pages.Add(pageLogin, a.login)
	a.pages.Add(pageList, a.list)
	a.pages.Add(pageThread, a.thread)
	a.pages.Add(pageDetails, a.details)
	a.pages.Add(pageHelp, a.help)

	a.root = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 6, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.prompt, 0, 0, false).
		AddItem(a.flashBar, 1, 0, false)
	a.root.SetBackgroundColor(a.theme.BgColor)
	a.app.SetRoot(a.root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		current := a.pages.Current()
		focused := a.app.GetFocus()

		if event.Key() == tcell.KeyEscape {
			switch {
			case focused == a.thread.Composer():
				a.typing.Done()
				a.app.SetFocus(a.thread.Messages())
				return nil
			case focused == a.prompt.InputField:
				return event
			case current != pageList && current != pageLogin:
				a.back()
				return nil
			}
		}

		// Let text input widgets handle all keys normally.
		switch focused.(type) {
		case *tview.InputField, *tview.Button:
			return event
		}
		if current == pageLogin {
			return event
		}

		if a.registry.HandleEvent(current, event) {
			return nil
		}
		return event
	})
}

func (a *App) push(page string) {
	if a.pages.Push(page) {
		a.focusTop()
	}
}

func (a *App) back() {
	name, ok := a.pages.Pop()
	if !ok {
		return
	}
	if name == pageThread {
		a.typing.Done()
	}
	a.focusTop()
}

func (a *App) reset(page string) {
	a.pages.Reset(page)
	a.focusTop()
}

func (a *App) focusTop() {
	if c, ok := a.pages.Top(); ok {
		a.app.SetFocus(c.FocusTarget())
	}
}

func (a *App) showPrompt(mode ui.PromptMode) {
	initial := ""
	if mode == ui.PromptFilter {
		initial = a.vm.Query()
	}
	a.prompt.Activate(mode, initial)
	a.root.ResizeItem(a.prompt, 3, 0)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.root.ResizeItem(a.prompt, 0, 0)
	a.focusTop()
}

// render copies the view model into every widget and routes between the
// signed-in and signed-out pages. It must run on the UI goroutine.
func (a *App) render() {
	who := a.vm.Whoami()
	current := a.pages.Current()
	switch {
	case !who.SignedIn && current != pageLogin:
		a.typing.Done()
		a.reset(pageLogin)
	case who.SignedIn && (current == pageLogin || current == ""):
		a.reset(pageList)
	}

	a.list.Update(a.vm.Chats(), a.vm.Query())
	if c, ok := a.vm.Active(); ok {
		a.thread.SetChat(c.ID, c.Name)
		a.thread.Update(a.vm.Messages(), who.User.ID, c.Typing)
		if a.pages.Current() == pageDetails {
			a.details.Update(&c)
		}
	}
	a.crumbs.Update(a.pages.Crumbs())

	data := &ui.SessionData{Profile: who.Profile, Uptime: who.Uptime}
	if who.SignedIn {
		data.User = who.User.Name
		data.Presence = who.User.Status
		data.Chats = len(a.vm.Chats())
		data.Unread = a.vm.Unread()
	}
	a.info.Update(data)
	a.flashBar.Show(a.flash)
}

func (a *App) openChat(id string) {
	go func() {
		err := a.vm.Open(a.ctx, id)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.flash.Err(err)
				a.flashBar.Show(a.flash)
				return
			}
			a.render()
			if a.pages.Current() != pageThread {
				a.pages.Reset(pageList)
				a.push(pageThread)
			}
		})
	}()
}

func (a *App) send(o api.Outgoing) {
	go func() {
		ok, err := a.vm.Send(a.ctx, o)
		switch {
		case err != nil:
			a.flash.Err(err)
		case !ok:
			a.flash.Warn("Open a conversation first")
		}
	}()
}

func (a *App) setQuery(q string) {
	go func() {
		if err := a.vm.SetQuery(a.ctx, q); err != nil {
			a.flash.Err(err)
		}
	}()
}

func (a *App) setPresence(p string) {
	go func() {
		if err := a.vm.SetPresence(a.ctx, p); err != nil {
			a.flash.Err(err)
			return
		}
		a.flash.Info("Status: " + p)
	}()
}

func (a *App) runCommand(cmd Command) {
	if o, ok, err := cmd.Attachment(); ok {
		if err != nil {
			a.flash.Warn(err.Error())
			return
		}
		a.send(o)
		return
	}

	switch cmd.Name {
	case "q", "quit":
		a.Stop()
	case "h", "help":
		a.push(pageHelp)
	case "chat", "open":
		c, ok := a.vm.FindChat(cmd.Args)
		if !ok {
			a.flash.Warn("No chat matches " + cmd.Args)
			return
		}
		a.openChat(c.ID)
	case "filter":
		a.setQuery(cmd.Args)
	case "presence", "status":
		a.setPresence(cmd.Args)
	case "logout":
		go func() {
			if err := a.vm.Logout(a.ctx); err != nil {
				a.flash.Err(err)
			}
		}()
	default:
		a.flash.Warn("Unknown command: " + cmd.Name)
	}
}

// Run starts the TUI application and blocks until it quits.
func (a *App) Run() error {
	go func() {
		if err := a.vm.Refresh(a.ctx); err != nil {
			a.flash.Err(err)
		}
		a.app.QueueUpdateDraw(a.render)
		go a.vm.Follow(a.ctx, 2*time.Second, a.flash.Err)
		a.startRefreshLoop()
	}()

	return a.app.Run()
}

// startRefreshLoop redraws on model changes and flash messages, and once a
// second so expired flashes clear.
func (a *App) startRefreshLoop() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.vm.RefreshCh():
			a.app.QueueUpdateDraw(a.render)
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Show(a.flash) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() { a.flashBar.Show(a.flash) })
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.typing.Done()
	a.cancel()
	a.app.Stop()
}
