package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/lock"
	"github.com/matheus3301/mockchat/internal/profile"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fatal(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	// status works without a running daemon.
	if args[0] == "status" {
		cmdStatus(name, *jsonFlag)
		return
	}

	c, err := api.Dial(profile.SocketPath(name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: cannot connect to daemon for profile %q: %v\n", name, err)
		os.Exit(1)
	}
	defer func() { _ = c.Close() }()

	if args[0] == "watch" {
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		cmdWatch(c, prefix, *jsonFlag)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	out := printer{json: *jsonFlag}
	rest := args[1:]
	switch args[0] {
	case "login":
		need(rest, 2, "login <email> <password>")
		u, err := c.Login(ctx, rest[0], rest[1])
		check(err)
		out.user(u)
	case "register":
		need(rest, 3, "register <name> <email> <password>")
		u, err := c.Register(ctx, rest[0], rest[1], rest[2])
		check(err)
		out.user(u)
	case "logout":
		check(c.Logout(ctx))
		fmt.Println("Signed out.")
	case "whoami":
		w, err := c.Whoami(ctx)
		check(err)
		out.whoami(w)
	case "chats":
		chats, err := c.ListChats(ctx, strings.Join(rest, " "))
		check(err)
		out.chats(chats)
	case "open":
		need(rest, 1, "open <chat-id>")
		ch, err := c.SelectChat(ctx, rest[0])
		check(err)
		out.chats([]api.Chat{ch})
	case "messages":
		chatID := ""
		if len(rest) > 0 {
			chatID = rest[0]
		}
		msgs, err := c.ListMessages(ctx, chatID)
		check(err)
		out.messages(msgs)
	case "send":
		need(rest, 1, "send <text>")
		m, sent, err := c.Send(ctx, api.Outgoing{Content: strings.Join(rest, " "), Kind: "text"})
		check(err)
		if !sent {
			fatal(fmt.Errorf("no active chat; use open first"))
		}
		out.messages([]api.Message{m})
	case "receive":
		need(rest, 3, "receive <chat-id> <sender-id> <text>")
		m, err := c.Receive(ctx, rest[0], rest[1], api.Outgoing{Content: strings.Join(rest[2:], " "), Kind: "text"})
		check(err)
		out.messages([]api.Message{m})
	case "typing":
		need(rest, 1, "typing <on|off>")
		on, err := parseSwitch(rest[0])
		check(err)
		check(c.SetTyping(ctx, on))
	case "presence":
		need(rest, 1, "presence <online|away|offline>")
		u, err := c.SetPresence(ctx, rest[0])
		check(err)
		out.user(u)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: chatctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  status                          Show whether the daemon is running")
	fmt.Fprintln(os.Stderr, "  login <email> <password>        Sign in")
	fmt.Fprintln(os.Stderr, "  register <name> <email> <pw>    Create an account and sign in")
	fmt.Fprintln(os.Stderr, "  logout                          Sign out")
	fmt.Fprintln(os.Stderr, "  whoami                          Show the signed-in user")
	fmt.Fprintln(os.Stderr, "  chats [query]                   List conversations")
	fmt.Fprintln(os.Stderr, "  open <chat-id>                  Select the active conversation")
	fmt.Fprintln(os.Stderr, "  messages [chat-id]              List messages (default: active chat)")
	fmt.Fprintln(os.Stderr, "  send <text>                     Send to the active conversation")
	fmt.Fprintln(os.Stderr, "  receive <chat> <sender> <text>  Inject an incoming message")
	fmt.Fprintln(os.Stderr, "  typing <on|off>                 Set your typing indicator")
	fmt.Fprintln(os.Stderr, "  presence <status>               Set your presence")
	fmt.Fprintln(os.Stderr, "  watch [prefix]                  Stream events until interrupted")
}

func cmdStatus(name string, jsonOut bool) {
	pid, err := lock.Owner(profile.Dir(name))
	check(err)
	if jsonOut {
		outputJSON(map[string]any{"profile": name, "running": pid != 0, "pid": pid, "socket": profile.SocketPath(name)})
		return
	}
	if pid == 0 {
		fmt.Printf("Profile %s: daemon not running\n", name)
		return
	}
	fmt.Printf("Profile %s: daemon running (pid %d)\n", name, pid)
	fmt.Printf("Socket:  %s\n", profile.SocketPath(name))
}

func cmdWatch(c *api.Client, prefix string, jsonOut bool) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	events, errFn, err := c.Watch(ctx, prefix)
	check(err)
	for ev := range events {
		if jsonOut {
			outputJSON(ev)
			continue
		}
		fmt.Printf("%s %-18s chat=%s msg=%s user=%s %s\n",
			ev.Timestamp.Format(time.TimeOnly), ev.Kind, ev.ChatID, ev.MessageID, ev.UserID, eventDetail(ev))
	}
	if err := errFn(); err != nil && ctx.Err() == nil {
		fatal(err)
	}
}

func eventDetail(ev api.Event) string {
	switch {
	case ev.Status != "":
		return "status=" + ev.Status
	case ev.Presence != "":
		return "presence=" + ev.Presence
	case strings.HasPrefix(ev.Kind, "typing"):
		return "typing=" + strconv.FormatBool(ev.Typing)
	}
	return ""
}

type printer struct {
	json bool
}

func (p printer) user(u api.User) {
	if p.json {
		outputJSON(u)
		return
	}
	fmt.Printf("%s <%s> [%s] %s\n", u.Name, u.Email, u.Status, u.ID)
}

func (p printer) whoami(w api.Whoami) {
	if p.json {
		outputJSON(w)
		return
	}
	fmt.Printf("Profile: %s\n", w.Profile)
	fmt.Printf("Uptime:  %s\n", w.Uptime.Round(time.Second))
	if !w.SignedIn {
		fmt.Println("Signed out.")
		return
	}
	fmt.Printf("User:    %s <%s> [%s]\n", w.User.Name, w.User.Email, w.User.Status)
	if w.ActiveChatID != "" {
		fmt.Printf("Active:  %s\n", w.ActiveChatID)
	}
}

func (p printer) chats(chats []api.Chat) {
	if p.json {
		outputJSON(chats)
		return
	}
	if len(chats) == 0 {
		fmt.Println("No conversations.")
		return
	}
	for _, ch := range chats {
		mark := " "
		if ch.Active {
			mark = "*"
		}
		preview := ch.Preview
		if ch.Typing != "" {
			preview = ch.Typing
		}
		fmt.Printf("%s %-8s %-6s %-24s %3d  %s\n", mark, ch.ID, ch.Kind, ch.Name, ch.UnreadCount, preview)
	}
}

func (p printer) messages(msgs []api.Message) {
	if p.json {
		outputJSON(msgs)
		return
	}
	for _, m := range msgs {
		sender := m.SenderName
		if sender == "" {
			sender = m.SenderID
		}
		text := m.Content
		if m.FileName != "" {
			text = fmt.Sprintf("[%s: %s] %s", m.Kind, m.FileName, m.Content)
		}
		fmt.Printf("%s %-10s %-16s %s\n", m.Timestamp.Format(time.DateTime), m.Status, sender, text)
	}
}

func parseSwitch(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", s)
}

func need(args []string, n int, usage string) {
	if len(args) < n {
		fmt.Fprintln(os.Stderr, "usage: chatctl "+usage)
		os.Exit(1)
	}
}

func check(err error) {
	if err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}

func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "json encode error: %v\n", err)
	}
}
