package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matheus3301/mockchat/internal/api"
)

// Command represents a parsed command.
type Command struct {
	Name string
	Args string
}

// ParseCommand parses a command string (without the leading ':').
func ParseCommand(input string) Command {
	input = strings.TrimSpace(input)
	parts := strings.SplitN(input, " ", 2)
	cmd := Command{Name: strings.ToLower(parts[0])}
	if len(parts) > 1 {
		cmd.Args = strings.TrimSpace(parts[1])
	}
	return cmd
}

// Attachment builds the message an :image, :file or :voice command sends.
// It reports false for commands that do not send anything.
func (c Command) Attachment() (api.Outgoing, bool, error) {
	switch c.Name {
	case "image", "img":
		if c.Args == "" {
			return api.Outgoing{}, true, fmt.Errorf("usage: :image <url>")
		}
		return api.Outgoing{Kind: "image", Content: c.Args, FileURL: c.Args}, true, nil
	case "file":
		fields := strings.Fields(c.Args)
		if len(fields) == 0 {
			return api.Outgoing{}, true, fmt.Errorf("usage: :file <name> [bytes]")
		}
		o := api.Outgoing{Kind: "file", Content: fields[0], FileName: fields[0]}
		if len(fields) > 1 {
			n, err := strconv.ParseInt(fields[1], 10, 64)
			if err != nil || n < 0 {
				return api.Outgoing{}, true, fmt.Errorf("file size %q is not a byte count", fields[1])
			}
			o.FileSize = n
		}
		return o, true, nil
	case "voice":
		return api.Outgoing{Kind: "voice", Content: "voice message"}, true, nil
	}
	return api.Outgoing{}, false, nil
}
