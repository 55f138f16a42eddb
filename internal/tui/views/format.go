package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/mockchat/internal/api"
	"github.com/matheus3301/mockchat/internal/tui/ui"
)

func formatTimestamp(t time.Time, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now = now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}

// statusMark renders the delivery state of an own message: a clock while
// sending, one tick when sent, two when delivered and two colored when read.
func statusMark(status string, theme *ui.Theme) string {
	switch status {
	case "sending":
		return fmt.Sprintf("[%s]◷[-]", ui.ColorTag(theme.PendingColor))
	case "sent":
		return "✓"
	case "delivered":
		return "✓✓"
	case "read":
		return fmt.Sprintf("[%s]✓✓[-]", ui.ColorTag(theme.ReadColor))
	}
	return ""
}

func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

// body renders a message's payload for the thread view.
func body(m api.Message) string {
	switch m.Kind {
	case "image":
		return "📷 Photo " + m.Content
	case "file":
		name := m.FileName
		if name == "" {
			name = "File"
		}
		if m.FileSize > 0 {
			return fmt.Sprintf("📎 %s (%s)", name, formatSize(m.FileSize))
		}
		return "📎 " + name
	case "voice":
		return "🎵 Voice message"
	}
	return m.Content
}
