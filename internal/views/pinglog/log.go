package pinglog

import (
	"fmt"
	"strings"
	"time"

	"github.com/abemar/pingconsole/internal/theme"
	"github.com/charmbracelet/lipgloss"
)

const maxEntries = 500

// Entry is a single log line.
type Entry struct {
	Time    time.Time
	Kind    string // "ping", "raw", "err", "ws" or ">" for local notices
	Message string
}

// Log is a capped, scrollable list of entries.
type Log struct {
	Entries []Entry
	Offset  int // scroll offset (from bottom)
}

// Add appends an entry and caps the buffer.
func (l *Log) Add(kind, message string) {
	l.Entries = append(l.Entries, Entry{
		Time:    time.Now(),
		Kind:    kind,
		Message: message,
	})
	if len(l.Entries) > maxEntries {
		l.Entries = l.Entries[len(l.Entries)-maxEntries:]
	}
	l.Offset = 0
}

// Clear drops every entry.
func (l *Log) Clear() {
	l.Entries = nil
	l.Offset = 0
}

// ScrollUp moves the viewport up.
func (l *Log) ScrollUp(n int) {
	l.Offset += n
	max := len(l.Entries) - 1
	if max < 0 {
		max = 0
	}
	if l.Offset > max {
		l.Offset = max
	}
}

// ScrollDown moves the viewport down.
func (l *Log) ScrollDown(n int) {
	l.Offset -= n
	if l.Offset < 0 {
		l.Offset = 0
	}
}

// View renders the visible tail of the log.
func (l Log) View(width, height int) string {
	if height < 1 {
		height = 1
	}
	if len(l.Entries) == 0 {
		return theme.StyleDimmed.Render("  No replies yet. Enter an IP and press enter.")
	}

	end := len(l.Entries) - l.Offset
	if end < 0 {
		end = 0
	}
	start := end - height
	if start < 0 {
		start = 0
	}

	var lines []string
	for i := start; i < end; i++ {
		e := l.Entries[i]
		ts := theme.StyleDimmed.Render(e.Time.Format("15:04:05"))
		kind := lipgloss.NewStyle().Foreground(theme.KindColor(e.Kind)).Width(4).Render(e.Kind)
		msg := e.Message
		if width > 20 && len(msg) > width-16 {
			msg = msg[:width-19] + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ts, kind, msg))
	}
	if l.Offset > 0 {
		lines = append(lines, theme.StyleDimmed.Render(fmt.Sprintf(" ↓ %d more", l.Offset)))
	}
	return strings.Join(lines, "\n")
}
