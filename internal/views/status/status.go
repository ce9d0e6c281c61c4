package status

import (
	"errors"

	"github.com/abemar/pingconsole/internal/theme"
	"github.com/abemar/pingconsole/internal/transport"
	"github.com/charmbracelet/lipgloss"
)

// Model holds the status bar state.
type Model struct {
	State       transport.State
	Unsupported bool
	Endpoint    string
	Target      string
	Width       int
}

// New creates a status bar model.
func New(endpoint string) Model {
	return Model{Endpoint: endpoint}
}

// SetState records the session state as reported by the manager.
func (m *Model) SetState(state transport.State, err error) {
	m.State = state
	m.Unsupported = errors.Is(err, transport.ErrUnsupported)
}

// View renders the status bar.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}

	var connStr string
	switch {
	case m.Unsupported:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("✗ WebSockets unsupported")
	case m.State == transport.StateOpen:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorHealthy).Render("● Connected")
	case m.State == transport.StateConnecting:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Connecting...")
	case m.State == transport.StateClosing:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorWarning).Render("◌ Closing...")
	default:
		connStr = lipgloss.NewStyle().Foreground(theme.ColorDanger).Render("○ Disconnected")
	}

	sep := lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(" | ")
	content := connStr
	if m.Endpoint != "" {
		content += sep + theme.StyleDimmed.Render(m.Endpoint)
	}
	if m.Target != "" {
		content += sep + "pinging " + m.Target
	}

	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 1).
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(theme.ColorBorder).
		Render(content)
}
