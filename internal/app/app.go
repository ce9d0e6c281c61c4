package app

import (
	"fmt"
	"log"

	"github.com/abemar/pingconsole/internal/theme"
	"github.com/abemar/pingconsole/internal/views/pinglog"
	"github.com/abemar/pingconsole/internal/views/status"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// background is the view ID of the handler set bound while no ping view is
// open.
const background pinglog.ID = 0

// Session is the session manager as seen by the app.
type Session interface {
	pinglog.Session
	Disconnect()
}

// Screen identifies the visible screen.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenPing
)

// Model is the root Bubble Tea model.
type Model struct {
	sess Session
	auth pinglog.Authenticator
	send func(tea.Msg)

	keys   KeyMap
	width  int
	height int

	screen Screen
	nextID pinglog.ID
	ping   *pinglog.Model

	statusBar status.Model
	// away counts replies received while no ping view was open.
	away int
}

// New creates the root model. send delivers messages to the running
// program; it is first used from Init, so it may refer to a program that
// is created after New returns.
func New(sess Session, auth pinglog.Authenticator, endpoint string, send func(tea.Msg)) Model {
	return Model{
		sess:      sess,
		auth:      auth,
		send:      send,
		keys:      DefaultKeyMap(),
		statusBar: status.New(endpoint),
	}
}

// Init attaches the background handlers and connects the session.
func (m Model) Init() tea.Cmd {
	m.sess.BindHandlers(pinglog.Handlers(background, m.send))
	if _, err := m.sess.Connect(); err != nil {
		log.Printf("connect: %v", err)
	}
	return nil
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.statusBar.Width = msg.Width
		if m.ping != nil {
			m.ping.Width = msg.Width
			m.ping.Height = msg.Height - 3
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case pinglog.OpenedMsg, pinglog.ClosedMsg, pinglog.ErrorMsg:
		m.refreshStatus()
		if m.ping == nil {
			log.Printf("session event with no view attached: %#v", msg)
		}
		return m.forward(msg)

	case pinglog.EventMsg:
		if msg.View == background {
			m.away++
		}
		return m.forward(msg)
	}

	return m.forward(msg)
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.ping == nil {
		return m, nil
	}
	v, cmd := m.ping.Update(msg)
	m.ping = &v
	m.statusBar.Target = v.Target()
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		return m.quit()
	}

	if m.screen == ScreenPing {
		if key.Matches(msg, m.keys.Escape) {
			m.closePing()
			return m, nil
		}
		model, cmd := m.forward(msg)
		mm := model.(Model)
		mm.refreshStatus()
		return mm, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m.quit()

	case key.Matches(msg, m.keys.Ping):
		return m.openPing()

	case key.Matches(msg, m.keys.Reconnect):
		if _, err := m.sess.Reconnect(); err != nil {
			log.Printf("reconnect: %v", err)
		}
		m.refreshStatus()
		return m, nil
	}

	return m, nil
}

// openPing creates a fresh ping view; it adopts the session on creation.
func (m Model) openPing() (tea.Model, tea.Cmd) {
	m.nextID++
	v := pinglog.New(m.nextID, m.sess, m.auth, m.send)
	v.Width = m.width
	v.Height = m.height - 3
	m.ping = &v
	m.screen = ScreenPing
	m.away = 0
	m.refreshStatus()
	return m, v.Init()
}

// closePing destroys the ping view. A running probe keeps going; its
// replies are counted until a new view is opened.
func (m *Model) closePing() {
	m.ping = nil
	m.screen = ScreenHome
	m.sess.BindHandlers(pinglog.Handlers(background, m.send))
	m.refreshStatus()
}

// quit stops any probe and closes the session on a best-effort basis.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.sess.StopPing()
	m.sess.Disconnect()
	return m, tea.Quit
}

func (m *Model) refreshStatus() {
	m.statusBar.SetState(m.sess.State())
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	if m.screen == ScreenPing && m.ping != nil {
		return lipgloss.JoinVertical(lipgloss.Left, m.statusBar.View(), m.ping.View())
	}

	lines := []string{
		m.statusBar.View(),
		theme.StyleHeader.Render("  PING CONSOLE"),
		"",
		"  p  open the ping tool",
		"  r  reconnect the session",
	}
	if m.away > 0 {
		lines = append(lines, "", theme.StyleDimmed.Render(fmt.Sprintf("  %d replies received in the background", m.away)))
	}
	lines = append(lines, "", theme.StyleDimmed.Render("  p:ping  r:reconnect  q:quit"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Screen returns the visible screen.
func (m Model) Screen() Screen { return m.screen }
