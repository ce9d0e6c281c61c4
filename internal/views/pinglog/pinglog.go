// Package pinglog is the transient ping view. Each instance adopts the
// shared session when it is created and renders every session event as a
// log line. Events reach the Bubble Tea program through the send function,
// tagged with the view's ID so the app can drop messages queued for a view
// that has since been replaced.
package pinglog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/abemar/pingconsole/internal/client"
	"github.com/abemar/pingconsole/internal/protocol"
	"github.com/abemar/pingconsole/internal/session"
	"github.com/abemar/pingconsole/internal/theme"
	"github.com/abemar/pingconsole/internal/transport"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const authTimeout = 5 * time.Second

// ID identifies one view instance.
type ID int

// Session is the part of the session manager a view drives.
type Session interface {
	BindHandlers(h session.Handlers)
	Connect() (transport.State, error)
	Reconnect() (transport.State, error)
	StartPing(rawTarget string) error
	StopPing()
	State() (transport.State, error)
}

// Authenticator revalidates the console credentials.
type Authenticator interface {
	CheckAuthentication(ctx context.Context) error
}

type (
	OpenedMsg struct{ View ID }
	ClosedMsg struct {
		View ID
		Err  error
	}
	EventMsg struct {
		View  ID
		Event protocol.Event
	}
	ErrorMsg struct {
		View ID
		Err  error
	}
	AuthCheckedMsg struct {
		View ID
		Err  error
	}
)

// Handlers returns a handler set that forwards session events to send,
// tagged with id.
func Handlers(id ID, send func(tea.Msg)) session.Handlers {
	return session.Handlers{
		OnOpen:    func() { send(OpenedMsg{View: id}) },
		OnClose:   func(err error) { send(ClosedMsg{View: id, Err: err}) },
		OnMessage: func(ev protocol.Event) { send(EventMsg{View: id, Event: ev}) },
		OnError:   func(err error) { send(ErrorMsg{View: id, Err: err}) },
	}
}

// KeyMap defines the ping view bindings.
type KeyMap struct {
	Start      key.Binding
	Stop       key.Binding
	Reconnect  key.Binding
	Clear      key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
}

// DefaultKeyMap returns the default ping view bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Start: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "start ping"),
		),
		Stop: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "stop"),
		),
		Reconnect: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reconnect"),
		),
		Clear: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("ctrl+l", "clear log"),
		),
		ScrollUp: key.NewBinding(
			key.WithKeys("pgup", "up"),
			key.WithHelp("pgup", "scroll up"),
		),
		ScrollDown: key.NewBinding(
			key.WithKeys("pgdown", "down"),
			key.WithHelp("pgdown", "scroll down"),
		),
	}
}

// Model is one ping view.
type Model struct {
	id   ID
	sess Session
	auth Authenticator
	keys KeyMap

	input  textinput.Model
	log    Log
	target string

	Width  int
	Height int
}

// New creates a view and attaches it to sess: its handlers replace whatever
// set was bound before, and the session is connected unless it already is.
// auth may be nil.
func New(id ID, sess Session, auth Authenticator, send func(tea.Msg)) Model {
	ti := textinput.New()
	ti.Placeholder = "IP address"
	ti.Prompt = "ping › "
	ti.CharLimit = 64
	ti.Focus()

	m := Model{
		id:    id,
		sess:  sess,
		auth:  auth,
		keys:  DefaultKeyMap(),
		input: ti,
	}

	sess.BindHandlers(Handlers(id, send))
	state, err := sess.Connect()
	switch {
	case errors.Is(err, transport.ErrUnsupported):
		m.log.Add(">", "WebSockets are not supported; ping is unavailable")
	case err != nil:
		m.log.Add("err", err.Error())
	case state == transport.StateOpen:
		m.log.Add("ws", "attached to open session")
	default:
		m.log.Add("ws", "connecting...")
	}
	return m
}

// ID returns the view's identifier.
func (m Model) ID() ID { return m.id }

// Target is the address of the last start request, or "" once stopped.
func (m Model) Target() string { return m.target }

// Entries returns the rendered log entries.
func (m Model) Entries() []Entry { return m.log.Entries }

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and session messages addressed to this view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case OpenedMsg:
		if msg.View == m.id {
			m.log.Add("ws", "connected")
		}
		return m, nil

	case ClosedMsg:
		if msg.View != m.id {
			return m, nil
		}
		m.target = ""
		if msg.Err != nil {
			m.log.Add("ws", "connection closed: "+msg.Err.Error())
		} else {
			m.log.Add("ws", "connection closed")
		}
		return m, nil

	case EventMsg:
		if msg.View != m.id {
			return m, nil
		}
		switch msg.Event.Kind {
		case protocol.EventPayload:
			m.log.Add("ping", msg.Event.Text)
		case protocol.EventError:
			m.log.Add("err", msg.Event.Text)
		default:
			m.log.Add("raw", msg.Event.Text)
		}
		return m, nil

	case ErrorMsg:
		if msg.View != m.id {
			return m, nil
		}
		m.log.Add("err", msg.Err.Error())
		return m, m.checkAuth()

	case AuthCheckedMsg:
		if msg.View != m.id {
			return m, nil
		}
		switch {
		case msg.Err == nil:
		case errors.Is(msg.Err, client.ErrUnauthorized):
			m.log.Add(">", "Session expired, please log in again")
		default:
			m.log.Add("err", "auth check failed: "+msg.Err.Error())
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Start):
		raw := m.input.Value()
		if err := m.sess.StartPing(raw); err != nil {
			if errors.Is(err, protocol.ErrEmptyTarget) {
				m.log.Add(">", "Please enter an IP!")
			} else {
				m.log.Add("err", err.Error())
			}
			return m, nil
		}
		m.target = strings.TrimSpace(raw)
		m.log.Add(">", fmt.Sprintf("Request to ping [%s] sent...", m.target))
		return m, nil

	case key.Matches(msg, m.keys.Stop):
		m.sess.StopPing()
		m.target = ""
		m.log.Add(">", "Stop request sent...")
		return m, nil

	case key.Matches(msg, m.keys.Reconnect):
		state, err := m.sess.Reconnect()
		switch {
		case errors.Is(err, transport.ErrUnsupported):
			m.log.Add(">", "WebSockets are not supported; ping is unavailable")
		case err != nil:
			m.log.Add("err", err.Error())
		case state == transport.StateOpen:
			m.log.Add(">", "Already connected")
		default:
			m.log.Add(">", "Reconnecting...")
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.log.Clear()
		return m, nil

	case key.Matches(msg, m.keys.ScrollUp):
		m.log.ScrollUp(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.log.ScrollDown(1)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) checkAuth() tea.Cmd {
	if m.auth == nil {
		return nil
	}
	auth, id := m.auth, m.id
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), authTimeout)
		defer cancel()
		err := auth.CheckAuthentication(ctx)
		if err != nil {
			log.Printf("ping view %d: auth check: %v", id, err)
		}
		return AuthCheckedMsg{View: id, Err: err}
	}
}

// View renders the input line and the log panel.
func (m Model) View() string {
	width := m.Width
	if width < 40 {
		width = 40
	}
	visible := m.Height - 7
	if visible < 3 {
		visible = 3
	}

	title := theme.StyleHeader.Render(" PING ")
	help := theme.StyleDimmed.Render(fmt.Sprintf(
		"enter:start  ctrl+x:stop  ctrl+r:reconnect  ctrl+l:clear  esc:back  %d entries",
		len(m.log.Entries)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		m.input.View(),
		"",
		m.log.View(width-6, visible),
		help,
	)
	return theme.StyleBorder.Width(width - 2).Padding(0, 1).Render(content)
}
