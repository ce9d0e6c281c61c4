// Package session implements the ping session manager: the long-lived owner
// of the ping transport that transient views attach to.
//
// A Manager outlives the views that use it. A view adopts the session by
// binding its handlers; the previously bound set stops receiving events as
// soon as BindHandlers returns. Handler calls are serialised, so handlers
// never run concurrently with each other, and they are invoked without any
// manager lock held, so a handler may call back into the Manager.
package session

import (
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/abemar/pingconsole/internal/protocol"
	"github.com/abemar/pingconsole/internal/transport"
)

// Handlers is the set of callbacks receiving session events. Nil callbacks
// are skipped.
type Handlers struct {
	OnOpen    func()
	OnClose   func(err error)
	OnMessage func(ev protocol.Event)
	OnError   func(err error)
}

// Manager owns one transport and multiplexes the ping protocol over it.
type Manager struct {
	transport transport.Transport

	mu        sync.Mutex
	handlers  Handlers
	connected bool

	// dispatchMu serialises handler invocations across connections.
	dispatchMu sync.Mutex
}

// New creates a manager that owns t. No other component may open or close t.
func New(t transport.Transport) *Manager {
	return &Manager{transport: t}
}

// BindHandlers replaces the active handler set. It may be called at any
// time and never touches the transport.
func (m *Manager) BindHandlers(h Handlers) {
	m.mu.Lock()
	m.handlers = h
	m.mu.Unlock()
}

// Connect opens the transport unless it is already connecting or open, in
// which case the current state is returned without side effects. It returns
// transport.ErrUnsupported, and does nothing else, when the transport has
// no socket capability.
func (m *Manager) Connect() (transport.State, error) {
	state, err := m.transport.State()
	if err != nil {
		return state, err
	}
	if state.Live() {
		m.mu.Lock()
		m.connected = state == transport.StateOpen
		m.mu.Unlock()
		return state, nil
	}
	return m.transport.Open(sink{m})
}

// Reconnect is the caller-initiated recovery path after the session closed.
// It behaves exactly like Connect.
func (m *Manager) Reconnect() (transport.State, error) {
	log.Println("ping session: reconnect requested")
	return m.Connect()
}

// Disconnect closes the transport. It is a no-op when nothing is connected.
// Completion is reported through OnClose.
func (m *Manager) Disconnect() {
	m.transport.Close()
}

// StartPing asks the backend to start probing rawTarget. The target is
// trimmed first; an empty target returns protocol.ErrEmptyTarget and sends
// nothing.
func (m *Manager) StartPing(rawTarget string) error {
	target := strings.TrimSpace(rawTarget)
	if target == "" {
		return protocol.ErrEmptyTarget
	}
	frame, err := protocol.Encode(protocol.Start(target))
	if err != nil {
		return err
	}
	m.transport.Send(frame)
	return nil
}

// StopPing asks the backend to stop probing. It never fails and is safe to
// call without a connection.
func (m *Manager) StopPing() {
	frame, err := protocol.Encode(protocol.Stop())
	if err != nil {
		log.Printf("ping session: encode stop: %v", err)
		return
	}
	m.transport.Send(frame)
}

// State reports the transport state, or transport.ErrUnsupported.
func (m *Manager) State() (transport.State, error) {
	return m.transport.State()
}

// Connected reports whether the last observed transport event left the
// session open.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Manager) current() Handlers {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handlers
}

// dispatch runs fn with the handler set bound at this moment.
func (m *Manager) dispatch(fn func(h Handlers)) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	fn(m.current())
}

// sink adapts transport events to the bound handler set. It is what the
// transport sees, so rebinding handlers never requires reopening it.
type sink struct {
	m *Manager
}

func (s sink) HandleOpen() {
	s.m.mu.Lock()
	s.m.connected = true
	s.m.mu.Unlock()

	s.m.dispatch(func(h Handlers) {
		if h.OnOpen != nil {
			h.OnOpen()
		}
	})
}

func (s sink) HandleClose(err error) {
	// A late close from a superseded connection must not mark a fresh one
	// as down, so the flag follows the transport rather than the event.
	state, _ := s.m.transport.State()
	s.m.mu.Lock()
	s.m.connected = state == transport.StateOpen
	s.m.mu.Unlock()

	s.m.dispatch(func(h Handlers) {
		if h.OnClose != nil {
			h.OnClose(err)
		}
	})
}

func (s sink) HandleMessage(frame string) {
	ev, err := protocol.Decode(frame)
	if err != nil {
		log.Printf("ping session: %v; disconnecting", err)
		s.m.dispatch(func(h Handlers) {
			if h.OnMessage != nil {
				h.OnMessage(protocol.ParseFailure)
			}
		})
		s.m.Disconnect()
		return
	}

	s.m.dispatch(func(h Handlers) {
		if h.OnMessage != nil {
			h.OnMessage(ev)
		}
	})
}

func (s sink) HandleError(err error) {
	if err == nil {
		err = errors.New("transport error")
	}
	s.m.dispatch(func(h Handlers) {
		if h.OnError != nil {
			h.OnError(err)
		}
	})
}
