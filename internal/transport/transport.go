// Package transport owns the single socket connection of a ping session.
package transport

import "errors"

// ErrUnsupported is returned when the transport has no socket capability.
// It is permanent for the lifetime of the transport.
var ErrUnsupported = errors.New("transport: websocket unsupported")

// State is the readiness of the transport's connection.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Live reports whether a connection is being established or is established.
func (s State) Live() bool {
	return s == StateConnecting || s == StateOpen
}

// Sink receives the raw events of a connection. Events of one connection are
// delivered from a single goroutine in the order the socket produced them,
// and a connection always ends with exactly one HandleClose.
type Sink interface {
	HandleOpen()
	HandleClose(err error)
	HandleMessage(frame string)
	HandleError(err error)
}

// Transport is a bidirectional text-frame socket holding at most one live
// connection. Implementations never call the sink synchronously from Open,
// Send or Close.
type Transport interface {
	// Open starts a connection unless one is already connecting or open,
	// in which case it returns the current state.
	Open(sink Sink) (State, error)
	// Send writes a frame verbatim. It is a no-op without an open connection.
	Send(frame string)
	// Close terminates the connection and releases the handle. It is a
	// no-op when nothing is live.
	Close()
	// State returns the current state, or ErrUnsupported.
	State() (State, error)
}
