// Package protocol implements the ping wire protocol spoken between the
// console and the ping backend. Client frames are commands, server frames
// are decoded into events.
package protocol

import "errors"

var (
	// ErrEmptyTarget is returned when a start command has no target.
	ErrEmptyTarget = errors.New("protocol: empty ping target")

	// ErrDecode marks a server frame that is not valid JSON even after
	// control characters were stripped.
	ErrDecode = errors.New("protocol: undecodable frame")
)

// Op is the request option understood by the backend.
type Op int

const (
	OpStart Op = 0
	OpStop  Op = 1
)

func (o Op) String() string {
	switch o {
	case OpStart:
		return "start"
	case OpStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Command is a client request. Target is only meaningful for OpStart.
type Command struct {
	Op     Op
	Target string
}

// Start returns a command that starts probing target.
func Start(target string) Command {
	return Command{Op: OpStart, Target: target}
}

// Stop returns a command that stops the running probe.
func Stop() Command {
	return Command{Op: OpStop}
}

// Request is the JSON shape of a client frame.
type Request struct {
	Option Op     `json:"option"`
	IP     string `json:"ip,omitempty"`
}

// Reply is the JSON shape of a server frame. Exactly one field is set.
type Reply struct {
	Error   string `json:"error,omitempty"`
	Payload string `json:"payload,omitempty"`
}

// EventKind identifies the kind of a decoded server frame.
type EventKind int

const (
	EventError EventKind = iota
	EventPayload
	EventRaw
)

func (k EventKind) String() string {
	switch k {
	case EventError:
		return "error"
	case EventPayload:
		return "payload"
	case EventRaw:
		return "raw"
	default:
		return "unknown"
	}
}

// Event is a decoded server frame.
type Event struct {
	Kind EventKind
	Text string
}

// ParseFailure is the event synthesized when a frame cannot be decoded.
var ParseFailure = Event{Kind: EventError, Text: "parse failure"}
