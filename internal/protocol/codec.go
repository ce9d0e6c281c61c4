package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Encode serialises a command into a compact text frame. HTML characters
// are not escaped so frames match what a browser client would send.
func Encode(cmd Command) (string, error) {
	req := Request{Option: cmd.Op}
	switch cmd.Op {
	case OpStart:
		if cmd.Target == "" {
			return "", ErrEmptyTarget
		}
		req.IP = cmd.Target
	case OpStop:
	default:
		return "", fmt.Errorf("protocol: unknown op %d", cmd.Op)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(req); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// EncodeReply serialises a server reply frame.
func EncodeReply(r Reply) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// isStripped reports whether r is in the U+0000-U+0019 range removed
// from incoming frames.
func isStripped(r rune) bool {
	return r >= 0x00 && r <= 0x19
}

// Sanitize removes control characters U+0000-U+0019 from a frame. Newlines
// inside string literals are kept as the two character escape \n so that
// multi-line payloads still decode to multiple lines; carriage returns are
// dropped. Sanitize is idempotent.
func Sanitize(raw string) string {
	var (
		b        strings.Builder
		inString bool
		escaped  bool
	)
	b.Grow(len(raw))

	for _, r := range raw {
		if isStripped(r) {
			if r == '\n' && inString {
				if escaped {
					// A backslash followed by a raw newline would form an
					// invalid escape; emit it as an escaped backslash.
					b.WriteString(`\\n`)
					escaped = false
				} else {
					b.WriteString(`\n`)
				}
			}
			continue
		}

		b.WriteRune(r)

		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		}
	}
	return b.String()
}

// Decode parses a server frame. Objects carrying an "error" key become
// EventError, objects carrying a "payload" key become EventPayload and any
// other valid JSON becomes EventRaw holding the sanitized frame. A frame
// that is not valid JSON after sanitizing returns an error wrapping
// ErrDecode.
func Decode(raw string) (Event, error) {
	clean := Sanitize(raw)

	var v interface{}
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return Event{Kind: EventRaw, Text: clean}, nil
	}
	if msg, ok := obj["error"]; ok {
		return Event{Kind: EventError, Text: fieldText(msg)}, nil
	}
	if msg, ok := obj["payload"]; ok {
		return Event{Kind: EventPayload, Text: fieldText(msg)}, nil
	}
	return Event{Kind: EventRaw, Text: clean}, nil
}

func fieldText(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
