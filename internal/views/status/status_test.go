package status

import (
	"strings"
	"testing"

	"github.com/abemar/pingconsole/internal/transport"
)

func TestView(t *testing.T) {
	tests := []struct {
		name  string
		state transport.State
		err   error
		want  string
	}{
		{"open", transport.StateOpen, nil, "Connected"},
		{"connecting", transport.StateConnecting, nil, "Connecting"},
		{"closing", transport.StateClosing, nil, "Closing"},
		{"disconnected", transport.StateDisconnected, nil, "Disconnected"},
		{"unsupported", transport.StateDisconnected, transport.ErrUnsupported, "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New("ws://router.lan/api/ws/onConnect/")
			m.Width = 120
			m.SetState(tt.state, tt.err)
			v := m.View()
			if !strings.Contains(v, tt.want) {
				t.Errorf("View() = %q, want it to contain %q", v, tt.want)
			}
			if !strings.Contains(v, "router.lan") {
				t.Error("View() should show the endpoint")
			}
		})
	}
}

func TestViewTarget(t *testing.T) {
	m := New("")
	m.Width = 80
	m.SetState(transport.StateOpen, nil)
	m.Target = "8.8.8.8"
	if v := m.View(); !strings.Contains(v, "pinging 8.8.8.8") {
		t.Errorf("View() = %q, want target", v)
	}
}
