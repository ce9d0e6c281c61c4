package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// recordingSink collects transport events on a channel.
type recordingSink struct {
	events chan string
}

func newRecordingSink() *recordingSink {
	return &recordingSink{events: make(chan string, 64)}
}

func (s *recordingSink) HandleOpen()            { s.events <- "open" }
func (s *recordingSink) HandleClose(error)      { s.events <- "close" }
func (s *recordingSink) HandleMessage(f string) { s.events <- "message:" + f }
func (s *recordingSink) HandleError(error)      { s.events <- "error" }

func (s *recordingSink) next(t *testing.T) string {
	t.Helper()
	select {
	case e := <-s.events:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return ""
	}
}

func (s *recordingSink) expectNone(t *testing.T, wait time.Duration) {
	t.Helper()
	select {
	case e := <-s.events:
		t.Fatalf("unexpected event %q", e)
	case <-time.After(wait):
	}
}

// echoServer upgrades every request and echoes text frames back. It counts
// accepted connections.
type echoServer struct {
	*httptest.Server
	mu    sync.Mutex
	conns int
}

func newEchoServer(t *testing.T) *echoServer {
	t.Helper()
	es := &echoServer{}
	es.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		es.mu.Lock()
		es.conns++
		es.mu.Unlock()
		defer c.Close()
		for {
			mt, data, err := c.ReadMessage()
			if err != nil {
				return
			}
			if err := c.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(es.Close)
	return es
}

func (es *echoServer) wsURL() string {
	return "ws" + strings.TrimPrefix(es.URL, "http")
}

func (es *echoServer) connCount() int {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.conns
}

func TestOpenSendClose(t *testing.T) {
	srv := newEchoServer(t)
	tr := NewWebSocket(srv.wsURL())
	sink := newRecordingSink()

	state, err := tr.Open(sink)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	if state != StateConnecting {
		t.Fatalf("Open() state = %v, want connecting", state)
	}
	if got := sink.next(t); got != "open" {
		t.Fatalf("first event = %q, want open", got)
	}
	if s, _ := tr.State(); s != StateOpen {
		t.Fatalf("State() = %v, want open", s)
	}

	tr.Send(`{"option":1}`)
	if got := sink.next(t); got != `message:{"option":1}` {
		t.Fatalf("event = %q, want echoed frame", got)
	}

	tr.Close()
	if s, _ := tr.State(); s != StateDisconnected {
		t.Fatalf("State() after Close = %v, want disconnected", s)
	}
	if got := sink.next(t); got != "close" {
		t.Fatalf("event = %q, want close", got)
	}
	sink.expectNone(t, 50*time.Millisecond)
}

func TestOpenIsIdempotentWhileLive(t *testing.T) {
	srv := newEchoServer(t)
	tr := NewWebSocket(srv.wsURL())
	sink := newRecordingSink()

	if _, err := tr.Open(sink); err != nil {
		t.Fatal(err)
	}
	state, err := tr.Open(sink)
	if err != nil {
		t.Fatal(err)
	}
	if !state.Live() {
		t.Fatalf("second Open() state = %v, want connecting or open", state)
	}

	if got := sink.next(t); got != "open" {
		t.Fatalf("event = %q, want open", got)
	}
	if state, _ := tr.Open(sink); state != StateOpen {
		t.Fatalf("Open() while open = %v, want open", state)
	}
	sink.expectNone(t, 100*time.Millisecond)

	if n := srv.connCount(); n != 1 {
		t.Fatalf("server accepted %d connections, want 1", n)
	}
	tr.Close()
}

func TestReopenAfterClose(t *testing.T) {
	srv := newEchoServer(t)
	tr := NewWebSocket(srv.wsURL())
	sink := newRecordingSink()

	tr.Open(sink)
	if got := sink.next(t); got != "open" {
		t.Fatalf("event = %q, want open", got)
	}
	tr.Close()

	// Close clears the handle, so Open must dial again right away even
	// though the first connection's close event may still be in flight.
	state, err := tr.Open(sink)
	if err != nil {
		t.Fatal(err)
	}
	if state != StateConnecting {
		t.Fatalf("Open() after Close = %v, want connecting", state)
	}

	seen := map[string]int{}
	for i := 0; i < 2; i++ {
		seen[sink.next(t)]++
	}
	if seen["close"] != 1 || seen["open"] != 1 {
		t.Fatalf("events = %v, want one close and one open", seen)
	}
	if s, _ := tr.State(); s != StateOpen {
		t.Fatalf("State() = %v, want open", s)
	}
	tr.Close()
}

func TestSendAndCloseWithoutConnection(t *testing.T) {
	tr := NewWebSocket("ws://127.0.0.1:1/unused")
	tr.Send("ignored")
	tr.Close()
	if s, err := tr.State(); err != nil || s != StateDisconnected {
		t.Fatalf("State() = %v, %v; want disconnected, nil", s, err)
	}
}

func TestUnsupported(t *testing.T) {
	tr := NewWebSocket("ws://example.invalid/", WithDialer(nil))
	sink := newRecordingSink()

	if _, err := tr.State(); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("State() err = %v, want ErrUnsupported", err)
	}
	if _, err := tr.Open(sink); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Open() err = %v, want ErrUnsupported", err)
	}
	sink.expectNone(t, 50*time.Millisecond)
}

func TestDialFailureEmitsErrorThenClose(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	t.Cleanup(srv.Close)

	tr := NewWebSocket(url)
	sink := newRecordingSink()
	tr.Open(sink)

	if got := sink.next(t); got != "error" {
		t.Fatalf("event = %q, want error", got)
	}
	if got := sink.next(t); got != "close" {
		t.Fatalf("event = %q, want close", got)
	}
	if s, _ := tr.State(); s != StateDisconnected {
		t.Fatalf("State() = %v, want disconnected", s)
	}
}

func TestServerDropEmitsErrorThenClose(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upgrader := websocket.Upgrader{}
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// Drop the TCP connection without a close handshake.
		c.UnderlyingConn().Close()
	}))
	t.Cleanup(srv.Close)

	tr := NewWebSocket("ws" + strings.TrimPrefix(srv.URL, "http"))
	sink := newRecordingSink()
	tr.Open(sink)

	if got := sink.next(t); got != "open" {
		t.Fatalf("event = %q, want open", got)
	}
	if got := sink.next(t); got != "error" {
		t.Fatalf("event = %q, want error", got)
	}
	if got := sink.next(t); got != "close" {
		t.Fatalf("event = %q, want close", got)
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateDisconnected, "disconnected"},
		{StateConnecting, "connecting"},
		{StateOpen, "open"},
		{StateClosing, "closing"},
		{State(42), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}
