package transport

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout        = 10 * time.Second
	defaultMaxFrameSize = 64 << 10
)

// Option configures a WebSocket transport.
type Option func(*WebSocket)

// WithDialer replaces the default dialer. A nil dialer leaves the transport
// without socket capability: Open and State report ErrUnsupported.
func WithDialer(d *websocket.Dialer) Option {
	return func(t *WebSocket) {
		t.dialer = d
	}
}

// WithHeader sets headers sent with the opening handshake.
func WithHeader(h http.Header) Option {
	return func(t *WebSocket) {
		t.header = h
	}
}

// WithKeepalive enables ping frames every interval. The read deadline is
// extended by twice the interval on every pong. Zero disables keepalive.
func WithKeepalive(interval time.Duration) Option {
	return func(t *WebSocket) {
		t.keepalive = interval
	}
}

// WithMaxFrameSize caps the size of an incoming frame.
func WithMaxFrameSize(n int64) Option {
	return func(t *WebSocket) {
		if n > 0 {
			t.maxFrameSize = n
		}
	}
}

// WebSocket is a Transport backed by gorilla/websocket.
type WebSocket struct {
	url          string
	header       http.Header
	dialer       *websocket.Dialer
	keepalive    time.Duration
	maxFrameSize int64

	mu      sync.Mutex
	writeMu sync.Mutex // serialises all conn writes (frames, pings)
	conn    *websocket.Conn
	state   State
	gen     uint64 // bumped on every Open; identifies the live connection
	cancel  context.CancelFunc
}

// NewWebSocket creates a transport that connects to url.
func NewWebSocket(url string, opts ...Option) *WebSocket {
	t := &WebSocket{
		url:          url,
		dialer:       websocket.DefaultDialer,
		maxFrameSize: defaultMaxFrameSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// URL returns the endpoint the transport dials.
func (t *WebSocket) URL() string {
	return t.url
}

func (t *WebSocket) State() (State, error) {
	if t.dialer == nil {
		return StateDisconnected, ErrUnsupported
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state, nil
}

func (t *WebSocket) Open(sink Sink) (State, error) {
	if t.dialer == nil {
		return StateDisconnected, ErrUnsupported
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state.Live() {
		return t.state, nil
	}

	t.gen++
	ctx, cancel := context.WithCancel(context.Background())
	t.conn = nil
	t.cancel = cancel
	t.state = StateConnecting

	go t.run(ctx, t.gen, sink)

	return StateConnecting, nil
}

func (t *WebSocket) Send(frame string) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		log.Printf("ws send error: %v", err)
	}
}

func (t *WebSocket) Close() {
	t.mu.Lock()
	if !t.state.Live() {
		t.mu.Unlock()
		return
	}
	gen := t.gen
	conn, cancel := t.conn, t.cancel
	t.conn, t.cancel = nil, nil
	t.state = StateClosing
	t.mu.Unlock()

	cancel()
	if conn != nil {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout)); err != nil {
			log.Printf("ws close frame error: %v", err)
		}
		conn.Close()
	}

	t.mu.Lock()
	if t.gen == gen && t.state == StateClosing {
		t.state = StateDisconnected
	}
	t.mu.Unlock()
}

// run dials and then reads until the connection ends. It is the only
// goroutine that emits events for connection gen.
func (t *WebSocket) run(ctx context.Context, gen uint64, sink Sink) {
	conn, _, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		if t.release(gen) {
			sink.HandleError(fmt.Errorf("dial %s: %w", t.url, err))
			sink.HandleClose(err)
			return
		}
		sink.HandleClose(nil)
		return
	}

	t.mu.Lock()
	if t.gen != gen || t.state != StateConnecting {
		// Closed while the handshake was in flight.
		t.mu.Unlock()
		conn.Close()
		sink.HandleClose(nil)
		return
	}
	t.conn = conn
	t.state = StateOpen
	t.mu.Unlock()

	conn.SetReadLimit(t.maxFrameSize)
	if t.keepalive > 0 {
		pongWait := 2 * t.keepalive
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		go t.pingLoop(ctx, conn)
	}

	sink.HandleOpen()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			current := t.release(gen)
			conn.Close()
			if !current || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				sink.HandleClose(nil)
				return
			}
			sink.HandleError(fmt.Errorf("read: %w", err))
			sink.HandleClose(err)
			return
		}
		sink.HandleMessage(string(data))
	}
}

// release drops the handle of connection gen if it is still the live one.
// It reports false when the connection was already closed or superseded.
func (t *WebSocket) release(gen uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.gen != gen || !t.state.Live() {
		return false
	}
	if t.cancel != nil {
		t.cancel()
	}
	t.conn = nil
	t.cancel = nil
	t.state = StateDisconnected
	return true
}

// pingLoop sends periodic pings on conn until ctx is cancelled or a write
// fails.
func (t *WebSocket) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(t.keepalive)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.writeMu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			t.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}
