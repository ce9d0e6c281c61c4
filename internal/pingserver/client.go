package pingserver

import (
	"encoding/json"
	"log"
	"net"
	"sync"
	"time"

	"github.com/abemar/pingconsole/internal/protocol"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
	sendQueueSize  = 16
)

// client is one console connection. It runs at most one probe at a time.
type client struct {
	id     string
	conn   *websocket.Conn
	prober Prober
	send   chan []byte
	done   chan struct{}
	once   sync.Once

	mu    sync.Mutex
	probe Probe
}

func newClient(conn *websocket.Conn, prober Prober) *client {
	return &client{
		id:     uuid.NewString(),
		conn:   conn,
		prober: prober,
		send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

func (c *client) close() {
	c.once.Do(func() { close(c.done) })
}

// write queues a frame. A client whose queue is full is dropped.
func (c *client) write(reply protocol.Reply) {
	data, err := protocol.EncodeReply(reply)
	if err != nil {
		log.Printf("client %s: encode reply: %v", c.id, err)
		return
	}
	select {
	case c.send <- data:
	case <-c.done:
	default:
		log.Printf("client %s too slow, disconnecting", c.id)
		c.close()
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		c.close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Printf("client %s: write: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("client %s: ping timeout: %v", c.id, err)
				return
			}
		case <-c.done:
			c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// readPump handles requests until the connection fails. It runs on the
// handler goroutine.
func (c *client) readPump() {
	defer func() {
		c.stopProbe()
		c.close()
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("client %s: read: %v", c.id, err)
			}
			return
		}

		var req protocol.Request
		if err := json.Unmarshal(data, &req); err != nil {
			log.Printf("client %s: error decoding request: %v", c.id, err)
			continue
		}

		switch req.Option {
		case protocol.OpStart:
			c.startProbe(req.IP)
		case protocol.OpStop:
			c.stopProbe()
		default:
			log.Printf("client %s: unknown option %d", c.id, req.Option)
		}
	}
}

// startProbe replaces any running probe with one against ip.
func (c *client) startProbe(ip string) {
	if net.ParseIP(ip) == nil {
		c.write(protocol.Reply{Error: "Invalid IP!"})
		return
	}

	c.stopProbe()

	p, err := c.prober.New(ip)
	if err != nil {
		log.Printf("client %s: start probe: %v", c.id, err)
		c.write(protocol.Reply{Error: err.Error()})
		return
	}

	c.mu.Lock()
	c.probe = p
	c.mu.Unlock()

	log.Printf("client %s: probing %s", c.id, ip)
	go c.runProbe(p)
}

func (c *client) runProbe(p Probe) {
	summary, err := p.Run(func(r Reply) {
		c.write(protocol.Reply{Payload: formatReply(r)})
	})

	c.mu.Lock()
	superseded := c.probe != nil && c.probe != p
	if c.probe == p {
		c.probe = nil
	}
	c.mu.Unlock()

	if err != nil {
		log.Printf("client %s: probe: %v", c.id, err)
		c.write(protocol.Reply{Error: err.Error()})
		return
	}
	if !superseded {
		c.write(protocol.Reply{Payload: formatSummary(summary)})
	}
}

func (c *client) stopProbe() {
	c.mu.Lock()
	p := c.probe
	c.probe = nil
	c.mu.Unlock()

	if p != nil {
		p.Stop()
	}
}
