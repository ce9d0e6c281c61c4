// Package pingserver is the backend ping service: it accepts console
// sessions over WebSocket and streams ICMP probe results to them.
package pingserver

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/abemar/pingconsole/internal/config"
	"github.com/abemar/pingconsole/internal/routes"
	"github.com/gorilla/websocket"
)

// ErrTooManyConnections is returned when the client limit is reached.
var ErrTooManyConnections = errors.New("too many connections")

type Server struct {
	prober         Prober
	authToken      string
	maxClients     int
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool

	mu      sync.RWMutex
	clients map[string]*client
}

func NewServer(cfg config.ServerConfig, prober Prober) *Server {
	s := &Server{
		prober:         prober,
		authToken:      cfg.Token,
		maxClients:     cfg.MaxClients,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		clients:        make(map[string]*client),
	}

	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		s.allowedOrigins[trimmed] = true
		if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
			s.allowedHosts[parsed.Host] = true
		}
	}

	return s
}

// SetupRoutes registers the socket and auth check endpoints under the
// paths r resolves.
func (s *Server) SetupRoutes(mux *http.ServeMux, r routes.Resolver) {
	mux.HandleFunc(r.GetRoute(routes.WSConnect), s.handleWS)
	mux.HandleFunc(r.GetRoute(routes.AuthCheck), s.handleAuthCheck)
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	if s.full() {
		http.Error(w, ErrTooManyConnections.Error(), http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: s.checkOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade error: %v", err)
		return
	}

	c := newClient(conn, s.prober)
	if err := s.addClient(c); err != nil {
		log.Printf("rejecting %s: %v", r.RemoteAddr, err)
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
		conn.Close()
		return
	}
	log.Printf("client %s connected from %s (%d total)", c.id, r.RemoteAddr, s.ClientCount())

	go c.writePump()
	c.readPump()

	s.removeClient(c)
	log.Printf("client %s disconnected", c.id)
}

func (s *Server) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) full() bool {
	return s.maxClients > 0 && s.ClientCount() >= s.maxClients
}

func (s *Server) addClient(c *client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.maxClients > 0 && len(s.clients) >= s.maxClients {
		return ErrTooManyConnections
	}
	s.clients[c.id] = c
	return nil
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	delete(s.clients, c.id)
	s.mu.Unlock()
}

// ClientCount returns the number of connected consoles.
func (s *Server) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Close disconnects every client and stops their probes.
func (s *Server) Close() {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.stopProbe()
		c.close()
	}
}

func (s *Server) authorize(r *http.Request) bool {
	if s.authToken == "" {
		return true
	}

	if r.URL.Query().Get("token") == s.authToken {
		return true
	}

	if r.Header.Get("X-Ping-Token") == s.authToken {
		return true
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.authToken {
		return true
	}

	return false
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if len(s.allowedOrigins) > 0 {
		if s.allowedOrigins[origin] {
			return true
		}
		if parsed, err := url.Parse(origin); err == nil && parsed.Host != "" {
			return s.allowedHosts[parsed.Host]
		}
		return false
	}

	parsed, err := url.Parse(origin)
	if err != nil || parsed.Host == "" {
		return false
	}
	if parsed.Host == r.Host {
		return true
	}

	switch parsed.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// SecurityHeaders wraps next with the response headers every endpoint sends.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'self'")
		next.ServeHTTP(w, r)
	})
}

func ListenAndServe(host string, port int, handler http.Handler) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Printf("Server listening on %s", addr)
	return http.ListenAndServe(addr, handler)
}
