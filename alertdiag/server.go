// Package alertdiag is an ambient diagnostics surface for an
// alert.Dispatcher: a read-only websocket endpoint streaming periodic
// statistics snapshots to a local debug client. It is not part of the
// alert delivery path -- it exists purely so an operator can watch a
// dispatcher's queue depth and drop rate live, the way a host might
// tail a transport's TransportStatistics.
package alertdiag

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fernando-rodriguez/alertqueue/alert"
)

// Config configures a Server.
type Config struct {
	// Interval is how often a connected client receives a snapshot.
	Interval time.Duration

	// Logger receives connection-lifecycle and write-failure messages.
	// Defaults to log.Default() if nil.
	Logger *log.Logger
}

// DefaultConfig returns the default polling interval (1s, matching
// alert.DefaultDispatcherConfig's MetricsInterval).
func DefaultConfig() Config {
	return Config{Interval: time.Second}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Diagnostics is a local debugging surface, not a public endpoint;
	// callers deploying it past localhost should front it with their
	// own origin check.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server polls a Dispatcher's Statistics on a fixed interval and fans
// the JSON-encoded snapshot out to every connected websocket client.
type Server struct {
	d      *alert.Dispatcher
	cfg    Config
	logger *log.Logger

	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewServer constructs a Server for d. Register it (its ServeHTTP) with
// an http.ServeMux to expose it.
func NewServer(d *alert.Dispatcher, cfg Config) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Server{
		d:       d,
		cfg:     cfg,
		logger:  cfg.Logger,
		clients: make(map[*websocket.Conn]struct{}),
	}
}

// ServeHTTP upgrades the request to a websocket connection and keeps it
// registered for broadcast until the client disconnects.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("alertdiag: upgrade failed: %v", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	// Diagnostics is push-only; drain and discard anything the client
	// sends so the connection's read deadline machinery keeps working
	// and a client close is observed promptly.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Run polls the dispatcher's statistics every cfg.Interval and
// broadcasts a snapshot to every connected client, until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			s.broadcast(s.d.Statistics())
		}
	}
}

func (s *Server) broadcast(stats alert.Statistics) {
	payload, err := json.Marshal(stats)
	if err != nil {
		s.logger.Printf("alertdiag: marshal snapshot: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.clients {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			s.logger.Printf("alertdiag: write to client failed: %v", err)
			delete(s.clients, conn)
			conn.Close()
		}
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.clients {
		conn.Close()
		delete(s.clients, conn)
	}
}
