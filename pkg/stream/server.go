package stream

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vango-dev/goalfeed/pkg/toast"
)

// Config configures a Server.
type Config struct {
	// WriteTimeout bounds each websocket write.
	WriteTimeout time.Duration

	// PingInterval is how often idle clients are pinged.
	PingInterval time.Duration

	// SendBuffer is the per-client event buffer.
	SendBuffer int

	// CheckOrigin validates the websocket handshake origin. Nil accepts
	// same-origin requests only.
	CheckOrigin func(r *http.Request) bool

	// Logger receives connection errors. Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
		SendBuffer:   64,
	}
}

// Server pushes status indicators to websocket clients.
type Server struct {
	channel  *toast.Channel
	gatherer prometheus.Gatherer
	config   Config
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   chi.Router

	mu      sync.Mutex
	clients map[*client]struct{}
	unsub   func()
}

// New creates a server over ch. A nil gatherer disables /metrics.
func New(ch *toast.Channel, gatherer prometheus.Gatherer, config Config) *Server {
	def := DefaultConfig()
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = def.PingInterval
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = def.SendBuffer
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		channel:  ch,
		gatherer: gatherer,
		config:   config,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     config.CheckOrigin,
		},
		clients: make(map[*client]struct{}),
	}
	s.unsub = ch.Subscribe(s.broadcast)
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", s.handleStatus)
	r.Get("/status/active", s.handleActive)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Close disconnects every client and stops following the channel.
func (s *Server) Close() {
	s.unsub()
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()
	for c := range clients {
		c.close()
	}
}

func (s *Server) handleActive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.channel.Active()); err != nil {
		s.logger.Error("encode active indicators", "error", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan toast.Event, s.config.SendBuffer),
		done: make(chan struct{}),
	}

	// Register before taking the snapshot so no event falls in between.
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	for _, ind := range s.channel.Active() {
		c.enqueue(toast.Event{Name: toast.EventName, Action: toast.ActionShow, Indicator: ind})
	}

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) broadcast(ev toast.Event) {
	s.mu.Lock()
	var slow []*client
	for c := range s.clients {
		if !c.enqueue(ev) {
			slow = append(slow, c)
		}
	}
	for _, c := range slow {
		delete(s.clients, c)
	}
	s.mu.Unlock()

	for _, c := range slow {
		s.logger.Warn("status client too slow, disconnecting")
		c.close()
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
}

// readLoop discards client messages and returns when the connection drops.
func (s *Server) readLoop(c *client) {
	defer s.remove(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case ev := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteJSON(ev); err != nil {
				s.logger.Debug("status write failed", "error", err)
				s.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.remove(c)
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

type client struct {
	conn *websocket.Conn
	send chan toast.Event
	done chan struct{}
	once sync.Once
}

// enqueue queues ev and reports false when the buffer is full.
func (c *client) enqueue(ev toast.Event) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}
