// Package transport is the thin WebSocket boundary: it deserializes client
// actions onto the controller's action queue and broadcasts the signal
// stream back out. It never touches the world; the two bounded queues are
// the only objects crossing the thread boundary.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/logisim-sim/logisim/internal/application/common"
)

var actionNamePattern = regexp.MustCompile(`^[a-z_]+\.[a-z_]+$`)

// ActionEnvelope is the inbound wire format: one JSON object per message.
type ActionEnvelope struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// SignalEnvelope is the outbound wire format.
type SignalEnvelope struct {
	Signal string         `json:"signal"`
	Data   map[string]any `json:"data"`
}

// Server owns the WebSocket endpoint and the signal broadcast pump.
type Server struct {
	actions *common.ActionQueue
	signals *common.SignalQueue

	upgrader websocket.Upgrader

	actionsPerSecond rate.Limit
	actionBurst      int

	mu      sync.Mutex
	clients map[*client]struct{}

	httpServer *http.Server
}

type client struct {
	conn *websocket.Conn
	send chan SignalEnvelope
}

// Option tweaks the server's defaults.
type Option func(*Server)

// WithActionRateLimit overrides the per-connection inbound action throttle.
func WithActionRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.actionsPerSecond = rate.Limit(perSecond)
		s.actionBurst = burst
	}
}

// NewServer creates a transport server over the two queues.
func NewServer(actions *common.ActionQueue, signals *common.SignalQueue, opts ...Option) *Server {
	s := &Server{
		actions: actions,
		signals: signals,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		actionsPerSecond: 50,
		actionBurst:      100,
		clients:          make(map[*client]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Routes returns the HTTP handler serving the WebSocket endpoint and a
// health probe; callers may mount extra handlers (metrics) beside it.
func (s *Server) Routes(extra map[string]http.Handler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	for path, handler := range extra {
		mux.Handle(path, handler)
	}
	return mux
}

// ListenAndServe starts the HTTP server and the signal broadcast pump,
// blocking until ctx is cancelled; shutdown is bounded by a 5s deadline.
func (s *Server) ListenAndServe(ctx context.Context, host string, port int, extra map[string]http.Handler) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", host, port),
		Handler: s.Routes(extra),
	}

	pumpDone := make(chan struct{})
	go s.pumpSignals(ctx, pumpDone)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	<-pumpDone
	return err
}

// pumpSignals fans the signal queue out to every connected client. A slow
// client's buffer overflowing drops signals for that client only.
func (s *Server) pumpSignals(ctx context.Context, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-s.signals.Chan():
			envelope := SignalEnvelope{Signal: sig.Name, Data: sig.Data}
			s.mu.Lock()
			for c := range s.clients {
				select {
				case c.send <- envelope:
				default:
					log.Printf("transport: dropping signal %s for slow client", sig.Name)
				}
			}
			s.mu.Unlock()
		}
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("transport: upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan SignalEnvelope, 256)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)
	s.readLoop(c)
}

func (s *Server) removeClient(c *client) {
	s.mu.Lock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
	s.mu.Unlock()
	_ = c.conn.Close()
}

// readLoop parses one action per message. Malformed or throttled actions
// produce an error reply to this client only; the connection stays open.
func (s *Server) readLoop(c *client) {
	defer s.removeClient(c)
	limiter := rate.NewLimiter(s.actionsPerSecond, s.actionBurst)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var envelope ActionEnvelope
		if err := json.Unmarshal(raw, &envelope); err != nil {
			s.replyError(c, "invalid_params", "message is not a JSON action object")
			continue
		}
		if !actionNamePattern.MatchString(envelope.Action) {
			s.replyError(c, "invalid_params", fmt.Sprintf("malformed action name %q", envelope.Action))
			continue
		}
		if !limiter.Allow() {
			s.replyError(c, "rate_limited", "too many actions")
			continue
		}
		if err := s.actions.Put(common.Action{Name: envelope.Action, Params: envelope.Params}); err != nil {
			s.replyError(c, "queue_overflow", "action queue is full")
		}
	}
}

// replyError sends an error signal to a single client without going
// through the shared signal queue.
func (s *Server) replyError(c *client, code, message string) {
	select {
	case c.send <- SignalEnvelope{Signal: "error", Data: map[string]any{"code": code, "message": message}}:
	default:
	}
}

func (s *Server) writeLoop(c *client) {
	for envelope := range c.send {
		if err := c.conn.WriteJSON(envelope); err != nil {
			return
		}
	}
}
