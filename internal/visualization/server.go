package visualization

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nvandessel/pulse/internal/engine"
	"github.com/nvandessel/pulse/internal/neuron"
)

// Server serves the interactive canvas HTML, the network snapshot API, and
// a websocket feed of live engine events. It implements engine.Listener so
// it can be installed directly as the engine's notification sink.
type Server struct {
	engine     *engine.Engine
	hub        *hub
	logger     *slog.Logger
	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader
	mu         sync.Mutex
	addr       string
}

// NewServer creates a visualization server over the given engine.
func NewServer(eng *engine.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine: eng,
		hub:    newHub(logger),
		logger: logger,
		upgrader: websocket.Upgrader{
			// The page is served from this same server.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe starts the HTTP server on an OS-assigned port and blocks
// until the context is cancelled. Returns nil on clean shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/network", s.handleNetwork)
	mux.HandleFunc("/ws", s.handleWS)

	// Let the OS pick a free port.
	ln, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.listener = ln
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: mux}
	s.mu.Unlock()

	// Graceful shutdown when context is cancelled.
	go func() {
		<-ctx.Done()
		s.hub.closeAll()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	err = s.httpServer.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handleIndex serves the canvas page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	page, err := templates.ReadFile("templates/index.html")
	if err != nil {
		http.Error(w, "template error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

// handleNetwork serves the current network snapshot.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(RenderJSON(s.engine))
}

// handleWS upgrades the connection and registers it with the hub.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "err", err)
		return
	}
	c := s.hub.add(conn)

	// Reader loop: we expect no client messages, but reading surfaces
	// disconnects promptly.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.hub.remove(c)
				return
			}
		}
	}()
}

// ClientCount reports connected websocket clients.
func (s *Server) ClientCount() int {
	return s.hub.count()
}

// wireEvent is the JSON shape pushed over the websocket.
type wireEvent struct {
	Type    string  `json:"type"`
	ID      int64   `json:"id,omitempty"`
	Charge  float64 `json:"charge,omitempty"`
	Firing  bool    `json:"firing,omitempty"`
	Source  int64   `json:"source,omitempty"`
	Target  int64   `json:"target,omitempty"`
	Weight  float64 `json:"weight,omitempty"`
	Speed   float64 `json:"speed,omitempty"`
	DelayMS int64   `json:"delay_ms,omitempty"`
	Instant bool    `json:"instant,omitempty"`
}

// OnFire pushes a fire event to connected clients.
func (s *Server) OnFire(n *neuron.Neuron) {
	s.push(wireEvent{Type: "fire", ID: n.ID, Firing: true})
}

// OnSignal pushes a travelling-signal event to connected clients.
func (s *Server) OnSignal(sig engine.Signal) {
	s.push(wireEvent{
		Type:    "signal",
		Source:  sig.Source.ID,
		Target:  sig.Target.ID,
		Weight:  sig.Weight,
		Speed:   sig.Speed,
		DelayMS: sig.Delay.Milliseconds(),
		Instant: sig.Instant,
	})
}

// OnUpdate pushes a charge/state update to connected clients.
func (s *Server) OnUpdate(n *neuron.Neuron) {
	s.push(wireEvent{Type: "update", ID: n.ID, Charge: n.CurrentCharge, Firing: n.IsFiring})
}

func (s *Server) push(evt wireEvent) {
	if s.hub.count() == 0 {
		return
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	s.hub.broadcast(data)
}

// compile-time check that Server satisfies the engine listener contract.
var _ engine.Listener = (*Server)(nil)
