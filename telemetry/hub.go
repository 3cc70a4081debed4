// Package telemetry streams cube poses to websocket clients and accepts
// remote reset requests.
package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"cubedrop/simulation"
)

const writeTimeout = 2 * time.Second

// Snapshot is the JSON message sent to clients after each frame
type Snapshot struct {
	Type          string     `json:"type"`
	Frame         uint64     `json:"frame"`
	BodyID        string     `json:"bodyId"`
	Position      [3]float64 `json:"position"`
	Orientation   [4]float64 `json:"orientation"` // w, x, y, z
	Sleeping      bool       `json:"sleeping"`
	SimulatedTime float64    `json:"simTime"`
	SubSteps      int        `json:"subSteps"`
	Respawns      uint64     `json:"respawns"`
}

// Command is a message received from a client
type Command struct {
	Type string `json:"type"`
}

// Hub fans frame snapshots out to every connected client. The frame driver
// hands snapshots over without blocking; a slow hub only sees the latest.
type Hub struct {
	events   *simulation.EventQueue
	log      *slog.Logger
	upgrader websocket.Upgrader

	updates chan Snapshot

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
	latest  *Snapshot
}

func NewHub(events *simulation.EventQueue, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		events: events,
		log:    log.With("component", "telemetry"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		updates: make(chan Snapshot, 1),
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// ObserveFrame implements simulation.Observer
func (h *Hub) ObserveFrame(s simulation.FrameStats) {
	snap := Snapshot{
		Type:          "frame",
		Frame:         s.Frame,
		BodyID:        s.BodyID.String(),
		Position:      s.Pose.Position,
		Orientation:   [4]float64{s.Pose.Orientation.W, s.Pose.Orientation.V[0], s.Pose.Orientation.V[1], s.Pose.Orientation.V[2]},
		Sleeping:      s.Sleeping,
		SimulatedTime: s.SimulatedTime,
		SubSteps:      s.SubSteps,
		Respawns:      s.Respawns,
	}
	select {
	case h.updates <- snap:
		return
	default:
	}
	// replace the stale snapshot
	select {
	case <-h.updates:
	default:
	}
	select {
	case h.updates <- snap:
	default:
	}
}

// Run broadcasts snapshots until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case snap := <-h.updates:
			h.mu.Lock()
			h.latest = &snap
			h.mu.Unlock()
			h.broadcast(snap)
		}
	}
}

// Handler serves the websocket on /ws and the latest snapshot on /state
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.handleWebSocket)
	mux.HandleFunc("/state", h.handleState)
	return mux
}

// ListenAndServe serves Handler on addr until ctx is done
func (h *Hub) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: h.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	h.log.Info("telemetry listening", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) handleState(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	latest := h.latest
	h.mu.RUnlock()
	if latest == nil {
		http.Error(w, "no frame yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(latest)
}

func (h *Hub) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	h.mu.Lock()
	h.clients[conn] = connMutex
	latest := h.latest
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()
	h.log.Debug("client connected", "remote", r.RemoteAddr)

	if latest != nil {
		h.send(conn, connMutex, *latest)
	}

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("websocket read ended", "err", err)
			}
			return
		}
		switch cmd.Type {
		case "reset":
			if !h.events.Push(simulation.Event{Kind: simulation.EventReset, Source: "telemetry"}) {
				h.log.Warn("event queue full, remote reset dropped")
			}
		default:
			h.log.Debug("unknown command", "type", cmd.Type)
		}
	}
}

func (h *Hub) send(conn *websocket.Conn, connMutex *sync.Mutex, snap Snapshot) error {
	connMutex.Lock()
	defer connMutex.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(snap)
}

func (h *Hub) broadcast(snap Snapshot) {
	h.mu.RLock()
	var failed []*websocket.Conn
	for conn, connMutex := range h.clients {
		if err := h.send(conn, connMutex, snap); err != nil {
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()

	if len(failed) > 0 {
		h.mu.Lock()
		for _, conn := range failed {
			delete(h.clients, conn)
			conn.Close()
		}
		h.mu.Unlock()
		h.log.Debug("dropped failed clients", "count", len(failed))
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(h.clients, conn)
	}
}
