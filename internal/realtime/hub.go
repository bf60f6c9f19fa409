// Package realtime pushes tip lifecycle events to websocket subscribers.
package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

const broadcastBufferSize = 1000

// ErrBufferFull is returned by Publish when the hub cannot keep up
var ErrBufferFull = errors.New("broadcast buffer full")

// Hub maintains the set of connected clients and fans events out to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan models.TipEvent
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	upgrader websocket.Upgrader
	logger   zerolog.Logger
}

// NewHub creates a hub. allowedOrigins empty means any origin may connect.
func NewHub(allowedOrigins []string, logger zerolog.Logger) *Hub {
	h := &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan models.TipEvent, broadcastBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With().Str("component", "realtime_hub").Logger(),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// Run processes registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info().Msg("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			close(h.done)
			return
		case c := <-h.register:
			h.registerClient(c)
		case c := <-h.unregister:
			h.unregisterClient(c)
		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub. After the hub has stopped the
// client is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

// Unregister removes a client from the hub. It returns immediately once
// the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
		c.Close()
	}
}

// Broadcast queues an event for delivery. It never blocks; when the
// buffer is full the event is dropped and false is returned.
func (h *Hub) Broadcast(event models.TipEvent) bool {
	select {
	case h.broadcast <- event:
		return true
	default:
		h.logger.Warn().Str("tip_id", event.TipID).Str("type", string(event.Type)).Msg("broadcast buffer full, dropping event")
		return false
	}
}

// Publish lets the hub stand in for the event bus when Kafka is disabled
func (h *Hub) Publish(_ context.Context, event models.TipEvent) error {
	if !h.Broadcast(event) {
		return ErrBufferFull
	}
	return nil
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// ServeWS upgrades requests to websocket connections. Client pumps are
// bound to ctx rather than the request so they outlive the handler.
func (h *Hub) ServeWS(ctx context.Context) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		c := NewClient(uuid.NewString(), conn, h, h.logger)
		h.Register(c)

		go c.WritePump(ctx)
		go c.ReadPump(ctx)
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.logger.Debug().Str("client_id", c.ID).Int("clients", len(h.clients)).Msg("client connected")
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.Close()
		h.logger.Debug().Str("client_id", c.ID).Int("clients", len(h.clients)).Msg("client disconnected")
	}
}

// broadcastEvent delivers an event to every client whose filter matches.
// Clients with a full send buffer are disconnected.
func (h *Hub) broadcastEvent(event models.TipEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	msg := ServerMessage{
		Type:      MessageTypeTipEvent,
		Payload:   event,
		Timestamp: time.Now().UTC(),
	}

	for _, c := range clients {
		if !c.Matches(event) {
			continue
		}
		if !c.TrySend(msg) {
			h.logger.Warn().Str("client_id", c.ID).Msg("client too slow, disconnecting")
			go h.Unregister(c)
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info().Int("clients", len(h.clients)).Msg("hub shutting down")
	for c := range h.clients {
		c.Close()
		delete(h.clients, c)
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
