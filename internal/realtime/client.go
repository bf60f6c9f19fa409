package realtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/cypherlabdev/maestro-tips/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBufferSize = 256
)

// Message types exchanged over the socket
const (
	MessageTypeTipEvent    = "tip_event"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
	MessageTypeSubscribed  = "subscribed"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeError       = "error"
)

// ClientMessage is what a subscriber sends
type ClientMessage struct {
	Type       string   `json:"type"`
	Categories []string `json:"categories,omitempty"`
}

// ServerMessage is what the hub sends
type ServerMessage struct {
	Type      string    `json:"type"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Registry is the part of the hub a client talks back to
type Registry interface {
	Unregister(c *Client)
}

// Client is a single websocket subscriber
type Client struct {
	ID   string
	Send chan ServerMessage

	conn      *websocket.Conn
	hub       Registry
	logger    zerolog.Logger
	done      chan struct{}
	closeOnce sync.Once

	filterMu   sync.RWMutex
	categories map[models.Category]bool
}

// NewClient creates a client with no category filter
func NewClient(id string, conn *websocket.Conn, hub Registry, logger zerolog.Logger) *Client {
	return &Client{
		ID:     id,
		Send:   make(chan ServerMessage, sendBufferSize),
		conn:   conn,
		hub:    hub,
		logger: logger.With().Str("client_id", id).Logger(),
		done:   make(chan struct{}),
	}
}

// ReadPump reads subscriber commands until the connection drops
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}

		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Debug().Err(err).Msg("unexpected close")
			}
			return
		}
		c.handle(msg)
	}
}

// WritePump drains Send onto the connection and keeps it alive with pings
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case msg := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.logger.Debug().Err(err).Msg("write failed")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Close marks the client as evicted and stops its write pump. Send is
// never closed, so the read pump may keep replying until it notices.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Done is closed once the client has been evicted
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// TrySend queues a message without blocking. It reports false when the
// buffer is full or the client is closed.
func (c *Client) TrySend(msg ServerMessage) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// Matches reports whether the client wants the event. Events without a
// category (deletions) go to everyone.
func (c *Client) Matches(event models.TipEvent) bool {
	c.filterMu.RLock()
	defer c.filterMu.RUnlock()

	if len(c.categories) == 0 || event.Category == "" {
		return true
	}
	return c.categories[event.Category]
}

// SetCategories replaces the filter. An empty list receives everything.
func (c *Client) SetCategories(categories []models.Category) {
	c.filterMu.Lock()
	defer c.filterMu.Unlock()

	c.categories = make(map[models.Category]bool, len(categories))
	for _, cat := range categories {
		c.categories[cat] = true
	}
}

func (c *Client) handle(msg ClientMessage) {
	switch msg.Type {
	case MessageTypeSubscribe:
		categories := make([]models.Category, 0, len(msg.Categories))
		for _, raw := range msg.Categories {
			cat, err := models.ParseCategory(raw)
			if err != nil {
				c.sendError(err.Error())
				return
			}
			categories = append(categories, cat)
		}
		c.SetCategories(categories)
		c.TrySend(ServerMessage{Type: MessageTypeSubscribed, Payload: categories, Timestamp: time.Now().UTC()})

	case MessageTypeUnsubscribe:
		c.SetCategories(nil)
		c.TrySend(ServerMessage{Type: MessageTypeSubscribed, Payload: []models.Category{}, Timestamp: time.Now().UTC()})

	case MessageTypePing:
		c.TrySend(ServerMessage{Type: MessageTypePong, Timestamp: time.Now().UTC()})

	default:
		c.sendError(fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (c *Client) sendError(message string) {
	c.TrySend(ServerMessage{
		Type:      MessageTypeError,
		Payload:   map[string]string{"message": message},
		Timestamp: time.Now().UTC(),
	})
}
