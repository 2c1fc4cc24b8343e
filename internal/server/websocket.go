package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket" //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
)

// Event is broadcast to every connected client after a document is resolved.
type Event struct {
	Type       string `json:"type"`
	DocumentID string `json:"document_id,omitempty"`
	Chains     int    `json:"chains"`
	Mentions   int    `json:"mentions"`
}

// EventResolved is the Type of a resolution event.
const EventResolved = "document_resolved"

// WebSocketHub manages WebSocket connections. Every text message a client
// sends is a JSON document answered on the same connection; resolution
// events from any surface are broadcast to all clients.
type WebSocketHub struct {
	clients    map[clientInterface]bool
	broadcast  chan interface{}
	register   chan clientInterface
	unregister chan clientInterface
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc

	handle         func(ctx context.Context, data []byte) interface{}
	originPatterns []string
	readLimit      int64
	logger         *slog.Logger
}

// clientInterface allows for both real clients and test clients.
// The hub never closes a client's send channel; drop signals the client to
// stop instead. drop is called at most once, with the hub lock held.
type clientInterface interface {
	getSendChannel() chan []byte
	drop()
	close()
}

// Client represents a WebSocket connection.
type Client struct {
	hub  *WebSocketHub
	conn *websocket.Conn //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(hub *WebSocketHub, conn *websocket.Conn) *Client { //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
		done: make(chan struct{}),
	}
}

func (c *Client) getSendChannel() chan []byte {
	return c.send
}

func (c *Client) drop() {
	c.once.Do(func() { close(c.done) })
}

func (c *Client) close() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "") //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
	}
}

// NewWebSocketHub creates a hub. handle answers one client message;
// originPatterns lists the cross-origin hosts allowed to connect.
func NewWebSocketHub(handle func(ctx context.Context, data []byte) interface{}, originPatterns []string, logger *slog.Logger) *WebSocketHub {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocketHub{
		clients:        make(map[clientInterface]bool),
		broadcast:      make(chan interface{}, 256),
		register:       make(chan clientInterface),
		unregister:     make(chan clientInterface),
		ctx:            ctx,
		cancel:         cancel,
		handle:         handle,
		originPatterns: originPatterns,
		logger:         logger,
	}
}

// Run starts the hub's message processing loop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.drop()
			}
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", "total", count)

		case message := <-h.broadcast:
			// Full Lock because we may delete from the map in the default branch.
			h.mu.Lock()
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("failed to marshal websocket message", "error", err)
				h.mu.Unlock()
				continue
			}

			for client := range h.clients {
				select {
				case client.getSendChannel() <- data:
				default:
					// Client's send channel is full, disconnect them
					client.drop()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the hub.
func (h *WebSocketHub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		client.drop()
		client.close()
	}
	h.clients = make(map[clientInterface]bool)
	h.mu.Unlock()
}

// SetReadLimit bounds the size of one client message. Zero keeps the
// library default.
func (h *WebSocketHub) SetReadLimit(n int64) {
	h.readLimit = n
}

// Broadcast sends a message to all connected clients.
func (h *WebSocketHub) Broadcast(message interface{}) {
	select {
	case h.broadcast <- message:
	default:
		h.logger.Warn("websocket broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *WebSocketHub) Register(client clientInterface) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub.
func (h *WebSocketHub) Unregister(client clientInterface) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// ServeHTTP handles WebSocket upgrade requests. Origin checks are done by
// the upgrade against originPatterns.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{ //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	if h.readLimit > 0 {
		conn.SetReadLimit(h.readLimit)
	}

	client := newClient(h, conn)

	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// writePump sends messages to the WebSocket connection.
func (c *Client) writePump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	for {
		var message []byte
		select {
		case message = <-c.send:
		case <-c.done:
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		cancel()

		if err != nil {
			c.hub.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// readPump resolves every text message and queues the answer.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.close()
	}()

	for {
		typ, data, err := c.conn.Read(c.hub.ctx) //nolint:staticcheck // TODO: migrate to github.com/coder/websocket
		if err != nil {
			return
		}
		if typ != websocket.MessageText || c.hub.handle == nil {
			continue
		}

		reply, err := json.Marshal(c.hub.handle(c.hub.ctx, data))
		if err != nil {
			c.hub.logger.Error("failed to marshal websocket reply", "error", err)
			continue
		}
		if !c.trySend(reply) {
			return
		}
	}
}

// trySend queues a reply unless the client has been dropped or its
// queue is full.
func (c *Client) trySend(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	case <-c.done:
		return false
	default:
		return false
	}
}
