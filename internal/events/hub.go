// Package events fans settlement events out to WebSocket clients and
// in-process subscribers. Delivery is best-effort: the hub never blocks
// or fails a settlement.
package events

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"msc-ledger/internal/domain"
	"msc-ledger/internal/observability"
)

// subscriberBuffer bounds each in-process subscriber channel. A full
// channel drops the event rather than stalling the publisher.
const subscriberBuffer = 64

// clientBuffer bounds each WebSocket client's outbound queue. A full
// queue disconnects the client rather than stalling the publisher.
const clientBuffer = 64

// writeWait bounds a single WebSocket write so a stalled peer cannot
// hold the writer goroutine.
const writeWait = 5 * time.Second

// client is one WebSocket connection with its outbound queue.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub broadcasts settlement events to connected WebSocket clients and
// subscribed channels.
type Hub struct {
	mu          sync.Mutex
	clients     map[*client]struct{}
	subscribers map[chan *domain.SettlementEvent]struct{}
	upgrader    websocket.Upgrader
	logger      *log.Logger
}

// NewHub creates an empty event hub.
func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(os.Stdout, "[events] ", log.LstdFlags)
	}
	return &Hub{
		clients:     make(map[*client]struct{}),
		subscribers: make(map[chan *domain.SettlementEvent]struct{}),
		upgrader:    websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		logger:      logger,
	}
}

// Publish delivers an event to every client and subscriber. It only ever
// queues: the network writes happen on per-client goroutines, so a slow
// or stalled client is disconnected and slow subscribers miss the event.
func (h *Hub) Publish(event *domain.SettlementEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Printf("failed to marshal event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.logger.Printf("websocket client queue full, disconnecting")
			h.removeClientLocked(c)
			observability.DefaultMetrics.EventsDropped.Inc()
		}
	}

	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			observability.DefaultMetrics.EventsDropped.Inc()
		}
	}
}

// removeClientLocked drops a client and closes its connection. Call with
// the hub lock held; calling twice for the same client is safe.
func (h *Hub) removeClientLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
	c.conn.Close()
	observability.DefaultMetrics.WSClientsActive.Dec()
}

func (h *Hub) removeClient(c *client) {
	h.mu.Lock()
	h.removeClientLocked(c)
	h.mu.Unlock()
}

// writeLoop drains a client's queue onto its connection.
func (h *Hub) writeLoop(c *client) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.logger.Printf("websocket write error: %v", err)
			h.removeClient(c)
			return
		}
	}
}

// Subscribe registers an in-process consumer. The returned cancel func
// removes the subscription and closes the channel.
func (h *Hub) Subscribe() (<-chan *domain.SettlementEvent, func()) {
	ch := make(chan *domain.SettlementEvent, subscriberBuffer)

	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subscribers[ch]; ok {
			delete(h.subscribers, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Handler returns an http.HandlerFunc that accepts WebSocket connections.
func (h *Hub) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Printf("websocket upgrade error: %v", err)
			return
		}
		c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
		h.mu.Lock()
		h.clients[c] = struct{}{}
		h.mu.Unlock()
		observability.DefaultMetrics.WSClientsActive.Inc()

		go h.writeLoop(c)

		// Read loop keeps the connection alive and detects closes.
		go func() {
			defer h.removeClient(c)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Close disconnects all clients and closes all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		h.removeClientLocked(c)
	}
	for ch := range h.subscribers {
		delete(h.subscribers, ch)
		close(ch)
	}
}
