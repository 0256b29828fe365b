package websocket

import (
	"log"
	"sync"

	"github.com/meridian/oddsync/internal/store"
)

// Hub maintains the set of active clients and broadcasts edge updates
// to them.
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan *store.Edge
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *store.Edge, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case edge := <-h.broadcast:
			h.broadcastEdge(edge)
		}
	}
}

// Stop shuts the hub down and closes all client connections
func (h *Hub) Stop() {
	close(h.done)
}

// Broadcast queues an edge update for all connected clients. Non-blocking;
// drops the update if the buffer is full.
func (h *Hub) Broadcast(edge *store.Edge) {
	select {
	case h.broadcast <- edge:
	case <-h.done:
	default:
		log.Println("[ws] Broadcast buffer full, dropping edge update")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	log.Printf("[ws] Client connected (total: %d)", len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		log.Printf("[ws] Client disconnected (total: %d)", len(h.clients))
	}
}

func (h *Hub) broadcastEdge(edge *store.Edge) {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()

	for client := range h.clients {
		if !client.trySend(edge) {
			log.Println("[ws] Client send buffer full, dropping edge update")
		}
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}
