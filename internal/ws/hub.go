package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Event is a WebSocket message to be broadcast.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// tableEvent routes an event to one table's room plus the staff room.
type tableEvent struct {
	TableID uuid.UUID
	Event   Event
}

// Hub maintains the set of active clients and broadcasts order events to
// them. Guests join the room of their table; staff screens join the global
// room and see every table.
type Hub struct {
	// Guest clients by table ID
	rooms map[uuid.UUID]map[*Client]bool

	// Staff clients watching all tables
	staff map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan *tableEvent

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		staff:      make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *tableEvent, 256),
	}
}

// Run starts the hub's main loop.
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.global {
				h.staff[client] = true
			} else {
				if h.rooms[client.tableID] == nil {
					h.rooms[client.tableID] = make(map[*Client]bool)
				}
				h.rooms[client.tableID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()

		case event := <-h.broadcast:
			h.mu.Lock()

			// Marshal once for every recipient
			message, err := json.Marshal(event.Event)
			if err != nil {
				h.mu.Unlock()
				continue
			}

			for client := range h.rooms[event.TableID] {
				h.deliver(client, message)
			}
			for client := range h.staff {
				h.deliver(client, message)
			}
			h.mu.Unlock()
		}
	}
}

// deliver sends to one client, dropping it if its buffer is full.
// Caller must hold h.mu.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.drop(client)
	}
}

// drop removes a client and cleans up its room. Caller must hold h.mu.
func (h *Hub) drop(client *Client) {
	if client.global {
		if _, ok := h.staff[client]; ok {
			delete(h.staff, client)
			close(client.send)
		}
		return
	}
	if clients, ok := h.rooms[client.tableID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)
			if len(clients) == 0 {
				delete(h.rooms, client.tableID)
			}
		}
	}
}

// BroadcastToTable sends an event to the table's guests and every staff
// screen. This is the public API used by the order publisher.
func (h *Hub) BroadcastToTable(tableID uuid.UUID, event Event) {
	h.broadcast <- &tableEvent{
		TableID: tableID,
		Event:   event,
	}
}
