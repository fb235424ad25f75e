package realtime

import (
	"encoding/json"
	"log"
)

// Broadcaster delivers an event to all currently connected listeners.
// Delivery is fire-and-forget: no acknowledgment, no persistence, no
// replay for late joiners.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// Event is the wire envelope pushed to websocket listeners
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// Hub tracks connected websocket clients and fans broadcast events out
// to all of them
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

// NewHub creates a hub. Call Run in a goroutine before serving connections.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the client set. All registration and fan-out happens on this
// goroutine so no lock is needed.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer: drop the connection rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Broadcast emits an event to every connected listener. Failure to deliver
// is not an error: if the hub's buffer is full the event is dropped.
func (h *Hub) Broadcast(event string, payload interface{}) {
	message, err := json.Marshal(Event{Event: event, Data: payload})
	if err != nil {
		log.Printf("failed to encode broadcast event %q: %v", event, err)
		return
	}

	select {
	case h.broadcast <- message:
	default:
		log.Printf("broadcast buffer full, dropping event %q", event)
	}
}
