package ws

import (
	"context"
	"encoding/json"
	"log"

	"parkwise/internal/domain"
)

// slotUpdate is the wire shape of a slot status push.
type slotUpdate struct {
	SlotID int    `json:"slot_id"`
	AreaID int    `json:"area_id"`
	Number string `json:"number"`
	Status string `json:"status"`
}

// Hub fans slot status changes out to connected websocket clients.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
}

// NewHub creates a Hub. Run must be started before clients attach.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
	}
}

// Run drives the hub until the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			return
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
					// Slow client; drop it rather than stall the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// SlotChanged publishes a slot transition to every connected client.
func (h *Hub) SlotChanged(slot domain.ParkingSlot) {
	payload, err := json.Marshal(slotUpdate{
		SlotID: slot.ID,
		AreaID: slot.AreaID,
		Number: slot.Number,
		Status: string(slot.Status),
	})
	if err != nil {
		log.Printf("ws: marshal slot update: %v", err)
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		log.Printf("ws: broadcast queue full, dropping slot %d update", slot.ID)
	}
}
