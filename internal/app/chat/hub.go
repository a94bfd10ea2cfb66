/*
Package chat contains the core logic for real-time room presence, chat
broadcasting, and peer-connection signaling.

This file defines the Hub, the process-wide index of live connections and
per-room broadcast groups. It fans events out to room members and delivers
unicast events to single connections.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"peerchat/internal/pkg/logx"
)

// RoomKey derives the broadcast group name from the numeric room id.
func RoomKey(roomID int64) string {
	return fmt.Sprintf("room_%d", roomID)
}

// Hub tracks every live connection and the broadcast group each one is
// subscribed to. Group membership is transport-level state; it must stay
// consistent with the PresenceTable, which the coordinator guarantees by being
// the only writer of both.
type Hub struct {
	// mu protects clients and groups.
	mu sync.RWMutex

	// clients maps connection id to its Client.
	clients map[string]*Client

	// groups maps a room key to the set of subscribed connections.
	groups map[string]map[string]*Client

	// structured logger with Hub context.
	logger zerolog.Logger
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		groups:  make(map[string]map[string]*Client),
		logger:  logx.Logger().With().Str("component", "Hub").Logger(),
	}
}

// Register adds a freshly connected client to the index.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c.ID()] = c
	h.logger.Info().Str("conn_id", c.ID()).Int("total_connections", len(h.clients)).Msg("Connection registered.")
}

// Unregister removes the client from the index and from every group it was
// subscribed to, and closes its send queue.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[c.ID()]; !ok || current != c {
		return
	}

	delete(h.clients, c.ID())

	for key, members := range h.groups {
		if _, ok := members[c.ID()]; ok {
			delete(members, c.ID())
			if len(members) == 0 {
				delete(h.groups, key)
			}
		}
	}

	c.closeSend()

	h.logger.Info().Str("conn_id", c.ID()).Int("total_connections", len(h.clients)).Msg("Connection unregistered.")
}

// Subscribe adds the client to the room's broadcast group.
func (h *Hub) Subscribe(roomID int64, c *Client) {
	key := RoomKey(roomID)

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[key]
	if !ok {
		members = make(map[string]*Client)
		h.groups[key] = members
	}
	members[c.ID()] = c
}

// Unsubscribe removes the connection from the room's broadcast group.
func (h *Hub) Unsubscribe(roomID int64, connID string) {
	key := RoomKey(roomID)

	h.mu.Lock()
	defer h.mu.Unlock()

	members, ok := h.groups[key]
	if !ok {
		return
	}

	delete(members, connID)
	if len(members) == 0 {
		delete(h.groups, key)
	}
}

// marshalFrame serializes an event envelope once so fan-out shares the bytes.
func (h *Hub) marshalFrame(event string, payload any) ([]byte, error) {
	envelope, err := NewEnvelope(event, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope)
}

// Broadcast delivers the event to every member of the room's group.
func (h *Hub) Broadcast(roomID int64, event string, payload any) {
	h.BroadcastExcept(roomID, "", event, payload)
}

// BroadcastExcept delivers the event to every member of the room's group
// except the connection with exceptConnID.
func (h *Hub) BroadcastExcept(roomID int64, exceptConnID string, event string, payload any) {
	frame, err := h.marshalFrame(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Error marshaling event for broadcast.")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for connID, client := range h.groups[RoomKey(roomID)] {
		if connID == exceptConnID {
			continue
		}

		if !client.enqueue(frame) {
			h.logger.Warn().
				Str("conn_id", connID).
				Str("event", event).
				Msg("Client send queue full, dropping broadcast event.")
		}
	}
}

// Unicast delivers the event to exactly one connection. It reports false when
// the connection is unknown (disconnected) or its queue is full.
func (h *Hub) Unicast(connID string, event string, payload any) bool {
	frame, err := h.marshalFrame(event, payload)
	if err != nil {
		h.logger.Error().Err(err).Str("event", event).Msg("Error marshaling event for unicast.")
		return false
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()

	if !ok {
		return false
	}

	if !client.enqueue(frame) {
		h.logger.Warn().
			Str("conn_id", connID).
			Str("event", event).
			Msg("Client send queue full, dropping unicast event.")
		return false
	}

	return true
}

// Shutdown closes the send queue of every registered client, terminating their
// write pumps.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		client.closeSend()
	}
	h.clients = make(map[string]*Client)
	h.groups = make(map[string]map[string]*Client)

	h.logger.Info().Msg("Hub shutdown complete.")
}
