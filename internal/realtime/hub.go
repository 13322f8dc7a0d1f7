package realtime

import (
	"log"
	"sync"

	"skillshare/internal/models"
)

// Bridge republishes room emissions to other server instances. Nil-safe at
// the call site: a hub without a bridge stays single-instance.
type Bridge interface {
	Publish(event RoomEvent)
}

// RoomEvent is one emission addressed to a room.
type RoomEvent struct {
	Event   string      `json:"event"`
	Room    string      `json:"room"`
	Payload interface{} `json:"payload"`
}

// Hub manages all active WebSocket connections and their room memberships.
// Room membership is connection-scoped: it dies with the connection and the
// client rejoins after a reconnect. Every user is auto-joined to their
// personal room (room name = user id) on registration.
type Hub struct {
	connections map[string]*models.UserConnection
	rooms       map[string]map[string]bool // roomID -> set of connIDs
	mutex       sync.RWMutex
	bridge      Bridge
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		connections: make(map[string]*models.UserConnection),
		rooms:       make(map[string]map[string]bool),
	}
}

// SetBridge attaches a cross-instance event bridge.
func (h *Hub) SetBridge(b Bridge) {
	h.bridge = b
}

// Add registers a connection and joins it to the user's personal room.
func (h *Hub) Add(conn *models.UserConnection) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.connections[conn.ConnID] = conn
	h.joinLocked(conn.ConnID, conn.UserID)
	log.Printf("✅ Connection added: %s user=%s (Total: %d)", conn.ConnID, conn.UserID, len(h.connections))
}

// Remove drops a connection and all of its room memberships.
func (h *Hub) Remove(connID string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	conn, exists := h.connections[connID]
	if !exists {
		return
	}

	close(conn.WriteChan)
	close(conn.StopChan)
	delete(h.connections, connID)

	for room, members := range h.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}

	log.Printf("❌ Connection removed: %s (Total: %d)", connID, len(h.connections))
}

// Get retrieves a connection by ID
func (h *Hub) Get(connID string) (*models.UserConnection, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	conn, exists := h.connections[connID]
	return conn, exists
}

// Count returns the number of active connections
func (h *Hub) Count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.connections)
}

// JoinRoom adds the connection to a room. Joining twice is a no-op.
func (h *Hub) JoinRoom(connID, room string) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, exists := h.connections[connID]; !exists {
		return
	}
	h.joinLocked(connID, room)
}

func (h *Hub) joinLocked(connID, room string) {
	members, exists := h.rooms[room]
	if !exists {
		members = make(map[string]bool)
		h.rooms[room] = members
	}
	members[connID] = true
}

// RoomSize returns the number of connections in a room.
func (h *Hub) RoomSize(room string) int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.rooms[room])
}

// EmitToRoom delivers an event to every connection in the room except
// excludeConnID. Each connection receives the event at most once per call.
// The event is also handed to the bridge for other instances.
func (h *Hub) EmitToRoom(event string, payload interface{}, room, excludeConnID string) {
	h.emitLocal(event, payload, room, excludeConnID)

	if h.bridge != nil {
		h.bridge.Publish(RoomEvent{Event: event, Room: room, Payload: payload})
	}
}

// EmitBridged replays a bridge event into local rooms only, without
// republishing it (that would loop it back through Redis).
func (h *Hub) EmitBridged(ev RoomEvent) {
	h.emitLocal(ev.Event, ev.Payload, ev.Room, "")
}

func (h *Hub) emitLocal(event string, payload interface{}, room, excludeConnID string) {
	h.mutex.RLock()
	targets := make([]*models.UserConnection, 0, len(h.rooms[room]))
	for connID := range h.rooms[room] {
		if connID == excludeConnID {
			continue
		}
		if conn, exists := h.connections[connID]; exists {
			targets = append(targets, conn)
		}
	}
	h.mutex.RUnlock()

	msg := models.ServerMessage{Type: event, Payload: payload}
	for _, conn := range targets {
		conn.SafeSend(msg)
	}
}

// EmitToUser delivers an event to the user's personal room.
func (h *Hub) EmitToUser(event string, payload interface{}, userID string) {
	h.EmitToRoom(event, payload, userID, "")
}
