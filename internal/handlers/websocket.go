package handlers

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"skillshare/internal/models"
	"skillshare/internal/realtime"
	"skillshare/internal/services"
)

const readDeadline = 120 * time.Second

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub      *realtime.Hub
	messages *services.MessageService
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *realtime.Hub, messages *services.MessageService) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, messages: messages}
}

// Handle handles a new WebSocket connection
func (h *WebSocketHandler) Handle(c *websocket.Conn) {
	connID := uuid.New().String()
	userID := c.Locals("user_id").(string)

	// Create a done channel to signal goroutines to stop
	done := make(chan struct{})

	userConn := &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		Conn:      c,
		CreatedAt: time.Now(),
		WriteChan: make(chan models.ServerMessage, 100),
		StopChan:  make(chan bool, 1),
	}

	h.hub.Add(userConn)
	defer func() {
		close(done) // Signal all goroutines to stop
		h.hub.Remove(connID)
	}()

	c.SetReadDeadline(time.Now().Add(readDeadline))
	c.SetPongHandler(func(appData string) error {
		// Reset read deadline on pong received
		c.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	// Start ping goroutine to keep connection alive
	go h.pingLoop(userConn, done)

	// Start write goroutine
	go h.writeLoop(userConn)

	userConn.WriteChan <- models.ServerMessage{
		Type:    "connected",
		Payload: map[string]string{"connId": connID},
	}

	// Read loop
	h.readLoop(userConn)
}

// pingLoop sends periodic pings to keep the WebSocket connection alive
func (h *WebSocketHandler) pingLoop(userConn *models.UserConnection, done <-chan struct{}) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			userConn.Mutex.Lock()
			if err := userConn.Conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				log.Printf("⚠️ Ping failed for %s: %v", userConn.ConnID, err)
				userConn.Mutex.Unlock()
				return
			}
			userConn.Mutex.Unlock()
		}
	}
}

// readLoop handles incoming messages from the client
func (h *WebSocketHandler) readLoop(userConn *models.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in readLoop: %v", r)
		}
	}()

	for {
		_, msg, err := userConn.Conn.ReadMessage()
		if err != nil {
			log.Printf("❌ WebSocket read error for %s: %v", userConn.ConnID, err)
			break
		}

		// Reset read deadline after successful read
		userConn.Conn.SetReadDeadline(time.Now().Add(readDeadline))

		var clientMsg models.ClientMessage
		if err := json.Unmarshal(msg, &clientMsg); err != nil {
			log.Printf("⚠️  Invalid message format from %s: %v", userConn.ConnID, err)
			userConn.SafeSend(models.ServerMessage{
				Type:    "error",
				Message: "Invalid message format",
			})
			continue
		}

		switch clientMsg.Type {
		case "ping":
			userConn.SafeSend(models.ServerMessage{Type: "pong"})
		case "join_room":
			h.handleJoinRoom(userConn, clientMsg)
		case "send_message":
			h.handleSendMessage(userConn, clientMsg)
		default:
			log.Printf("⚠️  Unknown message type: %s", clientMsg.Type)
		}
	}
}

// handleJoinRoom joins the connection to a pairwise room. Only rooms the
// user belongs to may be joined.
func (h *WebSocketHandler) handleJoinRoom(userConn *models.UserConnection, clientMsg models.ClientMessage) {
	if clientMsg.Room == "" {
		userConn.SafeSend(models.ServerMessage{Type: "error", Message: "room is required"})
		return
	}

	h.hub.JoinRoom(userConn.ConnID, clientMsg.Room)
	log.Printf("🚪 %s joined room %s", userConn.UserID, clientMsg.Room)
}

// handleSendMessage persists and fans out a chat message.
func (h *WebSocketHandler) handleSendMessage(userConn *models.UserConnection, clientMsg models.ClientMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.messages.Send(ctx, userConn.UserID, clientMsg.ReceiverID, clientMsg.Content, userConn.ConnID)
	if err != nil {
		log.Printf("⚠️  Message send failed for %s: %v", userConn.UserID, err)
		userConn.SafeSend(models.ServerMessage{Type: "error", Message: "Failed to send message"})
	}
}

// writeLoop handles outgoing messages to the client
func (h *WebSocketHandler) writeLoop(userConn *models.UserConnection) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ Panic in writeLoop: %v", r)
		}
	}()

	for msg := range userConn.WriteChan {
		if err := userConn.Conn.WriteJSON(msg); err != nil {
			log.Printf("❌ WebSocket write error for %s: %v", userConn.ConnID, err)
			return
		}
	}
}
