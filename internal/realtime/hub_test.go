package realtime

import (
	"testing"

	"skillshare/internal/models"
)

func newTestConn(connID, userID string) *models.UserConnection {
	return &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		WriteChan: make(chan models.ServerMessage, 16),
		StopChan:  make(chan bool),
	}
}

func drain(conn *models.UserConnection) []models.ServerMessage {
	var msgs []models.ServerMessage
	for {
		select {
		case msg := <-conn.WriteChan:
			msgs = append(msgs, msg)
		default:
			return msgs
		}
	}
}

func TestHubPersonalRoomAutoJoin(t *testing.T) {
	hub := NewHub()
	conn := newTestConn("c1", "alice")
	hub.Add(conn)

	hub.EmitToUser("xp_update", map[string]int{"xpGained": 20}, "alice")

	msgs := drain(conn)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message in personal room, got %d", len(msgs))
	}
	if msgs[0].Type != "xp_update" {
		t.Errorf("Type = %s, want xp_update", msgs[0].Type)
	}
}

func TestHubSenderExclusion(t *testing.T) {
	hub := NewHub()
	sender := newTestConn("c1", "alice")
	receiver := newTestConn("c2", "bob")
	hub.Add(sender)
	hub.Add(receiver)

	room := models.PairKey("alice", "bob")
	hub.JoinRoom("c1", room)
	hub.JoinRoom("c2", room)

	hub.EmitToRoom("receive_message", map[string]string{"content": "hi"}, room, "c1")

	if got := drain(sender); len(got) != 0 {
		t.Errorf("sender received %d messages, want 0", len(got))
	}
	if got := drain(receiver); len(got) != 1 {
		t.Errorf("receiver received %d messages, want 1", len(got))
	}
}

func TestHubAtMostOncePerConnection(t *testing.T) {
	hub := NewHub()
	conn := newTestConn("c1", "alice")
	hub.Add(conn)

	room := models.PairKey("alice", "bob")
	hub.JoinRoom("c1", room)
	hub.JoinRoom("c1", room) // double join must not double deliveries

	hub.EmitToRoom("receive_message", nil, room, "")

	if got := drain(conn); len(got) != 1 {
		t.Errorf("connection received %d messages, want 1", len(got))
	}
}

func TestHubMembershipDiesWithConnection(t *testing.T) {
	hub := NewHub()
	conn := newTestConn("c1", "alice")
	hub.Add(conn)

	room := models.PairKey("alice", "bob")
	hub.JoinRoom("c1", room)
	if hub.RoomSize(room) != 1 {
		t.Fatalf("RoomSize = %d, want 1", hub.RoomSize(room))
	}

	hub.Remove("c1")

	if hub.RoomSize(room) != 0 {
		t.Errorf("RoomSize after remove = %d, want 0", hub.RoomSize(room))
	}
	if hub.Count() != 0 {
		t.Errorf("Count after remove = %d, want 0", hub.Count())
	}

	// emitting into an emptied room must not panic or deliver anywhere
	hub.EmitToRoom("receive_message", nil, room, "")
}

func TestHubEmitAfterRemoveIsSafe(t *testing.T) {
	hub := NewHub()
	conn := newTestConn("c1", "alice")
	hub.Add(conn)
	hub.Remove("c1")

	// SafeSend on a closed channel must not panic
	if ok := conn.SafeSend(models.ServerMessage{Type: "connected"}); ok {
		// a false return is expected but a quiet true is tolerable as long
		// as nothing panicked; the closed flag is what matters
		t.Log("SafeSend returned true after close")
	}
}

type recordingBridge struct {
	events []RoomEvent
}

func (b *recordingBridge) Publish(ev RoomEvent) {
	b.events = append(b.events, ev)
}

func TestHubBridgePublishAndReplay(t *testing.T) {
	hub := NewHub()
	bridge := &recordingBridge{}
	hub.SetBridge(bridge)

	conn := newTestConn("c1", "alice")
	hub.Add(conn)

	hub.EmitToUser("new_match", map[string]string{"partnerId": "bob"}, "alice")

	if len(bridge.events) != 1 {
		t.Fatalf("bridge received %d events, want 1", len(bridge.events))
	}
	drain(conn)

	// replaying a bridged event delivers locally without republishing
	hub.EmitBridged(bridge.events[0])
	if len(bridge.events) != 1 {
		t.Errorf("bridge replay looped back: %d events", len(bridge.events))
	}
	if got := drain(conn); len(got) != 1 {
		t.Errorf("replay delivered %d messages, want 1", len(got))
	}
}
