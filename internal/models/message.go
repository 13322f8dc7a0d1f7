package models

import "time"

// Message type markers for system-generated messages
const (
	MessageTypeMatchConfirmation = "match_confirmation"
	MessageTypeProjectInvite     = "project_invite"
)

// SystemSenderID authors platform-generated messages so clients never render
// them as written by either participant.
const SystemSenderID = "system"

// Message is a persisted chat message. The collection is append-only; edits
// and deletes are not supported.
type Message struct {
	ID         string    `bson:"_id" json:"id"`
	SenderID   string    `bson:"senderId" json:"senderId"`
	ReceiverID string    `bson:"receiverId" json:"receiverId"`
	Content    string    `bson:"content" json:"content"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
	Read       bool      `bson:"read" json:"read"`
	Room       string    `bson:"room" json:"room"`
	IsRequest  bool      `bson:"isRequest,omitempty" json:"isRequest,omitempty"`
	Type       string    `bson:"type,omitempty" json:"type,omitempty"`
	SessionID  string    `bson:"sessionId,omitempty" json:"sessionId,omitempty"`
	ProjectID  string    `bson:"projectId,omitempty" json:"projectId,omitempty"`
}

// Contact is a chat partner derived from an accepted match.
type Contact struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Room   string `json:"room"`
}
