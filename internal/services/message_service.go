package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
	"skillshare/internal/realtime"
)

// MessageService persists chat messages and fans them out to rooms.
type MessageService struct {
	users    *mongo.Collection
	messages *mongo.Collection

	hub     *realtime.Hub
	matches *MatchService

	now func() time.Time
}

// NewMessageService creates the chat message service.
func NewMessageService(db *database.MongoDB, hub *realtime.Hub, matches *MatchService) *MessageService {
	return &MessageService{
		users:    db.Collection(database.CollectionUsers),
		messages: db.Collection(database.CollectionMessages),
		hub:      hub,
		matches:  matches,
		now:      time.Now,
	}
}

// Send persists a chat message and emits it to the pairwise room and the
// receiver's personal room, excluding the sender's own connection in both.
// The message is persisted before any emission.
func (m *MessageService) Send(ctx context.Context, senderID, receiverID, content, senderConnID string) (*models.Message, error) {
	if receiverID == "" || content == "" {
		return nil, apperr.Invalid("receiverId and content are required")
	}

	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		Timestamp:  m.now(),
		Room:       models.PairKey(senderID, receiverID),
	}
	if _, err := m.messages.InsertOne(ctx, msg); err != nil {
		return nil, apperr.Unavailable("failed to persist message", err)
	}

	m.hub.EmitToRoom("receive_message", msg, msg.Room, senderConnID)
	m.hub.EmitToRoom("receive_message", msg, receiverID, senderConnID)

	return &msg, nil
}

// History returns the room's messages sorted by timestamp ascending.
func (m *MessageService) History(ctx context.Context, userID, otherUserID string) ([]models.Message, error) {
	room := models.PairKey(userID, otherUserID)

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := m.messages.Find(ctx, bson.M{"room": room}, opts)
	if err != nil {
		return nil, apperr.Unavailable("failed to load history", err)
	}

	messages := []models.Message{}
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, apperr.Unavailable("failed to decode history", err)
	}
	return messages, nil
}

// Contacts derives the user's chat partners from their accepted matches.
func (m *MessageService) Contacts(ctx context.Context, userID string) ([]models.Contact, error) {
	matches, err := m.matches.AcceptedMatches(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return []models.Contact{}, nil
	}

	partnerIDs := make([]string, 0, len(matches))
	for _, match := range matches {
		partnerIDs = append(partnerIDs, match.PartnerOf(userID))
	}

	cursor, err := m.users.Find(ctx, bson.M{"_id": bson.M{"$in": partnerIDs}})
	if err != nil {
		return nil, apperr.Unavailable("failed to fetch contacts", err)
	}
	var partners []models.User
	if err := cursor.All(ctx, &partners); err != nil {
		return nil, apperr.Unavailable("failed to decode contacts", err)
	}

	contacts := make([]models.Contact, 0, len(partners))
	for _, partner := range partners {
		contacts = append(contacts, models.Contact{
			UserID: partner.ID,
			Name:   partner.Name,
			Avatar: partner.Avatar,
			Room:   models.PairKey(userID, partner.ID),
		})
	}

	log.Printf("💬 [MESSAGE] Contacts for %s: %d", userID, len(contacts))
	return contacts, nil
}
