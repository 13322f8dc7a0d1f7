package services

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
	"skillshare/internal/realtime"
)

// MatchService manages directed saves and their promotion to mutual matches.
type MatchService struct {
	users    collection
	saved    collection
	matches  collection
	sessions collection
	messages collection

	cache  *ProfileCacheService
	hub    *realtime.Hub
	mailer Mailer

	now func() time.Time
}

// NewMatchService creates the match promotion service.
func NewMatchService(db *database.MongoDB, cache *ProfileCacheService, hub *realtime.Hub, mailer Mailer) *MatchService {
	return &MatchService{
		users:    db.Collection(database.CollectionUsers),
		saved:    db.Collection(database.CollectionSavedMatches),
		matches:  db.Collection(database.CollectionMatches),
		sessions: db.Collection(database.CollectionSessions),
		messages: db.Collection(database.CollectionMessages),
		cache:    cache,
		hub:      hub,
		mailer:   mailer,
		now:      time.Now,
	}
}

// SaveResult reports the outcome of a save.
type SaveResult struct {
	Mutual   bool `json:"mutual"`
	XPGained int  `json:"xpGained"`
}

// SaveMatch records a directed like from actor to target and promotes the
// pair to a mutual match when the reciprocal edge exists. Promotion is
// idempotent: the Match document id is the sorted pair key, so concurrent
// reciprocal saves collapse onto a single Match and a single initial Session.
func (m *MatchService) SaveMatch(ctx context.Context, actorID, targetID string) (*SaveResult, error) {
	if actorID == targetID {
		return nil, apperr.Invalid("cannot save yourself as a match")
	}

	count, err := m.saved.CountDocuments(ctx, bson.M{"userId": actorID, "matchedUserId": targetID})
	if err != nil {
		return nil, apperr.Unavailable("failed to check saved matches", err)
	}
	if count > 0 {
		return nil, apperr.Conflict("match already saved")
	}

	now := m.now()
	edge := models.SavedMatch{
		ID:            uuid.NewString(),
		UserID:        actorID,
		MatchedUserID: targetID,
		SavedAt:       now,
	}
	if _, err := m.saved.InsertOne(ctx, edge); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("match already saved")
		}
		return nil, apperr.Unavailable("failed to save match", err)
	}

	reciprocal, err := m.saved.CountDocuments(ctx, bson.M{"userId": targetID, "matchedUserId": actorID})
	if err != nil {
		return nil, apperr.Unavailable("failed to check reciprocal save", err)
	}
	mutual := reciprocal > 0

	if mutual {
		m.promote(ctx, actorID, targetID, now)
	}

	xpGain, streakGain := m.saveAward(ctx, targetID, mutual)

	m.cache.InvalidateUser(actorID)
	update := bson.M{"$inc": bson.M{"bonusXp": xpGain}}
	if streakGain > 0 {
		update["$inc"].(bson.M)["streak"] = streakGain
	}
	if _, err := m.users.UpdateOne(ctx, bson.M{"_id": actorID}, update); err != nil {
		log.Printf("⚠️ [MATCH] XP award failed for %s: %v", actorID, err)
	}

	return &SaveResult{Mutual: mutual, XPGained: xpGain}, nil
}

// saveAward computes the XP and streak bonus for a save. A missing target
// degrades to the base award.
func (m *MatchService) saveAward(ctx context.Context, targetID string, mutual bool) (xp, streak int) {
	xp = 20

	var target models.User
	err := m.users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target)
	if err == nil && len(target.Skills) > 0 {
		xp = 30
		streak = 1 + rand.Intn(3)
	}

	if mutual {
		xp += 50
	}
	return xp, streak
}

// promote creates the Match and initial Session for a mutual pair and fans
// out the notifications. A duplicate-key on the Match insert means the other
// direction's request already promoted; this request skips the creates.
func (m *MatchService) promote(ctx context.Context, actorID, targetID string, now time.Time) {
	u1, u2 := actorID, targetID
	if u1 > u2 {
		u1, u2 = u2, u1
	}

	match := models.Match{
		ID:        models.PairKey(actorID, targetID),
		User1ID:   u1,
		User2ID:   u2,
		Score:     100,
		Status:    models.MatchAccepted,
		CreatedAt: now,
	}
	if _, err := m.matches.InsertOne(ctx, match); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			log.Printf("🤝 [MATCH] Pair %s already promoted", match.ID)
			return
		}
		log.Printf("⚠️ [MATCH] Match insert failed for %s: %v", match.ID, err)
		return
	}

	session := models.Session{
		ID:          uuid.NewString(),
		TeacherID:   targetID,
		LearnerID:   actorID,
		Topic:       "Introductory Session",
		ScheduledAt: now,
		Duration:    30,
		Status:      models.SessionScheduled,
		CreatedAt:   now,
	}
	if _, err := m.sessions.InsertOne(ctx, session); err != nil {
		log.Printf("⚠️ [MATCH] Initial session insert failed for %s: %v", match.ID, err)
	}

	m.hub.EmitToUser("new_match", map[string]string{"partnerId": targetID}, actorID)
	m.hub.EmitToUser("new_match", map[string]string{"partnerId": actorID}, targetID)

	m.sendConfirmationMessage(ctx, actorID, targetID, session.ID, now)
	m.sendMutualEmails(ctx, actorID, targetID)

	log.Printf("🤝 [MATCH] Promoted %s", match.ID)
}

// sendConfirmationMessage persists the system match_confirmation message and
// broadcasts it to the pairwise room and both personal rooms, no exclusion.
func (m *MatchService) sendConfirmationMessage(ctx context.Context, actorID, targetID, sessionID string, now time.Time) {
	room := models.PairKey(actorID, targetID)
	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   models.SystemSenderID,
		ReceiverID: targetID,
		Content:    "It's a match! Your introductory session has been scheduled.",
		Timestamp:  now,
		Room:       room,
		Type:       models.MessageTypeMatchConfirmation,
		SessionID:  sessionID,
	}
	if _, err := m.messages.InsertOne(ctx, msg); err != nil {
		log.Printf("⚠️ [MATCH] Confirmation message insert failed: %v", err)
		return
	}

	m.hub.EmitToRoom("receive_message", msg, room, "")
	m.hub.EmitToUser("receive_message", msg, actorID)
	m.hub.EmitToUser("receive_message", msg, targetID)
}

func (m *MatchService) sendMutualEmails(ctx context.Context, actorID, targetID string) {
	var actor, target models.User
	if err := m.users.FindOne(ctx, bson.M{"_id": actorID}).Decode(&actor); err != nil {
		return
	}
	if err := m.users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target); err != nil {
		return
	}
	m.mailer.SendMutualMatch(actor.Email, actor.Name, target.Name)
	m.mailer.SendMutualMatch(target.Email, target.Name, actor.Name)
}

// UnsaveMatch removes a directed save edge.
func (m *MatchService) UnsaveMatch(ctx context.Context, actorID, targetID string) error {
	result, err := m.saved.DeleteOne(ctx, bson.M{"userId": actorID, "matchedUserId": targetID})
	if err != nil {
		return apperr.Unavailable("failed to unsave match", err)
	}
	if result.DeletedCount == 0 {
		return apperr.NotFound("saved match not found")
	}
	return nil
}

// SavedMatchView is a saved profile decorated with its compatibility score.
type SavedMatchView struct {
	models.PublicProfile
	Score   int       `json:"score"`
	SavedAt time.Time `json:"savedAt"`
	Mutual  bool      `json:"mutual"`
}

// SavedMatches lists the actor's saved profiles with scores and mutual flags.
func (m *MatchService) SavedMatches(ctx context.Context, actorID string) ([]SavedMatchView, error) {
	var me models.User
	if err := m.users.FindOne(ctx, bson.M{"_id": actorID}).Decode(&me); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user %s not found", actorID)
		}
		return nil, apperr.Unavailable("failed to load profile", err)
	}

	cursor, err := m.saved.Find(ctx, bson.M{"userId": actorID})
	if err != nil {
		return nil, apperr.Unavailable("failed to list saved matches", err)
	}
	var edges []models.SavedMatch
	if err := cursor.All(ctx, &edges); err != nil {
		return nil, apperr.Unavailable("failed to decode saved matches", err)
	}
	if len(edges) == 0 {
		return []SavedMatchView{}, nil
	}

	ids := make([]string, 0, len(edges))
	for _, e := range edges {
		ids = append(ids, e.MatchedUserID)
	}
	profiles, err := m.fetchProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]SavedMatchView, 0, len(edges))
	for _, e := range edges {
		profile, ok := profiles[e.MatchedUserID]
		if !ok {
			continue
		}
		mutualCount, _ := m.matches.CountDocuments(ctx, bson.M{"_id": models.PairKey(actorID, e.MatchedUserID)})
		views = append(views, SavedMatchView{
			PublicProfile: profile.ToPublic(),
			Score:         MatchScore(me.Skills, me.Learning, profile.Skills, profile.Learning),
			SavedAt:       e.SavedAt,
			Mutual:        mutualCount > 0,
		})
	}
	return views, nil
}

func (m *MatchService) fetchProfiles(ctx context.Context, ids []string) (map[string]*models.User, error) {
	cursor, err := m.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, apperr.Unavailable("failed to fetch profiles", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperr.Unavailable("failed to decode profiles", err)
	}

	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID, nil
}

// AcceptedMatches merges both sides of the user's accepted matches.
func (m *MatchService) AcceptedMatches(ctx context.Context, userID string) ([]models.Match, error) {
	seen := make(map[string]bool)
	var result []models.Match
	for _, filter := range []bson.M{
		{"user1Id": userID, "status": models.MatchAccepted},
		{"user2Id": userID, "status": models.MatchAccepted},
	} {
		cursor, err := m.matches.Find(ctx, filter)
		if err != nil {
			return nil, apperr.Unavailable("failed to list matches", err)
		}
		var batch []models.Match
		if err := cursor.All(ctx, &batch); err != nil {
			return nil, apperr.Unavailable("failed to decode matches", err)
		}
		for _, match := range batch {
			if !seen[match.ID] {
				seen[match.ID] = true
				result = append(result, match)
			}
		}
	}
	return result, nil
}
