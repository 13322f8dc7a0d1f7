package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
	"skillshare/internal/realtime"
)

// SessionService owns the session lifecycle and the incremental XP path.
// Completion awards persist xp/level/sessions/totalHours directly; the batch
// stats recompute never touches those fields.
type SessionService struct {
	users    *mongo.Collection
	sessions *mongo.Collection
	messages *mongo.Collection

	cache  *ProfileCacheService
	hub    *realtime.Hub
	mailer Mailer

	now func() time.Time
}

// NewSessionService creates the session lifecycle service.
func NewSessionService(db *database.MongoDB, cache *ProfileCacheService, hub *realtime.Hub, mailer Mailer) *SessionService {
	return &SessionService{
		users:    db.Collection(database.CollectionUsers),
		sessions: db.Collection(database.CollectionSessions),
		messages: db.Collection(database.CollectionMessages),
		cache:    cache,
		hub:      hub,
		mailer:   mailer,
		now:      time.Now,
	}
}

// CreateSessionInput is the client payload for a new session request.
type CreateSessionInput struct {
	TeacherID   string    `json:"teacherId"`
	LearnerID   string    `json:"learnerId"`
	Topic       string    `json:"topic"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Duration    int       `json:"duration"`
	MeetLink    string    `json:"meetLink"`
}

// Create persists a new PENDING session and fans out an automated request
// message to the pair's room and the partner's personal room.
func (s *SessionService) Create(ctx context.Context, actorID string, input CreateSessionInput) (*models.Session, error) {
	if input.TeacherID == "" || input.LearnerID == "" {
		return nil, apperr.Invalid("teacherId and learnerId are required")
	}
	if actorID != input.TeacherID && actorID != input.LearnerID {
		return nil, apperr.Forbidden("must be a participant of the session")
	}
	if input.Duration <= 0 {
		input.Duration = 30
	}

	now := s.now()
	session := models.Session{
		ID:          uuid.NewString(),
		TeacherID:   input.TeacherID,
		LearnerID:   input.LearnerID,
		Topic:       input.Topic,
		ScheduledAt: input.ScheduledAt,
		Duration:    input.Duration,
		MeetLink:    input.MeetLink,
		Status:      models.SessionPending,
		CreatedAt:   now,
	}
	if _, err := s.sessions.InsertOne(ctx, session); err != nil {
		return nil, apperr.Unavailable("failed to create session", err)
	}

	partnerID := session.PartnerOf(actorID)
	s.fanoutSessionMessage(ctx, actorID, partnerID, models.Message{
		ID:         uuid.NewString(),
		SenderID:   actorID,
		ReceiverID: partnerID,
		Content:    fmt.Sprintf("Session request: %s", session.Topic),
		Timestamp:  now,
		Room:       models.PairKey(actorID, partnerID),
		IsRequest:  true,
		SessionID:  session.ID,
	})

	s.cache.InvalidateSessions(input.TeacherID)
	s.cache.InvalidateSessions(input.LearnerID)

	log.Printf("📅 [SESSION] Created %s (%s ↔ %s)", session.ID, session.TeacherID, session.LearnerID)
	return &session, nil
}

// fanoutSessionMessage persists an automated message and delivers it to the
// pairwise room and the receiver's personal room.
func (s *SessionService) fanoutSessionMessage(ctx context.Context, senderID, receiverID string, msg models.Message) {
	if _, err := s.messages.InsertOne(ctx, msg); err != nil {
		log.Printf("⚠️ [SESSION] Message insert failed: %v", err)
		return
	}
	s.hub.EmitToRoom("receive_message", msg, msg.Room, "")
	s.hub.EmitToUser("receive_message", msg, receiverID)
}

// validateSessionUpdates filters a raw update payload down to the fields a
// participant may change and coerces each one to its schema type. Writing a
// mistyped value (a string duration, say) would poison the document for every
// later decode, so anything non-coercible is rejected up front.
func validateSessionUpdates(updates map[string]interface{}) (bson.M, error) {
	set := bson.M{}
	for key, value := range updates {
		switch key {
		case "status", "meetLink", "notes":
			s, ok := value.(string)
			if !ok {
				return nil, apperr.Invalid("%s must be a string", key)
			}
			set[key] = s
		case "duration":
			n, ok := models.CoerceInt(value)
			if !ok || n <= 0 {
				return nil, apperr.Invalid("duration must be a positive integer number of minutes")
			}
			set[key] = n
		case "scheduledAt":
			switch v := value.(type) {
			case time.Time:
				set[key] = v
			case string:
				ts, err := time.Parse(time.RFC3339, v)
				if err != nil {
					return nil, apperr.Invalid("scheduledAt must be an RFC 3339 timestamp")
				}
				set[key] = ts
			default:
				return nil, apperr.Invalid("scheduledAt must be an RFC 3339 timestamp")
			}
		}
	}
	return set, nil
}

// Update applies allow-listed changes to a session. Only participants may
// update. Status changes are validated against the lifecycle; moving to
// COMPLETED awards XP to both participants, and accepting a PENDING request
// sends confirmation messages and emails.
func (s *SessionService) Update(ctx context.Context, actorID, sessionID string, updates map[string]interface{}) (*models.Session, error) {
	var session models.Session
	if err := s.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("session %s not found", sessionID)
		}
		return nil, apperr.Unavailable("failed to load session", err)
	}

	if !session.IsParticipant(actorID) {
		return nil, apperr.Forbidden("must be a participant of the session")
	}

	set, err := validateSessionUpdates(updates)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return &session, nil
	}

	newStatus := session.Status
	if raw, ok := set["status"]; ok {
		status := raw.(string)
		if !models.CanTransitionSession(session.Status, status) {
			return nil, apperr.Invalid("cannot transition session from %s to %s", session.Status, status)
		}
		newStatus = status
	}

	if _, err := s.sessions.UpdateOne(ctx, bson.M{"_id": sessionID}, bson.M{"$set": set}); err != nil {
		return nil, apperr.Unavailable("failed to update session", err)
	}

	completing := newStatus == models.SessionCompleted && session.Status != models.SessionCompleted
	accepting := session.Status == models.SessionPending && newStatus == models.SessionScheduled

	if completing {
		s.awardCompletion(ctx, &session)
	}
	if accepting {
		s.confirmSession(ctx, actorID, &session)
	}

	s.cache.InvalidateSessions(session.TeacherID)
	s.cache.InvalidateSessions(session.LearnerID)

	if err := s.sessions.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&session); err != nil {
		return nil, apperr.Unavailable("failed to reload session", err)
	}
	return &session, nil
}

// CompletionXP is the XP each participant earns for a completed session.
func CompletionXP(duration int) int {
	return 50 + 10*(duration/30)
}

// awardCompletion grants both participants the completion XP and updates
// their persisted level, session count and hours.
func (s *SessionService) awardCompletion(ctx context.Context, session *models.Session) {
	xpGain := CompletionXP(session.Duration)
	hours := round1(float64(session.Duration) / 60)

	for _, userID := range []string{session.TeacherID, session.LearnerID} {
		var user models.User
		if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			log.Printf("⚠️ [SESSION] Completion award skipped for %s: %v", userID, err)
			continue
		}

		newXP := user.XP + xpGain
		update := bson.M{
			"$set": bson.M{
				"level": CompletionLevel(newXP),
			},
			"$inc": bson.M{
				"xp":         xpGain,
				"sessions":   1,
				"totalHours": hours,
				"bonusXp":    xpGain,
			},
		}

		s.cache.InvalidateUser(userID)
		if _, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
			log.Printf("⚠️ [SESSION] Completion award failed for %s: %v", userID, err)
			continue
		}

		s.hub.EmitToUser("xp_update", map[string]interface{}{
			"xpGained": xpGain,
			"totalXp":  newXP,
		}, userID)
		if newLevel := CompletionLevel(newXP); newLevel > user.Level {
			s.hub.EmitToUser("level_up", map[string]interface{}{"level": newLevel}, userID)
		}
	}

	log.Printf("🎉 [SESSION] Completed %s, +%d XP each", session.ID, xpGain)
}

// confirmSession fans out the scheduling confirmation and emails both
// participants, all best-effort.
func (s *SessionService) confirmSession(ctx context.Context, actorID string, session *models.Session) {
	partnerID := session.PartnerOf(actorID)
	now := s.now()

	s.fanoutSessionMessage(ctx, actorID, partnerID, models.Message{
		ID:         uuid.NewString(),
		SenderID:   actorID,
		ReceiverID: partnerID,
		Content:    fmt.Sprintf("Session confirmed: %s", session.Topic),
		Timestamp:  now,
		Room:       models.PairKey(session.TeacherID, session.LearnerID),
		SessionID:  session.ID,
	})

	for _, userID := range []string{session.TeacherID, session.LearnerID} {
		var user models.User
		if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
			continue
		}
		s.mailer.SendSessionConfirmation(user.Email, user.Name, session.Topic, session.ScheduledAt)
	}
}

// List returns the user's sessions decorated with partner display info,
// served from the sessions cache when fresh.
func (s *SessionService) List(ctx context.Context, userID string) ([]models.SessionView, error) {
	if cached, found := s.cache.GetSessions(userID); found {
		return cached, nil
	}

	seen := make(map[string]bool)
	var sessions []models.Session
	for _, filter := range []bson.M{
		{"teacherId": userID},
		{"learnerId": userID},
	} {
		cursor, err := s.sessions.Find(ctx, filter)
		if err != nil {
			return nil, apperr.Unavailable("failed to list sessions", err)
		}
		var batch []models.Session
		if err := cursor.All(ctx, &batch); err != nil {
			return nil, apperr.Unavailable("failed to decode sessions", err)
		}
		for _, sess := range batch {
			if !seen[sess.ID] {
				seen[sess.ID] = true
				sessions = append(sessions, sess)
			}
		}
	}

	partnerIDs := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		partnerIDs = append(partnerIDs, sess.PartnerOf(userID))
	}
	partners := s.batchProfiles(ctx, partnerIDs)

	views := make([]models.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		partnerID := sess.PartnerOf(userID)
		role := "learner"
		if sess.TeacherID == userID {
			role = "teacher"
		}
		view := models.SessionView{
			Session:   sess,
			PartnerID: partnerID,
			Role:      role,
		}
		if partner, ok := partners[partnerID]; ok {
			view.PartnerName = partner.Name
			view.PartnerAvatar = partner.Avatar
		}
		views = append(views, view)
	}

	s.cache.SetSessions(userID, views)
	return views, nil
}

func (s *SessionService) batchProfiles(ctx context.Context, ids []string) map[string]*models.User {
	byID := make(map[string]*models.User)
	if len(ids) == 0 {
		return byID
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		log.Printf("⚠️ [SESSION] Partner fetch failed: %v", err)
		return byID
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		log.Printf("⚠️ [SESSION] Partner decode failed: %v", err)
		return byID
	}
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	return byID
}
