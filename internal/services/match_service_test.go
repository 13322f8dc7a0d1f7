package services

import (
	"context"
	"testing"
	"time"

	"skillshare/internal/apperr"
	"skillshare/internal/models"
	"skillshare/internal/realtime"
)

type nopMailer struct{}

func (nopMailer) SendWelcome(email, name string)                                           {}
func (nopMailer) SendMutualMatch(email, name, partnerName string)                          {}
func (nopMailer) SendSessionConfirmation(email, name, topic string, scheduledAt time.Time) {}
func (nopMailer) SendProjectInvitation(email, name, projectTitle, ownerName string)        {}

func newTestMatchService(hub *realtime.Hub) *MatchService {
	return &MatchService{
		users:    newMemCollection(),
		saved:    newMemCollection([]string{"userId", "matchedUserId"}),
		matches:  newMemCollection(),
		sessions: newMemCollection(),
		messages: newMemCollection(),
		cache:    NewProfileCacheService(time.Minute),
		hub:      hub,
		mailer:   nopMailer{},
		now:      time.Now,
	}
}

func attachConn(hub *realtime.Hub, connID, userID string) *models.UserConnection {
	conn := &models.UserConnection{
		ConnID:    connID,
		UserID:    userID,
		WriteChan: make(chan models.ServerMessage, 100),
		StopChan:  make(chan bool),
	}
	hub.Add(conn)
	return conn
}

func countEvents(conn *models.UserConnection, event string) int {
	count := 0
	for {
		select {
		case msg := <-conn.WriteChan:
			if msg.Type == event {
				count++
			}
		default:
			return count
		}
	}
}

func seedUser(t *testing.T, users collection, user models.User) {
	t.Helper()
	if _, err := users.InsertOne(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", user.ID, err)
	}
}

func seedEdge(t *testing.T, saved collection, from, to string) {
	t.Helper()
	edge := models.SavedMatch{ID: from + "-" + to, UserID: from, MatchedUserID: to, SavedAt: time.Now()}
	if _, err := saved.InsertOne(context.Background(), edge); err != nil {
		t.Fatalf("seed edge %s->%s: %v", from, to, err)
	}
}

func TestSaveMatchDuplicateIsConflict(t *testing.T) {
	ctx := context.Background()
	svc := newTestMatchService(realtime.NewHub())
	seedUser(t, svc.users, models.User{ID: "alice", Email: "a@x.test", Name: "Alice"})
	seedUser(t, svc.users, models.User{ID: "bob", Email: "b@x.test", Name: "Bob"})

	if _, err := svc.SaveMatch(ctx, "alice", "bob"); err != nil {
		t.Fatalf("first save: %v", err)
	}

	_, err := svc.SaveMatch(ctx, "alice", "bob")
	if apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("second save error = %v, want conflict", err)
	}
}

func TestSaveMatchRacingDuplicateIsConflict(t *testing.T) {
	// the pre-insert count can race another request; the unique index on
	// (userId, matchedUserId) is the real guard and must still map to conflict
	ctx := context.Background()
	svc := newTestMatchService(realtime.NewHub())
	saved := svc.saved.(*memCollection)
	seedEdge(t, saved, "alice", "bob")
	svc.saved = zeroCountCollection{saved}

	_, err := svc.SaveMatch(ctx, "alice", "bob")
	if apperr.CodeOf(err) != apperr.CodeConflict {
		t.Fatalf("racing save error = %v, want conflict", err)
	}
}

func TestSaveMatchSelfIsInvalid(t *testing.T) {
	svc := newTestMatchService(realtime.NewHub())
	_, err := svc.SaveMatch(context.Background(), "alice", "alice")
	if apperr.CodeOf(err) != apperr.CodeInvalid {
		t.Fatalf("self save error = %v, want invalid", err)
	}
}

func TestMutualPromotionExactlyOnce(t *testing.T) {
	ctx := context.Background()
	hub := realtime.NewHub()
	aliceConn := attachConn(hub, "conn-alice", "alice")
	bobConn := attachConn(hub, "conn-bob", "bob")

	svc := newTestMatchService(hub)
	seedUser(t, svc.users, models.User{ID: "alice", Email: "a@x.test", Name: "Alice", Skills: []string{"go"}})
	seedUser(t, svc.users, models.User{ID: "bob", Email: "b@x.test", Name: "Bob", Skills: []string{"piano"}})
	seedEdge(t, svc.saved, "alice", "bob")

	result, err := svc.SaveMatch(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("reciprocal save: %v", err)
	}
	if !result.Mutual {
		t.Error("expected mutual result")
	}
	if result.XPGained != 80 {
		t.Errorf("XPGained = %d, want 80", result.XPGained)
	}

	matches := svc.matches.(*memCollection)
	if len(matches.docs) != 1 {
		t.Fatalf("match docs = %d, want 1", len(matches.docs))
	}
	if got := matches.docs[0]["_id"]; got != models.PairKey("alice", "bob") {
		t.Errorf("match id = %v, want %s", got, models.PairKey("alice", "bob"))
	}

	sessions := svc.sessions.(*memCollection)
	if len(sessions.docs) != 1 {
		t.Fatalf("session docs = %d, want 1", len(sessions.docs))
	}
	if got := sessions.docs[0]["teacherId"]; got != "alice" {
		t.Errorf("introductory session teacher = %v, want alice", got)
	}
	if got := sessions.docs[0]["status"]; got != models.SessionScheduled {
		t.Errorf("introductory session status = %v, want %s", got, models.SessionScheduled)
	}

	messages := svc.messages.(*memCollection)
	if len(messages.docs) != 1 {
		t.Fatalf("message docs = %d, want 1", len(messages.docs))
	}
	if got := messages.docs[0]["senderId"]; got != models.SystemSenderID {
		t.Errorf("confirmation sender = %v, want %s", got, models.SystemSenderID)
	}
	if got := messages.docs[0]["type"]; got != models.MessageTypeMatchConfirmation {
		t.Errorf("confirmation type = %v, want %s", got, models.MessageTypeMatchConfirmation)
	}

	if got := countEvents(aliceConn, "new_match"); got != 1 {
		t.Errorf("alice new_match events = %d, want 1", got)
	}
	if got := countEvents(bobConn, "new_match"); got != 1 {
		t.Errorf("bob new_match events = %d, want 1", got)
	}
}

func TestMutualPromotionRaceCreatesNoSecondSession(t *testing.T) {
	// the other direction already promoted the pair; this request must not
	// create another session or re-notify, but the save is still mutual
	ctx := context.Background()
	hub := realtime.NewHub()
	aliceConn := attachConn(hub, "conn-alice", "alice")
	bobConn := attachConn(hub, "conn-bob", "bob")

	svc := newTestMatchService(hub)
	seedUser(t, svc.users, models.User{ID: "alice", Email: "a@x.test", Name: "Alice", Skills: []string{"go"}})
	seedUser(t, svc.users, models.User{ID: "bob", Email: "b@x.test", Name: "Bob"})
	seedEdge(t, svc.saved, "alice", "bob")

	existing := models.Match{
		ID:        models.PairKey("alice", "bob"),
		User1ID:   "alice",
		User2ID:   "bob",
		Score:     100,
		Status:    models.MatchAccepted,
		CreatedAt: time.Now(),
	}
	if _, err := svc.matches.InsertOne(ctx, existing); err != nil {
		t.Fatalf("seed match: %v", err)
	}

	result, err := svc.SaveMatch(ctx, "bob", "alice")
	if err != nil {
		t.Fatalf("reciprocal save: %v", err)
	}
	if !result.Mutual {
		t.Error("expected mutual result despite lost race")
	}

	if got := len(svc.sessions.(*memCollection).docs); got != 0 {
		t.Errorf("session docs = %d, want 0", got)
	}
	if got := len(svc.messages.(*memCollection).docs); got != 0 {
		t.Errorf("message docs = %d, want 0", got)
	}
	if got := countEvents(aliceConn, "new_match"); got != 0 {
		t.Errorf("alice new_match events = %d, want 0", got)
	}
	if got := countEvents(bobConn, "new_match"); got != 0 {
		t.Errorf("bob new_match events = %d, want 0", got)
	}
}

func TestUnsaveMatchMissingIsNotFound(t *testing.T) {
	svc := newTestMatchService(realtime.NewHub())
	err := svc.UnsaveMatch(context.Background(), "alice", "bob")
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		t.Fatalf("unsave error = %v, want not_found", err)
	}
}
