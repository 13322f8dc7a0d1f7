package services

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
	"skillshare/internal/realtime"
)

// StatsService derives gamification stats (XP, level, trust score, streak,
// daily goal) from activity data. Recomputes are gated by maxAge; session
// completion awards flow through SessionService's incremental path and are
// never overwritten here.
type StatsService struct {
	users    collection
	sessions collection
	matches  collection
	projects collection
	messages collection

	cache  *ProfileCacheService
	hub    *realtime.Hub
	maxAge time.Duration

	now func() time.Time
}

// NewStatsService creates the stats service. maxAge gates how often derived
// stats are recomputed per user.
func NewStatsService(db *database.MongoDB, cache *ProfileCacheService, hub *realtime.Hub, maxAge time.Duration) *StatsService {
	return &StatsService{
		users:    db.Collection(database.CollectionUsers),
		sessions: db.Collection(database.CollectionSessions),
		matches:  db.Collection(database.CollectionMatches),
		projects: db.Collection(database.CollectionProjects),
		messages: db.Collection(database.CollectionMessages),
		cache:    cache,
		hub:      hub,
		maxAge:   maxAge,
		now:      time.Now,
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// LevelForXP is the display-level formula used by the batch recompute.
func LevelForXP(xp int) int {
	return 1 + xp/500
}

// CompletionLevel is the persisted-level formula used when a session
// completes. It intentionally differs from LevelForXP; the completion path
// owns the persisted level field.
func CompletionLevel(xp int) int {
	return xp/100 + 1
}

// TrustScore combines average peer rating with capped activity bonuses.
func TrustScore(avgRating float64, completedSessions, projectCount, streak, messageCount int) float64 {
	score := avgRating
	score += math.Min(0.5*float64(completedSessions), 10)
	score += math.Min(1.0*float64(projectCount), 5)
	score += math.Min(0.2*float64(streak/7), 5)
	score += math.Min(0.1*float64(messageCount/10), 3)
	return round1(math.Min(score, 100))
}

// AverageRating returns the mean rating score, 0 for no ratings.
func AverageRating(ratings []models.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	total := 0.0
	for _, r := range ratings {
		total += r.Score
	}
	return total / float64(len(ratings))
}

// sameDay reports whether two instants fall on the same UTC calendar day.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// NextStreak computes the streak value after a check-in at now.
func NextStreak(current int, lastCheckIn *time.Time, now time.Time) int {
	if lastCheckIn != nil && sameDay(lastCheckIn.AddDate(0, 0, 1), now) {
		return current + 1
	}
	return 1
}

// EnsureFresh returns the user's profile with derived stats recomputed when
// lastCalculated is older than the staleness gate. Only dailyGoalProgress,
// trustScore and lastCalculated are persisted; xp, level, sessions and
// totalHours stay owned by the session-completion path.
func (s *StatsService) EnsureFresh(ctx context.Context, userID string) (*models.User, error) {
	if user, found := s.cache.GetUser(userID); found {
		return user, nil
	}

	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.Unavailable("failed to load user", err)
	}

	now := s.now()
	if user.LastCalculated != nil && now.Sub(*user.LastCalculated) < s.maxAge {
		s.cache.SetUser(&user)
		return &user, nil
	}

	s.recompute(ctx, &user, now)

	s.cache.InvalidateUser(userID)
	update := bson.M{"$set": bson.M{
		"dailyGoalProgress": user.DailyGoalProgress,
		"trustScore":        user.TrustScore,
		"lastCalculated":    now,
	}}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return nil, apperr.Unavailable("failed to persist stats", err)
	}
	user.LastCalculated = &now
	s.cache.SetUser(&user)

	return &user, nil
}

// recompute derives stats from activity. Each parallel fetch degrades to an
// empty result on error so a single failing collection never blocks the
// profile read.
func (s *StatsService) recompute(ctx context.Context, user *models.User, now time.Time) {
	var (
		sessions []models.Session
		matches  []models.Match
		projects []models.Project
		msgCount int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sessions = s.fetchConfirmedSessions(gctx, user.ID)
		return nil
	})
	g.Go(func() error {
		matches = s.fetchMatches(gctx, user.ID)
		return nil
	})
	g.Go(func() error {
		projects = s.fetchUserProjects(gctx, user.ID)
		return nil
	})
	g.Go(func() error {
		count, err := s.messages.CountDocuments(gctx, bson.M{"senderId": user.ID})
		if err != nil {
			log.Printf("⚠️ [STATS] Message count failed for %s: %v", user.ID, err)
			return nil
		}
		msgCount = int(count)
		return nil
	})
	g.Wait()

	totalMinutes := user.BonusMinutes
	completed := 0
	dailyGoal := 0
	for _, sess := range sessions {
		totalMinutes += sess.Duration
		if sess.Status == models.SessionCompleted {
			completed++
		}
		if sameDay(sess.ScheduledAt, now) {
			dailyGoal++
		}
	}
	for _, m := range matches {
		if sameDay(m.CreatedAt, now) {
			dailyGoal++
		}
	}

	xp := len(sessions)*100 + totalMinutes*2 + user.BonusXP
	level := LevelForXP(xp)
	trust := TrustScore(AverageRating(user.Ratings), completed, len(projects), user.Streak, msgCount)

	if xp > user.XP {
		s.hub.EmitToUser("xp_update", map[string]interface{}{
			"xpGained": xp - user.XP,
			"totalXp":  xp,
		}, user.ID)
	}
	if level > user.Level {
		s.hub.EmitToUser("level_up", map[string]interface{}{
			"level": level,
		}, user.ID)
	}

	// Derived display values. Only dailyGoalProgress and trustScore are
	// persisted; xp/level/totalHours here decorate the response and never
	// clobber the session-completion path's persisted counters.
	user.DailyGoalProgress = dailyGoal
	user.TrustScore = trust
	user.XP = xp
	user.Level = level
	user.TotalHours = round1(float64(totalMinutes) / 60)
}

// fetchConfirmedSessions merges teacher-side and learner-side cursors over
// confirmed sessions, de-duplicating by id.
func (s *StatsService) fetchConfirmedSessions(ctx context.Context, userID string) []models.Session {
	statuses := bson.M{"$in": []string{models.SessionScheduled, models.SessionCompleted}}

	seen := make(map[string]bool)
	var result []models.Session
	for _, filter := range []bson.M{
		{"teacherId": userID, "status": statuses},
		{"learnerId": userID, "status": statuses},
	} {
		cursor, err := s.sessions.Find(ctx, filter)
		if err != nil {
			log.Printf("⚠️ [STATS] Session fetch failed for %s: %v", userID, err)
			continue
		}
		var batch []models.Session
		if err := cursor.All(ctx, &batch); err != nil {
			log.Printf("⚠️ [STATS] Session decode failed for %s: %v", userID, err)
			continue
		}
		for _, sess := range batch {
			if !seen[sess.ID] {
				seen[sess.ID] = true
				result = append(result, sess)
			}
		}
	}
	return result
}

// fetchMatches merges both sides of the matches collection for the user.
func (s *StatsService) fetchMatches(ctx context.Context, userID string) []models.Match {
	seen := make(map[string]bool)
	var result []models.Match
	for _, filter := range []bson.M{
		{"user1Id": userID},
		{"user2Id": userID},
	} {
		cursor, err := s.matches.Find(ctx, filter)
		if err != nil {
			log.Printf("⚠️ [STATS] Match fetch failed for %s: %v", userID, err)
			continue
		}
		var batch []models.Match
		if err := cursor.All(ctx, &batch); err != nil {
			log.Printf("⚠️ [STATS] Match decode failed for %s: %v", userID, err)
			continue
		}
		for _, m := range batch {
			if !seen[m.ID] {
				seen[m.ID] = true
				result = append(result, m)
			}
		}
	}
	return result
}

func (s *StatsService) fetchUserProjects(ctx context.Context, userID string) []models.Project {
	cursor, err := s.projects.Find(ctx, bson.M{"memberIds": userID})
	if err != nil {
		log.Printf("⚠️ [STATS] Project fetch failed for %s: %v", userID, err)
		return nil
	}
	var projects []models.Project
	if err := cursor.All(ctx, &projects); err != nil {
		log.Printf("⚠️ [STATS] Project decode failed for %s: %v", userID, err)
		return nil
	}
	return projects
}

// CheckInResult reports the outcome of a daily check-in.
type CheckInResult struct {
	BonusXP          int  `json:"bonusXp"`
	Streak           int  `json:"streak"`
	AlreadyCheckedIn bool `json:"alreadyCheckedIn"`
}

const checkInBonus = 10

// CheckIn records a daily check-in. The second call on the same calendar day
// is a no-op with zero bonus.
func (s *StatsService) CheckIn(ctx context.Context, userID string) (*CheckInResult, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.Unavailable("failed to load user", err)
	}

	now := s.now()
	if user.LastCheckIn != nil && sameDay(*user.LastCheckIn, now) {
		return &CheckInResult{Streak: user.Streak, AlreadyCheckedIn: true}, nil
	}

	streak := NextStreak(user.Streak, user.LastCheckIn, now)

	s.cache.InvalidateUser(userID)
	update := bson.M{
		"$set": bson.M{"streak": streak, "lastCheckIn": now},
		"$inc": bson.M{"bonusXp": checkInBonus},
	}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": userID}, update); err != nil {
		return nil, apperr.Unavailable("failed to persist check-in", err)
	}

	log.Printf("🔥 [STATS] Check-in: %s streak=%d", userID, streak)
	return &CheckInResult{BonusXP: checkInBonus, Streak: streak}, nil
}

// RateUser records a peer rating, one slot per rater, and persists the
// resulting average trust immediately (no staleness gate).
func (s *StatsService) RateUser(ctx context.Context, raterID, targetID string, score float64) (float64, error) {
	if raterID == targetID {
		return 0, apperr.Forbidden("cannot rate yourself")
	}
	if score < 0 || score > 100 {
		return 0, apperr.Invalid("score must be between 0 and 100")
	}

	var target models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": targetID}).Decode(&target); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, apperr.NotFound("user %s not found", targetID)
		}
		return 0, apperr.Unavailable("failed to load user", err)
	}

	ratings := upsertRating(target.Ratings, raterID, score)
	trust := round1(AverageRating(ratings))

	s.cache.InvalidateUser(targetID)
	update := bson.M{"$set": bson.M{"ratings": ratings, "trustScore": trust}}
	if _, err := s.users.UpdateOne(ctx, bson.M{"_id": targetID}, update); err != nil {
		return 0, apperr.Unavailable("failed to persist rating", err)
	}

	return trust, nil
}

// upsertRating replaces an existing rating by the same rater or appends.
func upsertRating(ratings []models.Rating, raterID string, score float64) []models.Rating {
	for i, r := range ratings {
		if r.RaterID == raterID {
			ratings[i].Score = score
			return ratings
		}
	}
	return append(ratings, models.Rating{RaterID: raterID, Score: score})
}

// LeaderboardEntry is one ranked row.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Level  int    `json:"level"`
	XP     int    `json:"xp"`
	Streak int    `json:"streak"`
}

// Leaderboard ranks all users by xp or streak and returns the top 50 plus
// the caller's own rank.
func (s *StatsService) Leaderboard(ctx context.Context, userID, sortBy string) ([]LeaderboardEntry, int, error) {
	cursor, err := s.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, 0, apperr.Unavailable("failed to list users", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, 0, apperr.Unavailable("failed to decode users", err)
	}

	if sortBy != "streak" {
		sortBy = "xp"
	}
	sort.SliceStable(users, func(i, j int) bool {
		if sortBy == "streak" {
			return users[i].Streak > users[j].Streak
		}
		return users[i].XP > users[j].XP
	})

	myRank := 0
	entries := make([]LeaderboardEntry, 0, 50)
	for i, u := range users {
		if u.ID == userID {
			myRank = i + 1
		}
		if i < 50 {
			entries = append(entries, LeaderboardEntry{
				Rank:   i + 1,
				UserID: u.ID,
				Name:   u.Name,
				Avatar: u.Avatar,
				Level:  u.Level,
				XP:     u.XP,
				Streak: u.Streak,
			})
		}
	}

	return entries, myRank, nil
}
