package services

import (
	"context"
	"testing"
	"time"

	"skillshare/internal/models"
	"skillshare/internal/realtime"
)

func TestTrustScoreCaps(t *testing.T) {
	// every bonus term saturated on top of a perfect rating still caps at 100
	got := TrustScore(100, 1000, 1000, 1000, 100000)
	if got != 100 {
		t.Errorf("TrustScore saturated = %v, want 100", got)
	}
}

func TestTrustScoreTerms(t *testing.T) {
	// 4 completed sessions -> 2.0, 2 projects -> 2.0, streak 14 -> 0.4,
	// 30 messages -> 0.3, plus avg rating 10.0
	got := TrustScore(10, 4, 2, 14, 30)
	want := round1(10 + 2 + 2 + 0.4 + 0.3)
	if got != want {
		t.Errorf("TrustScore = %v, want %v", got, want)
	}
}

func TestTrustScoreZeroActivity(t *testing.T) {
	if got := TrustScore(0, 0, 0, 0, 0); got != 0 {
		t.Errorf("TrustScore zero = %v, want 0", got)
	}
}

func TestAverageRating(t *testing.T) {
	if got := AverageRating(nil); got != 0 {
		t.Errorf("AverageRating(nil) = %v, want 0", got)
	}
	ratings := []models.Rating{{RaterID: "a", Score: 80}, {RaterID: "b", Score: 60}}
	if got := AverageRating(ratings); got != 70 {
		t.Errorf("AverageRating = %v, want 70", got)
	}
}

func TestUpsertRating(t *testing.T) {
	ratings := []models.Rating{{RaterID: "a", Score: 50}}

	ratings = upsertRating(ratings, "b", 80)
	if len(ratings) != 2 {
		t.Fatalf("len = %d, want 2", len(ratings))
	}

	// same rater overwrites rather than appends
	ratings = upsertRating(ratings, "a", 90)
	if len(ratings) != 2 {
		t.Fatalf("len after overwrite = %d, want 2", len(ratings))
	}
	if ratings[0].Score != 90 {
		t.Errorf("overwritten score = %v, want 90", ratings[0].Score)
	}
}

func TestLevelFormulas(t *testing.T) {
	cases := []struct {
		xp               int
		batch, completion int
	}{
		{0, 1, 1},
		{99, 1, 1},
		{100, 1, 2},
		{499, 1, 5},
		{500, 2, 6},
		{1000, 3, 11},
	}
	for _, tc := range cases {
		if got := LevelForXP(tc.xp); got != tc.batch {
			t.Errorf("LevelForXP(%d) = %d, want %d", tc.xp, got, tc.batch)
		}
		if got := CompletionLevel(tc.xp); got != tc.completion {
			t.Errorf("CompletionLevel(%d) = %d, want %d", tc.xp, got, tc.completion)
		}
	}
}

func TestNextStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	yesterday := now.AddDate(0, 0, -1)
	if got := NextStreak(5, &yesterday, now); got != 6 {
		t.Errorf("streak after consecutive day = %d, want 6", got)
	}

	// a gap resets to 1
	threeDaysAgo := now.AddDate(0, 0, -3)
	if got := NextStreak(5, &threeDaysAgo, now); got != 1 {
		t.Errorf("streak after gap = %d, want 1", got)
	}

	// first ever check-in starts at 1
	if got := NextStreak(0, nil, now); got != 1 {
		t.Errorf("first streak = %d, want 1", got)
	}

	// late-night yesterday still counts as consecutive
	lateYesterday := time.Date(2026, 3, 9, 23, 59, 0, 0, time.UTC)
	if got := NextStreak(2, &lateYesterday, now); got != 3 {
		t.Errorf("streak across midnight = %d, want 3", got)
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2026, 3, 10, 0, 1, 0, 0, time.UTC)
	b := time.Date(2026, 3, 10, 23, 59, 0, 0, time.UTC)
	if !sameDay(a, b) {
		t.Error("expected same day")
	}
	if sameDay(a, b.Add(2*time.Minute)) {
		t.Error("expected different days across midnight")
	}
}

func TestCheckInSameDayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	users := newMemCollection()
	svc := &StatsService{
		users:  users,
		cache:  NewProfileCacheService(time.Minute),
		hub:    realtime.NewHub(),
		maxAge: time.Hour,
		now:    func() time.Time { return fixed },
	}
	seedUser(t, users, models.User{ID: "alice", Email: "a@x.test", Name: "Alice"})

	first, err := svc.CheckIn(ctx, "alice")
	if err != nil {
		t.Fatalf("first check-in: %v", err)
	}
	if first.AlreadyCheckedIn || first.BonusXP != checkInBonus || first.Streak != 1 {
		t.Fatalf("first check-in = %+v, want bonus %d streak 1", first, checkInBonus)
	}
	writes := users.updateCalls

	second, err := svc.CheckIn(ctx, "alice")
	if err != nil {
		t.Fatalf("second check-in: %v", err)
	}
	if !second.AlreadyCheckedIn {
		t.Error("expected alreadyCheckedIn on the same day")
	}
	if second.BonusXP != 0 || second.Streak != 1 {
		t.Errorf("second check-in = %+v, want zero bonus, streak 1", second)
	}
	if users.updateCalls != writes {
		t.Errorf("second check-in wrote %d times, want none", users.updateCalls-writes)
	}
}

func TestRound1(t *testing.T) {
	if got := round1(1.25); got != 1.3 {
		t.Errorf("round1(1.25) = %v, want 1.3", got)
	}
	if got := round1(1.24); got != 1.2 {
		t.Errorf("round1(1.24) = %v, want 1.2", got)
	}
}
