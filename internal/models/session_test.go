package models

import "testing"

func TestCanTransitionSession(t *testing.T) {
	cases := []struct {
		from, to string
		want     bool
	}{
		{SessionPending, SessionScheduled, true},
		{SessionPending, SessionCancelled, true},
		{SessionPending, SessionCompleted, false},
		{SessionPending, SessionMissed, false},
		{SessionScheduled, SessionCompleted, true},
		{SessionScheduled, SessionCancelled, true},
		{SessionScheduled, SessionMissed, true},
		{SessionScheduled, SessionPending, false},
		{SessionCompleted, SessionScheduled, false},
		{SessionCompleted, SessionCancelled, false},
		{SessionCancelled, SessionScheduled, false},
		{SessionMissed, SessionCompleted, false},
		// setting the same status again is a no-op
		{SessionScheduled, SessionScheduled, true},
		{SessionCompleted, SessionCompleted, true},
	}

	for _, tc := range cases {
		got := CanTransitionSession(tc.from, tc.to)
		if got != tc.want {
			t.Errorf("CanTransitionSession(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestSessionParticipants(t *testing.T) {
	s := &Session{TeacherID: "alice", LearnerID: "bob"}

	if !s.IsParticipant("alice") || !s.IsParticipant("bob") {
		t.Error("expected both teacher and learner to be participants")
	}
	if s.IsParticipant("carol") {
		t.Error("expected non-participant to be rejected")
	}
	if got := s.PartnerOf("alice"); got != "bob" {
		t.Errorf("PartnerOf(alice) = %s, want bob", got)
	}
	if got := s.PartnerOf("bob"); got != "alice" {
		t.Errorf("PartnerOf(bob) = %s, want alice", got)
	}
}

func TestPairKey(t *testing.T) {
	if got := PairKey("bob", "alice"); got != "alice_bob" {
		t.Errorf("PairKey(bob, alice) = %s, want alice_bob", got)
	}
	if PairKey("alice", "bob") != PairKey("bob", "alice") {
		t.Error("PairKey must be order-independent")
	}
}

func TestFilterProfileUpdate(t *testing.T) {
	updates := map[string]interface{}{
		"name":       "New Name",
		"bio":        "hi",
		"xp":         99999,
		"level":      50,
		"trustScore": 100.0,
		"_id":        "other",
	}

	filtered, err := FilterProfileUpdate(updates)
	if err != nil {
		t.Fatalf("FilterProfileUpdate: %v", err)
	}

	if len(filtered) != 2 {
		t.Fatalf("expected 2 allowed fields, got %d: %v", len(filtered), filtered)
	}
	if filtered["name"] != "New Name" || filtered["bio"] != "hi" {
		t.Errorf("unexpected filtered updates: %v", filtered)
	}
}

func TestFilterProfileUpdateCoercesDecodedJSON(t *testing.T) {
	// fiber's BodyParser hands us float64 numbers and []interface{} arrays
	updates := map[string]interface{}{
		"age":    float64(29),
		"skills": []interface{}{"go", "piano"},
	}

	filtered, err := FilterProfileUpdate(updates)
	if err != nil {
		t.Fatalf("FilterProfileUpdate: %v", err)
	}

	if got, ok := filtered["age"].(int); !ok || got != 29 {
		t.Errorf("age = %v, want int 29", filtered["age"])
	}
	skills, ok := filtered["skills"].([]string)
	if !ok || len(skills) != 2 || skills[0] != "go" {
		t.Errorf("skills = %v, want [go piano]", filtered["skills"])
	}
}

func TestFilterProfileUpdateRejectsMistypedFields(t *testing.T) {
	cases := []map[string]interface{}{
		{"name": 42},
		{"age": "twenty"},
		{"age": 29.5},
		{"age": float64(-1)},
		{"skills": "go"},
		{"languages": []interface{}{"en", 7}},
	}
	for _, updates := range cases {
		if _, err := FilterProfileUpdate(updates); err == nil {
			t.Errorf("expected error for %v", updates)
		}
	}
}

func TestProjectRecomputeSpots(t *testing.T) {
	p := &Project{TotalSpots: 4, MemberIDs: []string{"a", "b", "c"}}
	p.RecomputeSpots()
	if p.Spots != 1 {
		t.Errorf("Spots = %d, want 1", p.Spots)
	}

	// spots never go negative even if membership exceeds the cap
	p.MemberIDs = []string{"a", "b", "c", "d", "e"}
	p.RecomputeSpots()
	if p.Spots != 0 {
		t.Errorf("Spots = %d, want 0", p.Spots)
	}
}
