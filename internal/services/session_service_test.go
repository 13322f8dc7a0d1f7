package services

import (
	"testing"
	"time"

	"skillshare/internal/apperr"
)

func TestValidateSessionUpdates(t *testing.T) {
	when := time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC)
	set, err := validateSessionUpdates(map[string]interface{}{
		"status":      "SCHEDULED",
		"meetLink":    "https://meet.example/abc",
		"notes":       "bring headphones",
		"duration":    float64(90), // decoded JSON number
		"scheduledAt": when.Format(time.RFC3339),
		"xp":          99999, // not allow-listed, dropped
	})
	if err != nil {
		t.Fatalf("validateSessionUpdates: %v", err)
	}
	if len(set) != 5 {
		t.Fatalf("expected 5 fields, got %d: %v", len(set), set)
	}
	if got, ok := set["duration"].(int); !ok || got != 90 {
		t.Errorf("duration = %v, want int 90", set["duration"])
	}
	if got, ok := set["scheduledAt"].(time.Time); !ok || !got.Equal(when) {
		t.Errorf("scheduledAt = %v, want %v", set["scheduledAt"], when)
	}
}

func TestValidateSessionUpdatesRejectsMistypedFields(t *testing.T) {
	cases := []map[string]interface{}{
		{"duration": "ninety"},
		{"duration": float64(0)},
		{"duration": -30},
		{"status": 2},
		{"meetLink": true},
		{"scheduledAt": "tomorrow at noon"},
		{"scheduledAt": 1234567890},
	}
	for _, updates := range cases {
		_, err := validateSessionUpdates(updates)
		if err == nil {
			t.Errorf("expected error for %v", updates)
			continue
		}
		if apperr.CodeOf(err) != apperr.CodeInvalid {
			t.Errorf("expected invalid code for %v, got %v", updates, apperr.CodeOf(err))
		}
	}
}

func TestCompletionXP(t *testing.T) {
	cases := []struct {
		duration int
		want     int
	}{
		{30, 60},
		{60, 70},
		{90, 80},
		{45, 60}, // partial half-hours do not count
		{0, 50},
	}
	for _, tc := range cases {
		if got := CompletionXP(tc.duration); got != tc.want {
			t.Errorf("CompletionXP(%d) = %d, want %d", tc.duration, got, tc.want)
		}
	}
}

func TestCompletionHours(t *testing.T) {
	// a 90-minute session adds 1.5 hours
	if got := round1(90.0 / 60); got != 1.5 {
		t.Errorf("hours for 90 minutes = %v, want 1.5", got)
	}
}
