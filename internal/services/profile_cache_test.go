package services

import (
	"testing"
	"time"

	"skillshare/internal/models"
)

func TestProfileCacheHitAndInvalidate(t *testing.T) {
	cache := NewProfileCacheService(time.Minute)

	if _, found := cache.GetUser("alice"); found {
		t.Fatal("expected miss on empty cache")
	}

	cache.SetUser(&models.User{ID: "alice", Name: "Alice"})

	user, found := cache.GetUser("alice")
	if !found {
		t.Fatal("expected hit after Set")
	}
	if user.Name != "Alice" {
		t.Errorf("Name = %s, want Alice", user.Name)
	}

	cache.InvalidateUser("alice")
	if _, found := cache.GetUser("alice"); found {
		t.Error("expected miss after invalidation")
	}
}

func TestProfileCacheExpiry(t *testing.T) {
	cache := NewProfileCacheService(20 * time.Millisecond)
	cache.SetUser(&models.User{ID: "alice"})

	if _, found := cache.GetUser("alice"); !found {
		t.Fatal("expected hit before TTL")
	}

	time.Sleep(40 * time.Millisecond)

	if _, found := cache.GetUser("alice"); found {
		t.Error("expected miss after TTL expiry")
	}
}

func TestProfileCacheSessionsIndependentOfUser(t *testing.T) {
	cache := NewProfileCacheService(time.Minute)
	cache.SetUser(&models.User{ID: "alice"})
	cache.SetSessions("alice", []models.SessionView{{Role: "teacher"}})

	cache.InvalidateSessions("alice")

	if _, found := cache.GetSessions("alice"); found {
		t.Error("expected sessions miss after invalidation")
	}
	if _, found := cache.GetUser("alice"); !found {
		t.Error("user entry must survive sessions invalidation")
	}
}
