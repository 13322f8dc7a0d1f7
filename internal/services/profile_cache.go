package services

import (
	"time"

	gocache "github.com/patrickmn/go-cache"

	"skillshare/internal/models"
)

// ProfileCacheService caches user profiles and session lists in memory.
// Entries expire after the configured TTL; write paths must call the
// invalidation methods synchronously around their persistence writes.
type ProfileCacheService struct {
	cache *gocache.Cache
	ttl   time.Duration
}

// NewProfileCacheService creates a cache with the given entry TTL.
func NewProfileCacheService(ttl time.Duration) *ProfileCacheService {
	return &ProfileCacheService{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func userKey(userID string) string     { return "user:" + userID }
func sessionsKey(userID string) string { return "sessions:" + userID }

// GetUser returns a cached profile, or nil on miss.
func (p *ProfileCacheService) GetUser(userID string) (*models.User, bool) {
	if value, found := p.cache.Get(userKey(userID)); found {
		if user, ok := value.(*models.User); ok {
			return user, true
		}
	}
	return nil, false
}

// SetUser caches a profile under the service TTL.
func (p *ProfileCacheService) SetUser(user *models.User) {
	p.cache.Set(userKey(user.ID), user, p.ttl)
}

// InvalidateUser drops a cached profile.
func (p *ProfileCacheService) InvalidateUser(userID string) {
	p.cache.Delete(userKey(userID))
}

// GetSessions returns a cached session listing, or nil on miss.
func (p *ProfileCacheService) GetSessions(userID string) ([]models.SessionView, bool) {
	if value, found := p.cache.Get(sessionsKey(userID)); found {
		if sessions, ok := value.([]models.SessionView); ok {
			return sessions, true
		}
	}
	return nil, false
}

// SetSessions caches a user's decorated session listing.
func (p *ProfileCacheService) SetSessions(userID string, sessions []models.SessionView) {
	p.cache.Set(sessionsKey(userID), sessions, p.ttl)
}

// InvalidateSessions drops a cached session listing.
func (p *ProfileCacheService) InvalidateSessions(userID string) {
	p.cache.Delete(sessionsKey(userID))
}
