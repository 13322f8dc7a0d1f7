package models

import (
	"strings"
	"time"
)

// Match status values
const (
	MatchPending  = "PENDING"
	MatchAccepted = "ACCEPTED"
	MatchRejected = "REJECTED"
)

// Match is a promoted pairing between two users. The document id is the
// sorted pair key, so each pair can hold at most one match and concurrent
// promotions collapse onto a single insert.
type Match struct {
	ID        string    `bson:"_id" json:"id"`
	User1ID   string    `bson:"user1Id" json:"user1Id"`
	User2ID   string    `bson:"user2Id" json:"user2Id"`
	Score     int       `bson:"score" json:"score"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// PartnerOf returns the other side of the match.
func (m *Match) PartnerOf(userID string) string {
	if m.User1ID == userID {
		return m.User2ID
	}
	return m.User1ID
}

// SavedMatch is a directed "like" edge from userId to matchedUserId.
type SavedMatch struct {
	ID            string    `bson:"_id" json:"id"`
	UserID        string    `bson:"userId" json:"userId"`
	MatchedUserID string    `bson:"matchedUserId" json:"matchedUserId"`
	SavedAt       time.Time `bson:"savedAt" json:"savedAt"`
}

// PairKey returns the canonical id for an unordered user pair: both ids
// sorted lexicographically and joined with "_". Used as the Match document id
// and as the pairwise chat room name.
func PairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return strings.Join([]string{a, b}, "_")
}
