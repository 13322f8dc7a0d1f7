package services

import (
	"context"
	"sort"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
)

// MatchScore computes the 0-100 compatibility score between one user's
// teach/learn sets and a candidate's. Each overlapping skill in either
// direction is worth 25 points, capped at 100. Names are compared
// case-insensitively after trimming.
func MatchScore(teaches, wants, candTeaches, candWants []string) int {
	forward := overlapCount(wants, candTeaches)    // what I want that they teach
	reciprocal := overlapCount(teaches, candWants) // what I teach that they want

	score := 25 * (forward + reciprocal)
	if score > 100 {
		score = 100
	}
	return score
}

func overlapCount(a, b []string) int {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		if norm := normalizeSkill(s); norm != "" {
			set[norm] = true
		}
	}

	seen := make(map[string]bool, len(b))
	count := 0
	for _, s := range b {
		norm := normalizeSkill(s)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		if set[norm] {
			count++
		}
	}
	return count
}

func normalizeSkill(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Suggestion is a candidate profile with its compatibility score.
type Suggestion struct {
	models.PublicProfile
	Score int `json:"score"`
}

// ScorerService ranks the user base against a profile's teach/learn sets.
type ScorerService struct {
	users *mongo.Collection
}

// NewScorerService creates a scorer backed by the users collection.
func NewScorerService(db *database.MongoDB) *ScorerService {
	return &ScorerService{users: db.Collection(database.CollectionUsers)}
}

const defaultSuggestionLimit = 15

// Suggestions scores every other user against the caller and returns the top
// matches sorted by score descending. teachOverride/learnOverride, when
// non-empty, replace the caller's profile sets.
func (s *ScorerService) Suggestions(ctx context.Context, userID string, teachOverride, learnOverride []string, limit int) ([]Suggestion, error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}

	var me models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&me); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.Unavailable("failed to load profile", err)
	}

	teaches := me.Skills
	wants := me.Learning
	if len(teachOverride) > 0 {
		teaches = teachOverride
	}
	if len(learnOverride) > 0 {
		wants = learnOverride
	}

	cursor, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$ne": userID}})
	if err != nil {
		return nil, apperr.Unavailable("failed to list users", err)
	}
	defer cursor.Close(ctx)

	suggestions := make([]Suggestion, 0, limit)
	for cursor.Next(ctx) {
		var candidate models.User
		if err := cursor.Decode(&candidate); err != nil {
			continue
		}

		score := MatchScore(teaches, wants, candidate.Skills, candidate.Learning)
		if score == 0 {
			continue
		}

		suggestions = append(suggestions, Suggestion{
			PublicProfile: candidate.ToPublic(),
			Score:         score,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.Unavailable("failed to scan users", err)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// ParseSkillList splits a comma-separated query value into trimmed skill
// names, dropping empties.
func ParseSkillList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			skills = append(skills, trimmed)
		}
	}
	return skills
}
