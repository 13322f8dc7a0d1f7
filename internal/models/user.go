package models

import (
	"fmt"
	"math"
	"time"
)

// Rating is a single peer rating on a user profile. At most one per rater;
// repeated ratings by the same rater overwrite the previous score.
type Rating struct {
	RaterID string  `bson:"raterId" json:"raterId"`
	Score   float64 `bson:"score" json:"score"`
}

// User represents a platform user profile. The document id is the external
// auth user id, not a generated one.
type User struct {
	ID              string   `bson:"_id" json:"id"`
	Email           string   `bson:"email" json:"email"`
	Name            string   `bson:"name" json:"name"`
	Headline        string   `bson:"headline,omitempty" json:"headline,omitempty"`
	Bio             string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Avatar          string   `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Country         string   `bson:"country,omitempty" json:"country,omitempty"`
	Location        string   `bson:"location,omitempty" json:"location,omitempty"`
	Languages       []string `bson:"languages,omitempty" json:"languages,omitempty"`
	Age             int      `bson:"age,omitempty" json:"age,omitempty"`
	ExperienceLevel string   `bson:"experienceLevel,omitempty" json:"experienceLevel,omitempty"`
	Availability    string   `bson:"availability,omitempty" json:"availability,omitempty"`
	Timezone        string   `bson:"timezone,omitempty" json:"timezone,omitempty"`

	// Skills the user teaches and skills the user wants to learn
	Skills   []string `bson:"skills" json:"skills"`
	Learning []string `bson:"learning" json:"learning"`

	// Gamification state
	TrustScore        float64  `bson:"trustScore" json:"trustScore"`
	Sessions          int      `bson:"sessions" json:"sessions"`
	XP                int      `bson:"xp" json:"xp"`
	BonusXP           int      `bson:"bonusXp" json:"bonusXp"`
	BonusMinutes      int      `bson:"bonusMinutes" json:"bonusMinutes"`
	Level             int      `bson:"level" json:"level"`
	Streak            int      `bson:"streak" json:"streak"`
	TotalHours        float64  `bson:"totalHours" json:"totalHours"`
	DailyGoalProgress int      `bson:"dailyGoalProgress" json:"dailyGoalProgress"`
	Ratings           []Rating `bson:"ratings,omitempty" json:"ratings,omitempty"`

	LastCheckIn    *time.Time `bson:"lastCheckIn,omitempty" json:"lastCheckIn,omitempty"`
	LastCalculated *time.Time `bson:"lastCalculated,omitempty" json:"lastCalculated,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Profile update field kinds. Derived stats and identity fields are never
// client-writable, and every writable field is type-checked before it can
// reach a $set: a mistyped value stored once would break every later decode
// of the document.
const (
	fieldString = iota
	fieldStringSlice
	fieldInt
)

var profileUpdateAllowed = map[string]int{
	"name":            fieldString,
	"headline":        fieldString,
	"bio":             fieldString,
	"avatar":          fieldString,
	"country":         fieldString,
	"location":        fieldString,
	"languages":       fieldStringSlice,
	"age":             fieldInt,
	"experienceLevel": fieldString,
	"availability":    fieldString,
	"timezone":        fieldString,
	"skills":          fieldStringSlice,
	"learning":        fieldStringSlice,
}

// FilterProfileUpdate strips protected fields from a raw profile update and
// validates the type of each allow-listed one. JSON numbers arrive as
// float64 and arrays as []interface{}; both are coerced to their schema
// types. A non-coercible value is an error, not a silent drop.
func FilterProfileUpdate(updates map[string]interface{}) (map[string]interface{}, error) {
	filtered := make(map[string]interface{}, len(updates))
	for key, value := range updates {
		kind, allowed := profileUpdateAllowed[key]
		if !allowed {
			continue
		}

		switch kind {
		case fieldString:
			s, ok := value.(string)
			if !ok {
				return nil, fmt.Errorf("field %q must be a string", key)
			}
			filtered[key] = s
		case fieldStringSlice:
			slice, err := CoerceStringSlice(value)
			if err != nil {
				return nil, fmt.Errorf("field %q must be a list of strings", key)
			}
			filtered[key] = slice
		case fieldInt:
			n, ok := CoerceInt(value)
			if !ok || n < 0 {
				return nil, fmt.Errorf("field %q must be a non-negative integer", key)
			}
			filtered[key] = n
		}
	}
	return filtered, nil
}

// CoerceStringSlice converts a decoded JSON array into []string.
func CoerceStringSlice(value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return v, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected array, got %T", value)
	}
}

// CoerceInt converts a decoded JSON number into an int. Fractional values
// are rejected.
func CoerceInt(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	default:
		return 0, false
	}
}

// PublicProfile is the trimmed user shape returned in suggestion and
// saved-match listings.
type PublicProfile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Headline   string   `json:"headline,omitempty"`
	Avatar     string   `json:"avatar,omitempty"`
	Country    string   `json:"country,omitempty"`
	Skills     []string `json:"skills"`
	Learning   []string `json:"learning"`
	TrustScore float64  `json:"trustScore"`
	Level      int      `json:"level"`
	Streak     int      `json:"streak"`
}

// ToPublic converts a full user document into its public listing shape.
func (u *User) ToPublic() PublicProfile {
	return PublicProfile{
		ID:         u.ID,
		Name:       u.Name,
		Headline:   u.Headline,
		Avatar:     u.Avatar,
		Country:    u.Country,
		Skills:     u.Skills,
		Learning:   u.Learning,
		TrustScore: u.TrustScore,
		Level:      u.Level,
		Streak:     u.Streak,
	}
}
