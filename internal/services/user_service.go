package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
)

// UserService manages user profiles.
type UserService struct {
	users *mongo.Collection

	cache  *ProfileCacheService
	mailer Mailer

	now func() time.Time
}

// NewUserService creates the user profile service.
func NewUserService(db *database.MongoDB, cache *ProfileCacheService, mailer Mailer) *UserService {
	return &UserService{
		users:  db.Collection(database.CollectionUsers),
		cache:  cache,
		mailer: mailer,
		now:    time.Now,
	}
}

// CreateUserInput is the payload for profile creation. The id comes from the
// auth provider, not from us.
type CreateUserInput struct {
	ID       string   `json:"id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Skills   []string `json:"skills"`
	Learning []string `json:"learning"`
	Avatar   string   `json:"avatar"`
	Country  string   `json:"country"`
}

// Create persists a new profile and sends the welcome email best-effort.
// Creating an already-existing id is a conflict.
func (u *UserService) Create(ctx context.Context, input CreateUserInput) (*models.User, error) {
	if input.ID == "" || input.Email == "" {
		return nil, apperr.Invalid("id and email are required")
	}

	now := u.now()
	user := models.User{
		ID:        input.ID,
		Email:     input.Email,
		Name:      input.Name,
		Avatar:    input.Avatar,
		Country:   input.Country,
		Skills:    input.Skills,
		Learning:  input.Learning,
		Level:     1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Skills == nil {
		user.Skills = []string{}
	}
	if user.Learning == nil {
		user.Learning = []string{}
	}

	if _, err := u.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apperr.Conflict("user already exists")
		}
		return nil, apperr.Unavailable("failed to create user", err)
	}

	u.mailer.SendWelcome(user.Email, user.Name)

	log.Printf("👤 [USER] Created %s", user.ID)
	return &user, nil
}

// Get returns a profile, cache read-through.
func (u *UserService) Get(ctx context.Context, userID string) (*models.User, error) {
	if user, found := u.cache.GetUser(userID); found {
		return user, nil
	}

	var user models.User
	if err := u.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.Unavailable("failed to load user", err)
	}

	u.cache.SetUser(&user)
	return &user, nil
}

// UpdateProfile applies an allow-listed partial update to the user's own
// profile. Derived stats and identity fields are silently dropped; mistyped
// values for allowed fields are rejected.
func (u *UserService) UpdateProfile(ctx context.Context, userID string, updates map[string]interface{}) (*models.User, error) {
	filtered, err := models.FilterProfileUpdate(updates)
	if err != nil {
		return nil, apperr.Invalid("%v", err)
	}
	if len(filtered) == 0 {
		return u.Get(ctx, userID)
	}
	filtered["updatedAt"] = u.now()

	u.cache.InvalidateUser(userID)
	result, err := u.users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": filtered})
	if err != nil {
		return nil, apperr.Unavailable("failed to update profile", err)
	}
	if result.MatchedCount == 0 {
		return nil, apperr.NotFound("user %s not found", userID)
	}

	var user models.User
	if err := u.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		return nil, apperr.Unavailable("failed to reload user", err)
	}
	return &user, nil
}

// List returns all public profiles.
func (u *UserService) List(ctx context.Context) ([]models.PublicProfile, error) {
	cursor, err := u.users.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Unavailable("failed to list users", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, apperr.Unavailable("failed to decode users", err)
	}

	profiles := make([]models.PublicProfile, 0, len(users))
	for i := range users {
		profiles = append(profiles, users[i].ToPublic())
	}
	return profiles, nil
}
