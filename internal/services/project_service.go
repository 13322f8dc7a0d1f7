package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
	"skillshare/internal/realtime"
)

// ProjectService manages collaborative projects and their membership.
type ProjectService struct {
	users    *mongo.Collection
	projects *mongo.Collection
	messages *mongo.Collection

	hub    *realtime.Hub
	mailer Mailer

	now func() time.Time
}

// NewProjectService creates the project service.
func NewProjectService(db *database.MongoDB, hub *realtime.Hub, mailer Mailer) *ProjectService {
	return &ProjectService{
		users:    db.Collection(database.CollectionUsers),
		projects: db.Collection(database.CollectionProjects),
		messages: db.Collection(database.CollectionMessages),
		hub:      hub,
		mailer:   mailer,
		now:      time.Now,
	}
}

// CreateProjectInput is the client payload for a new project.
type CreateProjectInput struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Stack       []string `json:"stack"`
	Type        string   `json:"type"`
	Difficulty  string   `json:"difficulty"`
	TotalSpots  int      `json:"totalSpots"`
	Repo        string   `json:"repo"`
	InvitedIDs  []string `json:"invitedIds"`
}

// Create persists a project with the owner as first member and sends
// invitations to the listed users (messages + emails, best-effort).
func (p *ProjectService) Create(ctx context.Context, ownerID string, input CreateProjectInput) (*models.Project, error) {
	if input.Title == "" {
		return nil, apperr.Invalid("title is required")
	}
	if input.TotalSpots <= 0 {
		input.TotalSpots = 4
	}

	var owner models.User
	if err := p.users.FindOne(ctx, bson.M{"_id": ownerID}).Decode(&owner); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user %s not found", ownerID)
		}
		return nil, apperr.Unavailable("failed to load owner", err)
	}

	now := p.now()
	project := models.Project{
		ID:               uuid.NewString(),
		Title:            input.Title,
		Description:      input.Description,
		Stack:            input.Stack,
		Type:             input.Type,
		Difficulty:       input.Difficulty,
		TotalSpots:       input.TotalSpots,
		Repo:             input.Repo,
		OwnerID:          ownerID,
		OwnerName:        owner.Name,
		MemberIDs:        []string{ownerID},
		PendingMemberIDs: []string{},
		MemberDetails: []models.MemberDetail{
			{ID: ownerID, Name: owner.Name, Avatar: owner.Avatar},
		},
		CreatedAt: now,
	}
	for _, invited := range input.InvitedIDs {
		if invited != ownerID {
			project.PendingMemberIDs = append(project.PendingMemberIDs, invited)
		}
	}
	project.RecomputeSpots()

	if _, err := p.projects.InsertOne(ctx, project); err != nil {
		return nil, apperr.Unavailable("failed to create project", err)
	}

	for _, invited := range project.PendingMemberIDs {
		p.sendInvitation(ctx, &owner, invited, &project, now)
	}

	log.Printf("🛠️ [PROJECT] Created %s (%s)", project.ID, project.Title)
	return &project, nil
}

// sendInvitation persists the invite message, fans it out and emails the
// invitee. Best-effort throughout.
func (p *ProjectService) sendInvitation(ctx context.Context, owner *models.User, inviteeID string, project *models.Project, now time.Time) {
	msg := models.Message{
		ID:         uuid.NewString(),
		SenderID:   owner.ID,
		ReceiverID: inviteeID,
		Content:    "You've been invited to join " + project.Title,
		Timestamp:  now,
		Room:       models.PairKey(owner.ID, inviteeID),
		Type:       models.MessageTypeProjectInvite,
		ProjectID:  project.ID,
	}
	if _, err := p.messages.InsertOne(ctx, msg); err != nil {
		log.Printf("⚠️ [PROJECT] Invite message insert failed: %v", err)
	} else {
		p.hub.EmitToRoom("receive_message", msg, msg.Room, "")
		p.hub.EmitToUser("receive_message", msg, inviteeID)
	}

	var invitee models.User
	if err := p.users.FindOne(ctx, bson.M{"_id": inviteeID}).Decode(&invitee); err != nil {
		return
	}
	p.mailer.SendProjectInvitation(invitee.Email, invitee.Name, project.Title, owner.Name)
}

// List returns all projects.
func (p *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	cursor, err := p.projects.Find(ctx, bson.M{})
	if err != nil {
		return nil, apperr.Unavailable("failed to list projects", err)
	}
	projects := []models.Project{}
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, apperr.Unavailable("failed to decode projects", err)
	}
	return projects, nil
}

// Join adds the user to a project with open spots. Members and invitees use
// AcceptInvite instead of occupying a second slot.
func (p *ProjectService) Join(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := p.get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.HasMember(userID) {
		return nil, apperr.Conflict("already a member")
	}
	if project.Spots <= 0 {
		return nil, apperr.Conflict("project is full")
	}

	return p.addMember(ctx, project, userID)
}

// AcceptInvite converts a pending invitation into membership.
func (p *ProjectService) AcceptInvite(ctx context.Context, userID, projectID string) (*models.Project, error) {
	project, err := p.get(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if project.HasMember(userID) {
		return nil, apperr.Conflict("already a member")
	}
	if !project.HasPendingInvite(userID) {
		return nil, apperr.NotFound("no pending invitation")
	}

	pending := make([]string, 0, len(project.PendingMemberIDs))
	for _, id := range project.PendingMemberIDs {
		if id != userID {
			pending = append(pending, id)
		}
	}
	project.PendingMemberIDs = pending

	return p.addMember(ctx, project, userID)
}

func (p *ProjectService) addMember(ctx context.Context, project *models.Project, userID string) (*models.Project, error) {
	var user models.User
	if err := p.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("user %s not found", userID)
		}
		return nil, apperr.Unavailable("failed to load user", err)
	}

	project.MemberIDs = append(project.MemberIDs, userID)
	project.MemberDetails = append(project.MemberDetails, models.MemberDetail{
		ID: userID, Name: user.Name, Avatar: user.Avatar,
	})
	project.RecomputeSpots()

	update := bson.M{"$set": bson.M{
		"memberIds":        project.MemberIDs,
		"pendingMemberIds": project.PendingMemberIDs,
		"memberDetails":    project.MemberDetails,
		"spots":            project.Spots,
	}}
	if _, err := p.projects.UpdateOne(ctx, bson.M{"_id": project.ID}, update); err != nil {
		return nil, apperr.Unavailable("failed to update project", err)
	}

	log.Printf("🛠️ [PROJECT] %s joined %s", userID, project.ID)
	return project, nil
}

// Delete removes a project. Owner only.
func (p *ProjectService) Delete(ctx context.Context, userID, projectID string) error {
	project, err := p.get(ctx, projectID)
	if err != nil {
		return err
	}
	if project.OwnerID != userID {
		return apperr.Forbidden("only the owner can delete a project")
	}

	if _, err := p.projects.DeleteOne(ctx, bson.M{"_id": projectID}); err != nil {
		return apperr.Unavailable("failed to delete project", err)
	}
	return nil
}

func (p *ProjectService) get(ctx context.Context, projectID string) (*models.Project, error) {
	var project models.Project
	if err := p.projects.FindOne(ctx, bson.M{"_id": projectID}).Decode(&project); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, apperr.NotFound("project %s not found", projectID)
		}
		return nil, apperr.Unavailable("failed to load project", err)
	}
	return &project, nil
}
