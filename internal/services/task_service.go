package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"

	"skillshare/internal/apperr"
	"skillshare/internal/database"
	"skillshare/internal/models"
)

// TaskService manages tasks users assign to each other.
type TaskService struct {
	tasks collection
	users collection

	now func() time.Time
}

// NewTaskService creates the task service.
func NewTaskService(db *database.MongoDB) *TaskService {
	return &TaskService{
		tasks: db.Collection(database.CollectionTasks),
		users: db.Collection(database.CollectionUsers),
		now:   time.Now,
	}
}

// CreateTaskInput is the client payload for a new task. The assigner identity
// always comes from the authenticated user, never from the payload.
type CreateTaskInput struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	AssignedToID string `json:"assignedToId"`
	DueDate      string `json:"dueDate"`
}

// Create persists a new PENDING task assigned by the actor.
func (t *TaskService) Create(ctx context.Context, actorID string, input CreateTaskInput) (*models.Task, error) {
	if input.Title == "" || input.AssignedToID == "" {
		return nil, apperr.Invalid("title and assignedToId are required")
	}

	task := models.Task{
		ID:           uuid.NewString(),
		Title:        input.Title,
		Description:  input.Description,
		AssignedByID: actorID,
		AssignedToID: input.AssignedToID,
		DueDate:      input.DueDate,
		Status:       models.TaskPending,
		CreatedAt:    t.now(),
	}

	var actor models.User
	if err := t.users.FindOne(ctx, bson.M{"_id": actorID}).Decode(&actor); err == nil {
		task.AssignedBy = actor.Name
		task.AssignedByAvatar = actor.Avatar
	}

	if _, err := t.tasks.InsertOne(ctx, task); err != nil {
		return nil, apperr.Unavailable("failed to create task", err)
	}

	log.Printf("📝 [TASK] Created %s (%s → %s)", task.ID, actorID, task.AssignedToID)
	return &task, nil
}

// List returns the tasks assigned to the user.
func (t *TaskService) List(ctx context.Context, userID string) ([]models.Task, error) {
	cursor, err := t.tasks.Find(ctx, bson.M{"assignedToId": userID})
	if err != nil {
		return nil, apperr.Unavailable("failed to list tasks", err)
	}
	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, apperr.Unavailable("failed to decode tasks", err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return tasks, nil
}
