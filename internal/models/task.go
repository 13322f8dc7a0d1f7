package models

import "time"

// Task lifecycle states
const (
	TaskPending   = "PENDING"
	TaskCompleted = "COMPLETED"
)

// Task is a to-do one user assigns to another, typically homework between
// sessions. Listings are scoped to the assignee.
type Task struct {
	ID               string    `bson:"_id" json:"id"`
	Title            string    `bson:"title" json:"title"`
	Description      string    `bson:"description,omitempty" json:"description,omitempty"`
	AssignedBy       string    `bson:"assignedBy" json:"assignedBy"`
	AssignedByID     string    `bson:"assignedById" json:"assignedById"`
	AssignedByAvatar string    `bson:"assignedByAvatar,omitempty" json:"assignedByAvatar,omitempty"`
	AssignedToID     string    `bson:"assignedToId" json:"assignedToId"`
	DueDate          string    `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	Status           string    `bson:"status" json:"status"`
	CreatedAt        time.Time `bson:"createdAt" json:"createdAt"`
}
