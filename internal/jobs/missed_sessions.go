package jobs

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"skillshare/internal/database"
	"skillshare/internal/models"
)

// missedGracePeriod is how long after the scheduled start a session may sit
// untouched before it is marked missed.
const missedGracePeriod = 24 * time.Hour

// MissedSessionsJob marks scheduled sessions as missed once their start time
// is long past without completion or cancellation.
type MissedSessionsJob struct {
	mongoDB *database.MongoDB
}

// NewMissedSessionsJob creates the missed-session sweep
func NewMissedSessionsJob(mongoDB *database.MongoDB) *MissedSessionsJob {
	return &MissedSessionsJob{mongoDB: mongoDB}
}

// GetNextRunTime runs the sweep hourly
func (j *MissedSessionsJob) GetNextRunTime() time.Time {
	return time.Now().Add(time.Hour)
}

// Run marks overdue scheduled sessions as missed
func (j *MissedSessionsJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-missedGracePeriod)

	result, err := j.mongoDB.Collection(database.CollectionSessions).UpdateMany(ctx,
		bson.M{
			"status":      models.SessionScheduled,
			"scheduledAt": bson.M{"$lt": cutoff},
		},
		bson.M{"$set": bson.M{"status": models.SessionMissed}},
	)
	if err != nil {
		return err
	}

	if result.ModifiedCount > 0 {
		log.Printf("[MISSED-SESSIONS] Marked %d sessions as missed", result.ModifiedCount)
	}
	return nil
}
