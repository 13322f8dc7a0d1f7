package jobs

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"skillshare/internal/database"
	"skillshare/internal/services"
)

// StatsSweepJob re-derives gamification stats for users whose lastCalculated
// is past the staleness gate, so trust scores and daily goals stay warm even
// for users who have not opened their profile recently.
type StatsSweepJob struct {
	mongoDB *database.MongoDB
	stats   *services.StatsService
	maxAge  time.Duration
}

// NewStatsSweepJob creates the stale-stats sweep
func NewStatsSweepJob(mongoDB *database.MongoDB, stats *services.StatsService, maxAge time.Duration) *StatsSweepJob {
	return &StatsSweepJob{mongoDB: mongoDB, stats: stats, maxAge: maxAge}
}

// GetNextRunTime runs the sweep hourly
func (j *StatsSweepJob) GetNextRunTime() time.Time {
	return time.Now().Add(time.Hour)
}

// Run sweeps users with stale derived stats
func (j *StatsSweepJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.maxAge)
	filter := bson.M{"$or": []bson.M{
		{"lastCalculated": bson.M{"$lt": cutoff}},
		{"lastCalculated": nil},
	}}

	cursor, err := j.mongoDB.Collection(database.CollectionUsers).Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	swept := 0
	for cursor.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		if _, err := j.stats.EnsureFresh(ctx, doc.ID); err != nil {
			log.Printf("[STATS-SWEEP] Recompute failed for %s: %v", doc.ID, err)
			continue
		}
		swept++
	}

	log.Printf("[STATS-SWEEP] Refreshed stats for %d users", swept)
	return cursor.Err()
}
