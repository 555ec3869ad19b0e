package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"forum-letter/db"
	"forum-letter/models"
)

type AILogRepository struct {
	col *mongo.Collection
}

func NewAILogRepository(d *mongo.Database) *AILogRepository {
	return &AILogRepository{col: d.Collection(db.CollAILogs)}
}

func (r *AILogRepository) Insert(ctx context.Context, log models.AILog) error {
	if log.RequestedAt.IsZero() {
		log.RequestedAt = time.Now()
	}
	_, err := r.col.InsertOne(ctx, log)
	return err
}

// Recent returns the latest logs for a stage ("" for all stages).
func (r *AILogRepository) Recent(ctx context.Context, stage string, limit int64) ([]models.AILog, error) {
	filter := bson.M{}
	if stage != "" {
		filter["stage"] = stage
	}
	cur, err := r.col.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "requested_at", Value: -1}}).
		SetLimit(limit))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AILog
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
