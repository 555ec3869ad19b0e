package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"forum-letter/db"
	"forum-letter/models"
)

type IngestRunRepository struct {
	col *mongo.Collection
}

func NewIngestRunRepository(d *mongo.Database) *IngestRunRepository {
	return &IngestRunRepository{col: d.Collection(db.CollIngestRuns)}
}

// Start inserts a run in the running state.
func (r *IngestRunRepository) Start(ctx context.Context, run *models.IngestRun) error {
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}
	if run.ID.IsZero() {
		run.ID = primitive.NewObjectID()
	}
	run.Status = models.IngestRunning
	if run.Errors == nil {
		run.Errors = []models.SourceError{}
	}
	if run.SourcesScraped == nil {
		run.SourcesScraped = []string{}
	}
	_, err := r.col.InsertOne(ctx, run)
	return err
}

// Finish stores the final counters and marks the run completed.
func (r *IngestRunRepository) Finish(ctx context.Context, run *models.IngestRun) error {
	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.IngestCompleted
	_, err := r.col.UpdateByID(ctx, run.ID, bson.M{"$set": bson.M{
		"finished_at":     run.FinishedAt,
		"status":          run.Status,
		"total_items":     run.TotalItems,
		"new_items":       run.NewItems,
		"errors":          run.Errors,
		"sources_scraped": run.SourcesScraped,
	}})
	return err
}

// Latest returns the most recently started run.
func (r *IngestRunRepository) Latest(ctx context.Context) (*models.IngestRun, error) {
	var run models.IngestRun
	opts := options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}})
	if err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&run); err != nil {
		return nil, notFound(err)
	}
	return &run, nil
}
