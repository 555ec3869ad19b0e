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

type SourceRepository struct {
	col *mongo.Collection
}

func NewSourceRepository(d *mongo.Database) *SourceRepository {
	return &SourceRepository{col: d.Collection(db.CollSources)}
}

// UpsertByName upserts a source document identified by its name.
func (r *SourceRepository) UpsertByName(ctx context.Context, s *models.Source) (*mongo.UpdateResult, error) {
	now := time.Now()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	filter := bson.M{"name": s.Name}
	update := bson.M{
		"$setOnInsert": bson.M{
			"created_at": s.CreatedAt,
		},
		"$set": bson.M{
			"updated_at": s.UpdatedAt,
			"kind":       s.Kind,
			"url":        s.URL,
			"enabled":    s.Enabled,
		},
	}
	return r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
}

// RecordRun stores the outcome of the latest fetch for a source.
func (r *SourceRepository) RecordRun(ctx context.Context, name string, at time.Time, runErr error) error {
	lastErr := ""
	if runErr != nil {
		lastErr = runErr.Error()
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"name": name}, bson.M{"$set": bson.M{
		"last_run_at": at,
		"last_error":  lastErr,
		"updated_at":  time.Now(),
	}})
	return err
}

// List returns every known source by name.
func (r *SourceRepository) List(ctx context.Context) ([]models.Source, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Source
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
