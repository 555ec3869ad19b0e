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

type EditionRepository struct {
	col *mongo.Collection
}

func NewEditionRepository(d *mongo.Database) *EditionRepository {
	return &EditionRepository{col: d.Collection(db.CollEditions)}
}

// Insert inserts a new edition and sets its ID.
func (r *EditionRepository) Insert(ctx context.Context, e *models.Edition) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *EditionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// FindByID returns an edition by its ObjectID
func (r *EditionRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Edition, error) {
	var e models.Edition
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// Latest returns the most recently created edition.
func (r *EditionRepository) Latest(ctx context.Context) (*models.Edition, error) {
	var e models.Edition
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&e); err != nil {
		return nil, notFound(err)
	}
	return &e, nil
}

// List returns editions newest first with pagination.
func (r *EditionRepository) List(ctx context.Context, page, pageSize int) ([]models.Edition, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	total, err := r.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, err
	}

	findOpts := options.Find().
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := r.col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var results []models.Edition
	for cur.Next(ctx) {
		var e models.Edition
		if err := cur.Decode(&e); err != nil {
			return nil, 0, err
		}
		results = append(results, e)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, err
	}
	return results, total, nil
}

// MarkSent flips the sent flag once delivery happened elsewhere.
func (r *EditionRepository) MarkSent(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"sent": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
