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

type ItemRepository struct {
	col *mongo.Collection
}

func NewItemRepository(d *mongo.Database) *ItemRepository {
	return &ItemRepository{col: d.Collection(db.CollItems)}
}

// Insert inserts a new item. A clash on external_id yields ErrDuplicateExternalID.
func (r *ItemRepository) Insert(ctx context.Context, it *models.Item) error {
	if it.IngestedAt.IsZero() {
		it.IngestedAt = time.Now()
	}
	if it.TopComments == nil {
		it.TopComments = []models.Comment{}
	}
	res, err := r.col.InsertOne(ctx, it)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateExternalID
		}
		return err
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		it.ID = oid
	}
	return nil
}

// ExistingExternalIDs reports which of ids are already stored.
func (r *ItemRepository) ExistingExternalIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}
	cur, err := r.col.Find(ctx,
		bson.M{"external_id": bson.M{"$in": ids}},
		options.Find().SetProjection(bson.M{"external_id": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ExternalID string `bson:"external_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		found[row.ExternalID] = true
	}
	return found, cur.Err()
}

func pendingPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "ingested_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.CollAnnotations,
			"localField":   "_id",
			"foreignField": "item_id",
			"as":           "annotation",
		}}},
		{{Key: "$match", Value: bson.M{"annotation": bson.M{"$size": 0}}}},
		{{Key: "$project", Value: bson.M{"annotation": 0}}},
	}
}

// Pending returns items without an annotation, oldest ingest first.
func (r *ItemRepository) Pending(ctx context.Context) ([]models.Item, error) {
	cur, err := r.col.Aggregate(ctx, pendingPipeline())
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []models.Item
	for cur.Next(ctx) {
		var it models.Item
		if err := cur.Decode(&it); err != nil {
			return nil, err
		}
		results = append(results, it)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// CountPending returns the number of items still waiting for an annotation.
func (r *ItemRepository) CountPending(ctx context.Context) (int64, error) {
	p := append(pendingPipeline(), bson.D{{Key: "$count", Value: "n"}})
	cur, err := r.col.Aggregate(ctx, p)
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	var row struct {
		N int64 `bson:"n"`
	}
	if cur.Next(ctx) {
		if err := cur.Decode(&row); err != nil {
			return 0, err
		}
	}
	return row.N, cur.Err()
}

// MarkPublished sets published_edition_id on items not yet marked.
func (r *ItemRepository) MarkPublished(ctx context.Context, ids []primitive.ObjectID, editionID primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.col.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "published_edition_id": nil},
		bson.M{"$set": bson.M{"published_edition_id": editionID}},
	)
	return err
}

// UnmarkPublished clears the marker set for editionID.
func (r *ItemRepository) UnmarkPublished(ctx context.Context, editionID primitive.ObjectID) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"published_edition_id": editionID},
		bson.M{"$unset": bson.M{"published_edition_id": ""}},
	)
	return err
}
