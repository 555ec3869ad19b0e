package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"forum-letter/db"
	"forum-letter/models"
)

type EditionItemRepository struct {
	col *mongo.Collection
}

func NewEditionItemRepository(d *mongo.Database) *EditionItemRepository {
	return &EditionItemRepository{col: d.Collection(db.CollEditionItems)}
}

// InsertMany writes all items of one edition in display order.
func (r *EditionItemRepository) InsertMany(ctx context.Context, items []models.EditionItem) error {
	if len(items) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(items))
	for i := range items {
		if items[i].ID.IsZero() {
			items[i].ID = primitive.NewObjectID()
		}
		docs = append(docs, items[i])
	}
	_, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	return err
}

func (r *EditionItemRepository) DeleteByEdition(ctx context.Context, editionID primitive.ObjectID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"edition_id": editionID})
	return err
}

func entriesPipeline(editionID primitive.ObjectID) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"edition_id": editionID}}},
		{{Key: "$sort", Value: bson.D{{Key: "display_order", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.CollItems,
			"localField":   "item_id",
			"foreignField": "_id",
			"as":           "item",
		}}},
		{{Key: "$unwind", Value: "$item"}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.CollAnnotations,
			"localField":   "item_id",
			"foreignField": "item_id",
			"as":           "annotation",
		}}},
		{{Key: "$unwind", Value: bson.M{"path": "$annotation", "preserveNullAndEmptyArrays": true}}},
	}
}

// Entries returns the edition's items joined with their item and annotation,
// ordered by display_order.
func (r *EditionItemRepository) Entries(ctx context.Context, editionID primitive.ObjectID) ([]models.EditionEntry, error) {
	cur, err := r.col.Aggregate(ctx, entriesPipeline(editionID))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []models.EditionEntry
	for cur.Next(ctx) {
		var e models.EditionEntry
		if err := cur.Decode(&e); err != nil {
			return nil, err
		}
		results = append(results, e)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
