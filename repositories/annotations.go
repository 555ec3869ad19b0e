package repositories

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"forum-letter/db"
	"forum-letter/models"
)

type AnnotationRepository struct {
	col *mongo.Collection
}

func NewAnnotationRepository(d *mongo.Database) *AnnotationRepository {
	return &AnnotationRepository{col: d.Collection(db.CollAnnotations)}
}

// InsertMany writes one batch unordered. Items that were annotated
// concurrently are skipped; then the count of written annotations comes with
// an error wrapping ErrAlreadyAnnotated.
func (r *AnnotationRepository) InsertMany(ctx context.Context, anns []models.Annotation) (int, error) {
	if len(anns) == 0 {
		return 0, nil
	}
	now := time.Now()
	docs := make([]interface{}, 0, len(anns))
	for i := range anns {
		if anns[i].AnnotatedAt.IsZero() {
			anns[i].AnnotatedAt = now
		}
		if anns[i].Tags == nil {
			anns[i].Tags = []string{}
		}
		docs = append(docs, anns[i])
	}
	_, err := r.col.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return annotationsWritten(len(docs), err)
}

func annotationsWritten(n int, err error) (int, error) {
	written, err := insertedDespiteDuplicates(n, err)
	if err != nil {
		return 0, err
	}
	if skipped := n - written; skipped > 0 {
		return written, fmt.Errorf("%w: %d of %d", ErrAlreadyAnnotated, skipped, n)
	}
	return written, nil
}

func rankedPipeline(excludePublished bool) mongo.Pipeline {
	p := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"category": bson.M{"$ne": models.CategorySkip}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         db.CollItems,
			"localField":   "item_id",
			"foreignField": "_id",
			"as":           "item",
		}}},
		{{Key: "$unwind", Value: "$item"}},
	}
	if excludePublished {
		p = append(p, bson.D{{Key: "$match", Value: bson.M{"item.published_edition_id": nil}}})
	}
	return append(p,
		bson.D{{Key: "$addFields", Value: bson.M{
			"combined_score": bson.M{"$add": bson.A{"$relevance_score", "$quality_score"}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{
			{Key: "combined_score", Value: -1},
			{Key: "item.created_at", Value: 1},
			{Key: "item.external_id", Value: 1},
		}}},
	)
}

type rankedRow struct {
	models.Annotation `bson:",inline"`
	Item              models.Item `bson:"item"`
	CombinedScore     float64     `bson:"combined_score"`
}

// Ranked returns annotated, non-skip items by combined score desc, then
// item creation time asc, then external id asc.
func (r *AnnotationRepository) Ranked(ctx context.Context, excludePublished bool) ([]models.Candidate, error) {
	cur, err := r.col.Aggregate(ctx, rankedPipeline(excludePublished))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []models.Candidate
	for cur.Next(ctx) {
		var row rankedRow
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		results = append(results, models.Candidate{Item: row.Item, Annotation: row.Annotation})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// CountByCategory counts annotations per category for the status summary.
func (r *AnnotationRepository) CountByCategory(ctx context.Context) (map[models.Category]int64, error) {
	cur, err := r.col.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$category", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[models.Category]int64{}
	for cur.Next(ctx) {
		var row struct {
			Category models.Category `bson:"_id"`
			N        int64           `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Category] = row.N
	}
	return out, cur.Err()
}
