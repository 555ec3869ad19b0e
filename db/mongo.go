package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"forum-letter/config"
	"forum-letter/logger"
)

// Collection names.
const (
	CollItems        = "items"
	CollAnnotations  = "annotations"
	CollEditions     = "editions"
	CollEditionItems = "edition_items"
	CollIngestRuns   = "ingest_runs"
	CollAILogs       = "ai_logs"
	CollSources      = "sources"
)

// Connect opens a client, pings the primary and ensures indexes.
func Connect(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cl, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := cl.Ping(ctx, readpref.Primary()); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}
	d := cl.Database(cfg.Database)

	if err := EnsureIndexes(ctx, d); err != nil {
		_ = cl.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("mongo indexes: %w", err)
	}
	logger.Log.Infof("MongoDB connected and indexes ensured (db=%s)", cfg.Database)
	return cl, d, nil
}

// Indexes lists every index the store relies on, keyed by collection.
// The unique ones back the store's constraint errors.
func Indexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		CollItems: {
			{
				Keys:    bson.D{{Key: "external_id", Value: 1}},
				Options: options.Index().SetName("uniq_external_id").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "ingested_at", Value: 1}, {Key: "_id", Value: 1}},
				Options: options.Index().SetName("idx_ingested_at"),
			},
			{
				Keys:    bson.D{{Key: "published_edition_id", Value: 1}},
				Options: options.Index().SetName("idx_published_edition_id"),
			},
		},
		CollAnnotations: {
			{
				Keys:    bson.D{{Key: "item_id", Value: 1}},
				Options: options.Index().SetName("uniq_item_id").SetUnique(true),
			},
			{
				Keys:    bson.D{{Key: "category", Value: 1}},
				Options: options.Index().SetName("idx_category"),
			},
		},
		CollEditions: {
			{
				Keys:    bson.D{{Key: "created_at", Value: -1}},
				Options: options.Index().SetName("idx_created_at_desc"),
			},
		},
		CollEditionItems: {
			{
				Keys:    bson.D{{Key: "edition_id", Value: 1}, {Key: "display_order", Value: 1}},
				Options: options.Index().SetName("uniq_edition_display_order").SetUnique(true),
			},
		},
		CollIngestRuns: {
			{
				Keys:    bson.D{{Key: "started_at", Value: -1}},
				Options: options.Index().SetName("idx_started_at_desc"),
			},
		},
		CollAILogs: {
			{
				Keys:    bson.D{{Key: "requested_at", Value: -1}},
				Options: options.Index().SetName("idx_requested_at_desc"),
			},
		},
		CollSources: {
			{
				Keys:    bson.D{{Key: "name", Value: 1}},
				Options: options.Index().SetName("uniq_source_name").SetUnique(true),
			},
		},
	}
}

func EnsureIndexes(ctx context.Context, d *mongo.Database) error {
	for coll, models := range Indexes() {
		if _, err := d.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s: %w", coll, err)
		}
	}
	return nil
}
