package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comment is a top-level comment excerpt captured at ingest time.
type Comment struct {
	Author string `bson:"author" json:"author"`
	Body   string `bson:"body" json:"body"`
	Score  int    `bson:"score" json:"score"`
}

// Item is one candidate post collected from a source.
// Collection: items (external_id is unique)
//
// Items are never modified after insert, except for the optional
// published_edition_id marker set when selection.exclude_published is on.
type Item struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ExternalID  string             `bson:"external_id" json:"external_id"`
	Source      string             `bson:"source" json:"source"`
	Title       string             `bson:"title" json:"title"`
	Body        string             `bson:"body" json:"body"`
	URL         string             `bson:"url" json:"url"`
	Permalink   string             `bson:"permalink" json:"permalink"`
	Author      string             `bson:"author" json:"author"`
	Score       int                `bson:"score" json:"score"`
	NumComments int                `bson:"num_comments" json:"num_comments"`
	TopComments []Comment          `bson:"top_comments" json:"top_comments"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	IngestedAt  time.Time          `bson:"ingested_at" json:"ingested_at"`
	IngestRunID primitive.ObjectID `bson:"ingest_run_id,omitempty" json:"ingest_run_id,omitempty"`

	PublishedEditionID *primitive.ObjectID `bson:"published_edition_id,omitempty" json:"published_edition_id,omitempty"`
}
