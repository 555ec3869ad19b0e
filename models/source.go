package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Source represents a configured forum or feed
// Collection: sources
type Source struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
	Name      string             `bson:"name" json:"name"`
	Kind      string             `bson:"kind" json:"kind"`
	URL       string             `bson:"url" json:"url"`
	Enabled   bool               `bson:"enabled" json:"enabled"`
	LastRunAt *time.Time         `bson:"last_run_at,omitempty" json:"last_run_at,omitempty"`
	LastError string             `bson:"last_error,omitempty" json:"last_error,omitempty"`
}
