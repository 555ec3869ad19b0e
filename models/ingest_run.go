package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IngestStatus string

const (
	IngestRunning   IngestStatus = "running"
	IngestCompleted IngestStatus = "completed"
)

// SourceError records a source that failed during one ingest run.
type SourceError struct {
	Source string `bson:"source" json:"source"`
	Error  string `bson:"error" json:"error"`
}

// IngestRun is the audit record of one ingest invocation.
// Collection: ingest_runs
type IngestRun struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	StartedAt      time.Time          `bson:"started_at" json:"started_at"`
	FinishedAt     *time.Time         `bson:"finished_at,omitempty" json:"finished_at,omitempty"`
	Status         IngestStatus       `bson:"status" json:"status"`
	TotalItems     int                `bson:"total_items" json:"total_items"`
	NewItems       int                `bson:"new_items" json:"new_items"`
	Errors         []SourceError      `bson:"errors" json:"errors"`
	SourcesScraped []string           `bson:"sources_scraped" json:"sources_scraped"`
}
