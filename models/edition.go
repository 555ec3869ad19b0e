package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Cadence is how often editions are produced.
type Cadence string

const (
	CadenceDaily  Cadence = "daily"
	CadenceWeekly Cadence = "weekly"
)

// ParseCadence validates a cadence label; empty means daily.
func ParseCadence(s string) (Cadence, bool) {
	switch Cadence(s) {
	case "", CadenceDaily:
		return CadenceDaily, true
	case CadenceWeekly:
		return CadenceWeekly, true
	}
	return "", false
}

// EditionMetadata keeps what the synthesis model returned next to the edition.
type EditionMetadata struct {
	ModelName     string            `bson:"model_name,omitempty" json:"model_name,omitempty"`
	SectionIntros map[string]string `bson:"section_intros,omitempty" json:"section_intros,omitempty"`
	// Raw is the decoded model response, kept as-is.
	Raw map[string]any `bson:"raw,omitempty" json:"raw,omitempty"`
}

// Edition is one synthesized newsletter.
// Collection: editions
type Edition struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Cadence   Cadence            `bson:"cadence" json:"cadence"`
	Body      string             `bson:"body,omitempty" json:"body,omitempty"`
	ItemCount int                `bson:"item_count" json:"item_count"`
	Metadata  EditionMetadata    `bson:"metadata" json:"metadata"`
	Sent      bool               `bson:"sent" json:"sent"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// EditionItem places one Item inside one Edition section.
// Collection: edition_items ((edition_id, display_order) is unique)
type EditionItem struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EditionID    primitive.ObjectID `bson:"edition_id" json:"edition_id"`
	ItemID       primitive.ObjectID `bson:"item_id" json:"item_id"`
	Section      string             `bson:"section" json:"section"`
	DisplayOrder int                `bson:"display_order" json:"display_order"`
	Headline     string             `bson:"headline" json:"headline"`
	Blurb        string             `bson:"blurb" json:"blurb"`
}

// EditionEntry is an EditionItem joined with its Item and Annotation for display.
type EditionEntry struct {
	EditionItem `bson:",inline"`
	Item        Item        `bson:"item"`
	Annotation  *Annotation `bson:"annotation,omitempty"`
}
