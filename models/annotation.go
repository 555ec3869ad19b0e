package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is the fixed label set the scoring model chooses from.
type Category string

const (
	CategoryNews              Category = "news"
	CategoryBestPractices     Category = "best_practices"
	CategoryPromptsTechniques Category = "prompts_techniques"
	CategoryToolsIntegrations Category = "tools_integrations"
	CategoryCommunity         Category = "community"
	CategoryQuickLinks        Category = "quick_links"
	// CategorySkip marks items that never enter an edition.
	CategorySkip Category = "skip"
)

// AllCategories lists every valid category, skip included.
var AllCategories = []Category{
	CategoryNews,
	CategoryBestPractices,
	CategoryPromptsTechniques,
	CategoryToolsIntegrations,
	CategoryCommunity,
	CategoryQuickLinks,
	CategorySkip,
}

// ParseCategory returns the category for s and whether it is a known label.
func ParseCategory(s string) (Category, bool) {
	for _, c := range AllCategories {
		if string(c) == s {
			return c, true
		}
	}
	return CategorySkip, false
}

// Annotation is the model's verdict on a single Item.
// Collection: annotations (item_id is unique; at most one per item)
type Annotation struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ItemID         primitive.ObjectID `bson:"item_id" json:"item_id"`
	Category       Category           `bson:"category" json:"category"`
	RelevanceScore float64            `bson:"relevance_score" json:"relevance_score"`
	QualityScore   float64            `bson:"quality_score" json:"quality_score"`
	Tags           []string           `bson:"tags" json:"tags"`
	Summary        string             `bson:"summary" json:"summary"`
	KeyInsight     string             `bson:"key_insight" json:"key_insight"`
	ModelName      string             `bson:"model_name,omitempty" json:"model_name,omitempty"`
	AnnotatedAt    time.Time          `bson:"annotated_at" json:"annotated_at"`
}

// CombinedScore is the ranking key used when filling sections.
func (a Annotation) CombinedScore() float64 {
	return a.RelevanceScore + a.QualityScore
}

// Candidate pairs an annotated item with its annotation.
type Candidate struct {
	Item       Item
	Annotation Annotation
}
