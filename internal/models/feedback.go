package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Feedback is one human rating of an insight. Many feedback rows may exist
// per insight; all are counted during ranker training.
type Feedback struct {
	ID         surrealmodels.RecordID `json:"id,omitempty"`
	InsightID  string                 `json:"insight_id"`
	StarRating int                    `json:"star_rating"`
	Tags       []string               `json:"tags,omitempty"`
	Comment    string                 `json:"comment,omitempty"`
	Created    time.Time              `json:"created,omitempty"`
}

// FeedbackPair joins an insight with one of its ratings, the unit of the
// ranker's training set.
type FeedbackPair struct {
	Insight    Insight `json:"insight"`
	StarRating int     `json:"star_rating"`
}
