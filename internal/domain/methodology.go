package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SelectionStatus type for the methodology selection lifecycle
type SelectionStatus string

const (
	SelectionActive    SelectionStatus = "active"
	SelectionCancelled SelectionStatus = "cancelled"
	SelectionCompleted SelectionStatus = "completed"
)

// Terminal reports whether the status permits no further transitions.
func (s SelectionStatus) Terminal() bool {
	return s == SelectionCancelled || s == SelectionCompleted
}

// SelectionMode distinguishes manual picks from AI-recommended ones.
type SelectionMode string

const (
	ModeManual    SelectionMode = "manual"
	ModeAutomatic SelectionMode = "automatic"
)

// MethodologySelection is one instance of a user choosing a training
// methodology, either manually or by accepting a recommendation.
// Rows are never deleted; superseded selections stay behind as history
// with status "cancelled".
//
// Invariant: a user has at most one selection with status "active".
type MethodologySelection struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	Name          string             `bson:"name" json:"name"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	Icon          string             `bson:"icon,omitempty" json:"icon,omitempty"`
	Version       string             `bson:"version,omitempty" json:"version,omitempty"`
	Mode          SelectionMode      `bson:"mode" json:"mode"`
	DurationWeeks int                `bson:"durationWeeks" json:"durationWeeks"`
	Difficulty    string             `bson:"difficulty,omitempty" json:"difficulty,omitempty"`
	StartDate     *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate       *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`

	// WeeklyPlan and AIRecommendation are opaque payloads produced by the
	// recommendation engine. They are stored and returned verbatim.
	WeeklyPlan       map[string]any `bson:"weeklyPlan,omitempty" json:"weeklyPlan,omitempty"`
	AIRecommendation map[string]any `bson:"aiRecommendation,omitempty" json:"aiRecommendation,omitempty"`

	Status      SelectionStatus `bson:"status" json:"status"`
	ProgressPct float64         `bson:"progressPct" json:"progressPct"` // self-reported, 0..100
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	CancelledAt *time.Time      `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
}
