package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeeklyProgress is one planned week of a methodology selection.
// Week numbers are 1-based and increase monotonically within a methodology.
type WeeklyProgress struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MethodologyID   primitive.ObjectID `bson:"methodologyId" json:"methodologyId"`
	WeekNumber      int                `bson:"weekNumber" json:"weekNumber"`
	StartDate       time.Time          `bson:"startDate" json:"startDate"`
	EndDate         time.Time          `bson:"endDate" json:"endDate"`
	PlannedSessions int                `bson:"plannedSessions" json:"plannedSessions"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
}

// TrainingSession is an append-only record of one finished workout.
// Sessions are never mutated after creation.
type TrainingSession struct {
	ID                  primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID              primitive.ObjectID  `bson:"userId" json:"userId"`
	MethodologyID       primitive.ObjectID  `bson:"methodologyId" json:"methodologyId"`
	WeekID              *primitive.ObjectID `bson:"weekId,omitempty" json:"weekId,omitempty"`
	DurationMinutes     int                 `bson:"durationMinutes" json:"durationMinutes"`
	ExercisesCompleted  int                 `bson:"exercisesCompleted" json:"exercisesCompleted"`
	ExercisesTotal      int                 `bson:"exercisesTotal" json:"exercisesTotal"`
	PerceivedDifficulty int                 `bson:"perceivedDifficulty,omitempty" json:"perceivedDifficulty,omitempty"`
	Notes               string              `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt           time.Time           `bson:"createdAt" json:"createdAt"`
}
