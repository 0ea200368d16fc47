package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsefit/coach-app/internal/domain"
)

// Error constants for the repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SelectionRepository defines the interface for methodology selection data.
type SelectionRepository interface {
	// CreateActive atomically cancels any existing active selection for the
	// user and inserts sel with status active. The two steps commit or fail
	// together, so two concurrent calls cannot both leave an active row.
	CreateActive(ctx context.Context, sel *domain.MethodologySelection) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.MethodologySelection, error)
	GetActiveByUser(ctx context.Context, userID primitive.ObjectID) (*domain.MethodologySelection, error)
	// UpdateFields applies a partial $set-style update. Field whitelisting
	// is the service layer's responsibility.
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) error
	// ListByUser returns selections newest-first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]domain.MethodologySelection, error)
}

// ProgressRepository defines the interface for weekly progress and training
// session data.
type ProgressRepository interface {
	CreateWeeks(ctx context.Context, weeks []domain.WeeklyProgress) ([]domain.WeeklyProgress, error)
	GetWeeksByMethodology(ctx context.Context, methodologyID primitive.ObjectID) ([]domain.WeeklyProgress, error)
	CreateSession(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error)
	GetSessionsByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingSession, error)
}
