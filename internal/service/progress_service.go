package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsefit/coach-app/internal/domain"
	"pulsefit/coach-app/internal/repository"
)

var (
	ErrNoWeeksSupplied = errors.New("at least one week descriptor is required")
)

// StatsCache is the cache surface the services use for per-user statistics.
// *cache.Cache satisfies it; a nil value disables caching entirely.
type StatsCache interface {
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, v any)
	Delete(ctx context.Context, keys ...string)
}

// UserStats aggregates a user's methodology selections.
type UserStats struct {
	Total              int                            `json:"total"`
	ByStatus           map[domain.SelectionStatus]int `json:"byStatus"`
	AverageProgressPct float64                        `json:"averageProgressPct"`
	LastSelectionAt    *time.Time                     `json:"lastSelectionAt,omitempty"`
}

// HomeSessionSummary aggregates a user's training sessions for the
// home-training view: total time spent and the current day-over-day streak.
type HomeSessionSummary struct {
	TotalSessions        int `json:"totalSessions"`
	TotalDurationMinutes int `json:"totalDurationMinutes"`
	StreakDays           int `json:"streakDays"`
}

// ProgressService manages weekly progress rows and the append-only training
// session log, and computes per-user adherence statistics.
type ProgressService interface {
	CreateWeeks(ctx context.Context, weeks []domain.WeeklyProgress) ([]domain.WeeklyProgress, error)
	GetWeeks(ctx context.Context, methodologyID primitive.ObjectID) ([]domain.WeeklyProgress, error)
	RecordSession(ctx context.Context, session *domain.TrainingSession) (*domain.TrainingSession, error)
	Stats(ctx context.Context, userID primitive.ObjectID) (*UserStats, error)
	HomeSummary(ctx context.Context, userID primitive.ObjectID) (*HomeSessionSummary, error)
}

type progressService struct {
	progressRepo  repository.ProgressRepository
	selectionRepo repository.SelectionRepository
	statsCache    StatsCache
}

// NewProgressService creates a new instance of progressService.
// statsCache may be nil, which disables stats caching.
func NewProgressService(progressRepo repository.ProgressRepository, selectionRepo repository.SelectionRepository, statsCache StatsCache) ProgressService {
	return &progressService{
		progressRepo:  progressRepo,
		selectionRepo: selectionRepo,
		statsCache:    statsCache,
	}
}

func (s *progressService) CreateWeeks(ctx context.Context, weeks []domain.WeeklyProgress) ([]domain.WeeklyProgress, error) {
	if len(weeks) == 0 {
		return nil, ErrNoWeeksSupplied
	}
	for _, w := range weeks {
		if w.MethodologyID == primitive.NilObjectID || w.WeekNumber < 1 {
			return nil, ErrValidationFailed
		}
	}
	return s.progressRepo.CreateWeeks(ctx, weeks)
}

func (s *progressService) GetWeeks(ctx context.Context, methodologyID primitive.ObjectID) ([]domain.WeeklyProgress, error) {
	if methodologyID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	return s.progressRepo.GetWeeksByMethodology(ctx, methodologyID)
}

func (s *progressService) RecordSession(ctx context.Context, session *domain.TrainingSession) (*domain.TrainingSession, error) {
	if session == nil || session.UserID == primitive.NilObjectID || session.MethodologyID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	id, err := s.progressRepo.CreateSession(ctx, session)
	if err != nil {
		return nil, err
	}
	session.ID = id

	if s.statsCache != nil {
		s.statsCache.Delete(ctx, statsCacheKey(session.UserID))
	}
	return session, nil
}

func statsCacheKey(userID primitive.ObjectID) string {
	return "stats:" + userID.Hex()
}

// Stats aggregates across all of the user's methodology selections. Reads
// go through the short-TTL cache when one is configured.
func (s *progressService) Stats(ctx context.Context, userID primitive.ObjectID) (*UserStats, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	key := statsCacheKey(userID)
	if s.statsCache != nil {
		var cached UserStats
		if s.statsCache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	selections, err := s.selectionRepo.ListByUser(ctx, userID, 0, 0)
	if err != nil {
		return nil, err
	}

	stats := &UserStats{
		Total:    len(selections),
		ByStatus: map[domain.SelectionStatus]int{},
	}
	var progressSum float64
	for i, sel := range selections {
		stats.ByStatus[sel.Status]++
		progressSum += sel.ProgressPct
		if i == 0 || sel.CreatedAt.After(*stats.LastSelectionAt) {
			createdAt := sel.CreatedAt
			stats.LastSelectionAt = &createdAt
		}
	}
	if stats.Total > 0 {
		stats.AverageProgressPct = progressSum / float64(stats.Total)
	}

	if s.statsCache != nil {
		s.statsCache.Set(ctx, key, stats)
	}
	return stats, nil
}

// HomeSummary computes total elapsed duration and the day-over-day
// completion streak from the user's session log. The streak counts
// consecutive calendar days with at least one session, walking backwards
// from the most recent session day.
func (s *progressService) HomeSummary(ctx context.Context, userID primitive.ObjectID) (*HomeSessionSummary, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	sessions, err := s.progressRepo.GetSessionsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	summary := &HomeSessionSummary{TotalSessions: len(sessions)}
	for _, sess := range sessions {
		summary.TotalDurationMinutes += sess.DurationMinutes
	}
	summary.StreakDays = streakDays(sessions)
	return summary, nil
}

// streakDays expects sessions newest-first, as the repository returns them.
func streakDays(sessions []domain.TrainingSession) int {
	if len(sessions) == 0 {
		return 0
	}

	seen := map[string]bool{}
	for _, sess := range sessions {
		seen[sess.CreatedAt.UTC().Format("2006-01-02")] = true
	}

	streak := 0
	day := sessions[0].CreatedAt.UTC().Truncate(24 * time.Hour)
	for seen[day.Format("2006-01-02")] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}
