package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsefit/coach-app/internal/domain"
)

// fakeStatsCache is an in-memory StatsCache with no TTL: entries live until
// explicitly deleted, so any missing invalidation shows up as a stale read.
type fakeStatsCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deletes []string
}

func (f *fakeStatsCache) Get(ctx context.Context, key string, dest any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.entries[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (f *fakeStatsCache) Set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.entries == nil {
		f.entries = map[string][]byte{}
	}
	f.entries[key] = data
}

func (f *fakeStatsCache) Delete(ctx context.Context, keys ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.entries, k)
		f.deletes = append(f.deletes, k)
	}
}

type fakeProgressRepo struct {
	weeks    []domain.WeeklyProgress
	sessions []domain.TrainingSession
}

func (f *fakeProgressRepo) CreateWeeks(ctx context.Context, weeks []domain.WeeklyProgress) ([]domain.WeeklyProgress, error) {
	now := time.Now().UTC()
	for i := range weeks {
		weeks[i].ID = primitive.NewObjectID()
		weeks[i].CreatedAt = now
	}
	f.weeks = append(f.weeks, weeks...)
	return weeks, nil
}

func (f *fakeProgressRepo) GetWeeksByMethodology(ctx context.Context, methodologyID primitive.ObjectID) ([]domain.WeeklyProgress, error) {
	var out []domain.WeeklyProgress
	for _, w := range f.weeks {
		if w.MethodologyID == methodologyID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) CreateSession(ctx context.Context, session *domain.TrainingSession) (primitive.ObjectID, error) {
	session.ID = primitive.NewObjectID()
	session.CreatedAt = time.Now().UTC()
	f.sessions = append(f.sessions, *session)
	return session.ID, nil
}

// GetSessionsByUser returns sessions newest-first, like the Mongo repository.
func (f *fakeProgressRepo) GetSessionsByUser(ctx context.Context, userID primitive.ObjectID) ([]domain.TrainingSession, error) {
	var out []domain.TrainingSession
	for i := len(f.sessions) - 1; i >= 0; i-- {
		if f.sessions[i].UserID == userID {
			out = append(out, f.sessions[i])
		}
	}
	return out, nil
}

func TestCreateWeeksValidation(t *testing.T) {
	svc := NewProgressService(&fakeProgressRepo{}, &fakeSelectionRepo{}, nil)

	_, err := svc.CreateWeeks(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoWeeksSupplied)

	_, err = svc.CreateWeeks(context.Background(), []domain.WeeklyProgress{{WeekNumber: 1}})
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.CreateWeeks(context.Background(), []domain.WeeklyProgress{{MethodologyID: primitive.NewObjectID(), WeekNumber: 0}})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestCreateAndGetWeeks(t *testing.T) {
	svc := NewProgressService(&fakeProgressRepo{}, &fakeSelectionRepo{}, nil)
	methodologyID := primitive.NewObjectID()

	created, err := svc.CreateWeeks(context.Background(), []domain.WeeklyProgress{
		{MethodologyID: methodologyID, WeekNumber: 1, PlannedSessions: 3},
		{MethodologyID: methodologyID, WeekNumber: 2, PlannedSessions: 3},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.False(t, created[0].ID.IsZero())

	weeks, err := svc.GetWeeks(context.Background(), methodologyID)
	require.NoError(t, err)
	assert.Len(t, weeks, 2)
}

func TestRecordSessionValidation(t *testing.T) {
	svc := NewProgressService(&fakeProgressRepo{}, &fakeSelectionRepo{}, nil)

	_, err := svc.RecordSession(context.Background(), nil)
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.RecordSession(context.Background(), &domain.TrainingSession{UserID: primitive.NewObjectID()})
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRecordSessionAssignsID(t *testing.T) {
	svc := NewProgressService(&fakeProgressRepo{}, &fakeSelectionRepo{}, nil)

	sess, err := svc.RecordSession(context.Background(), &domain.TrainingSession{
		UserID:          primitive.NewObjectID(),
		MethodologyID:   primitive.NewObjectID(),
		DurationMinutes: 45,
	})
	require.NoError(t, err)
	assert.False(t, sess.ID.IsZero())
}

func TestStatsAggregation(t *testing.T) {
	selectionRepo := &fakeSelectionRepo{}
	svc := NewProgressService(&fakeProgressRepo{}, selectionRepo, nil)
	methodologies := NewMethodologyService(selectionRepo, nil)
	userID := primitive.NewObjectID()

	first, err := methodologies.Select(context.Background(), newSelection(userID, "Strength"))
	require.NoError(t, err)
	second, err := methodologies.Select(context.Background(), newSelection(userID, "Hypertrophy"))
	require.NoError(t, err)

	_, err = methodologies.Update(context.Background(), second.ID, map[string]any{"progressPct": 50.0})
	require.NoError(t, err)
	_ = first

	stats, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.SelectionActive])
	assert.Equal(t, 1, stats.ByStatus[domain.SelectionCancelled])
	assert.Equal(t, 25.0, stats.AverageProgressPct)
	assert.NotNil(t, stats.LastSelectionAt)
}

func TestStatsEmpty(t *testing.T) {
	svc := NewProgressService(&fakeProgressRepo{}, &fakeSelectionRepo{}, nil)

	stats, err := svc.Stats(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Zero(t, stats.AverageProgressPct)
	assert.Nil(t, stats.LastSelectionAt)
}

func TestStatsCachedReadSkipsStore(t *testing.T) {
	statsCache := &fakeStatsCache{}
	selectionRepo := &fakeSelectionRepo{}
	svc := NewProgressService(&fakeProgressRepo{}, selectionRepo, statsCache)
	methodologies := NewMethodologyService(selectionRepo, statsCache)
	userID := primitive.NewObjectID()

	_, err := methodologies.Select(context.Background(), newSelection(userID, "Strength"))
	require.NoError(t, err)

	first, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	second, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSelectInvalidatesCachedStats(t *testing.T) {
	statsCache := &fakeStatsCache{}
	selectionRepo := &fakeSelectionRepo{}
	svc := NewProgressService(&fakeProgressRepo{}, selectionRepo, statsCache)
	methodologies := NewMethodologyService(selectionRepo, statsCache)
	userID := primitive.NewObjectID()

	_, err := methodologies.Select(context.Background(), newSelection(userID, "Strength"))
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)

	// A second selection must not leave the cached total=1 behind.
	_, err = methodologies.Select(context.Background(), newSelection(userID, "Hypertrophy"))
	require.NoError(t, err)

	stats, err = svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[domain.SelectionActive])
	assert.Equal(t, 1, stats.ByStatus[domain.SelectionCancelled])
	assert.Contains(t, statsCache.deletes, statsCacheKey(userID))
}

func TestUpdateInvalidatesCachedStats(t *testing.T) {
	statsCache := &fakeStatsCache{}
	selectionRepo := &fakeSelectionRepo{}
	svc := NewProgressService(&fakeProgressRepo{}, selectionRepo, statsCache)
	methodologies := NewMethodologyService(selectionRepo, statsCache)
	userID := primitive.NewObjectID()

	sel, err := methodologies.Select(context.Background(), newSelection(userID, "Strength"))
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Zero(t, stats.AverageProgressPct)

	_, err = methodologies.Update(context.Background(), sel.ID, map[string]any{"progressPct": 40.0})
	require.NoError(t, err)

	stats, err = svc.Stats(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 40.0, stats.AverageProgressPct)
}

func TestHomeSummaryEmpty(t *testing.T) {
	svc := NewProgressService(&fakeProgressRepo{}, &fakeSelectionRepo{}, nil)

	summary, err := svc.HomeSummary(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalSessions)
	assert.Equal(t, 0, summary.StreakDays)
}

func TestHomeSummaryStreak(t *testing.T) {
	repo := &fakeProgressRepo{}
	svc := NewProgressService(repo, &fakeSelectionRepo{}, nil)
	userID := primitive.NewObjectID()
	methodologyID := primitive.NewObjectID()

	now := time.Now().UTC()
	// A session three days ago, then yesterday and today: the streak stops at
	// the gap. The store stamps CreatedAt itself, so historical sessions are
	// seeded directly, oldest first to keep retrieval newest-first.
	for _, offset := range []int{-3, -1, 0} {
		repo.sessions = append(repo.sessions, domain.TrainingSession{
			ID:              primitive.NewObjectID(),
			UserID:          userID,
			MethodologyID:   methodologyID,
			DurationMinutes: 30,
			CreatedAt:       now.AddDate(0, 0, offset),
		})
	}

	summary, err := svc.HomeSummary(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.TotalSessions)
	assert.Equal(t, 90, summary.TotalDurationMinutes)
	assert.Equal(t, 2, summary.StreakDays)
}
