package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsefit/coach-app/internal/domain"
	"pulsefit/coach-app/internal/llm"
	"pulsefit/coach-app/internal/recommend"
)

type stubLLMClient struct {
	available  bool
	completion string
	err        error
}

func (s *stubLLMClient) Available() bool { return s.available }

func (s *stubLLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	return s.completion, s.err
}

func newRecommendationFixture(client llm.Client) (RecommendationService, ProgressService) {
	selectionRepo := &fakeSelectionRepo{}
	progress := NewProgressService(&fakeProgressRepo{}, selectionRepo, nil)
	methodologies := NewMethodologyService(selectionRepo, nil)
	return NewRecommendationService(recommend.NewEngine(client), methodologies, progress), progress
}

const planCompletion = `{
	"recommendation": {
		"methodology": "Strength",
		"justification": "Solid base and a strength goal.",
		"duration_weeks": 2,
		"difficulty_level": "Advanced"
	},
	"weekly_plan": {
		"days": [
			{"day": "Monday", "focus": "lower", "exercises": ["squat", "deadlift"]},
			{"day": "Tuesday", "focus": "rest", "exercises": []}
		]
	}
}`

func TestRecommendAndSelectValidation(t *testing.T) {
	svc, _ := newRecommendationFixture(&stubLLMClient{available: true})

	_, err := svc.RecommendAndSelect(context.Background(), primitive.NilObjectID, map[string]any{}, "")
	assert.ErrorIs(t, err, ErrValidationFailed)

	_, err = svc.RecommendAndSelect(context.Background(), primitive.NewObjectID(), nil, "")
	assert.ErrorIs(t, err, ErrValidationFailed)
}

func TestRecommendAndSelectUnavailableClient(t *testing.T) {
	svc, _ := newRecommendationFixture(&stubLLMClient{available: false})

	_, err := svc.RecommendAndSelect(context.Background(), primitive.NewObjectID(), map[string]any{}, "")
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}

func TestRecommendAndSelectPersistsSelectionAndWeeks(t *testing.T) {
	svc, progress := newRecommendationFixture(&stubLLMClient{available: true, completion: planCompletion})
	userID := primitive.NewObjectID()

	result, err := svc.RecommendAndSelect(context.Background(), userID, map[string]any{"peso_kg": 80.0}, "")
	require.NoError(t, err)

	require.NotNil(t, result.Selection)
	assert.Equal(t, "Strength", result.Selection.Name)
	assert.Equal(t, domain.ModeAutomatic, result.Selection.Mode)
	assert.Equal(t, domain.SelectionActive, result.Selection.Status)
	assert.False(t, result.Fallback)
	assert.NotEmpty(t, result.Selection.AIRecommendation["requestId"])

	weeks, err := progress.GetWeeks(context.Background(), result.Selection.ID)
	require.NoError(t, err)
	require.Len(t, weeks, 2)
	// only the day with exercises counts as a planned session
	assert.Equal(t, 1, weeks[0].PlannedSessions)
	assert.Equal(t, 1, weeks[0].WeekNumber)
	assert.Equal(t, 2, weeks[1].WeekNumber)
}

func TestRecommendAndSelectForcedStaysAutomatic(t *testing.T) {
	svc, _ := newRecommendationFixture(&stubLLMClient{available: true, completion: planCompletion})
	userID := primitive.NewObjectID()

	result, err := svc.RecommendAndSelect(context.Background(), userID, map[string]any{}, "Home Training")
	require.NoError(t, err)

	// the forced pick wins over the completion, but it still went through
	// the engine, so the selection records an automatic mode
	assert.Equal(t, "Home Training", result.Selection.Name)
	assert.Equal(t, domain.ModeAutomatic, result.Selection.Mode)
}

func TestRecommendAndSelectFallbackStillSelects(t *testing.T) {
	svc, _ := newRecommendationFixture(&stubLLMClient{available: true, completion: "no json here"})
	userID := primitive.NewObjectID()

	result, err := svc.RecommendAndSelect(context.Background(), userID, map[string]any{}, "")
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	assert.Equal(t, recommend.DefaultMethodology, result.Selection.Name)
	assert.Equal(t, domain.SelectionActive, result.Selection.Status)
}
