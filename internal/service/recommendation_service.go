package service

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsefit/coach-app/internal/domain"
	"pulsefit/coach-app/internal/profile"
	"pulsefit/coach-app/internal/recommend"
)

// RecommendationResult is the full outcome of a recommendation request:
// the decoded recommendation, its weekly plan, and the methodology
// selection persisted as the user's new active one.
type RecommendationResult struct {
	Recommendation recommend.Recommendation     `json:"recommendation"`
	WeeklyPlan     map[string]any               `json:"weeklyPlan,omitempty"`
	Selection      *domain.MethodologySelection `json:"selection"`
	Fallback       bool                         `json:"fallback"`
}

// RecommendationService drives the full flow: normalize the raw profile,
// ask the engine for a recommendation, persist the outcome as the new
// active selection, and materialize its weekly progress rows.
type RecommendationService interface {
	RecommendAndSelect(ctx context.Context, userID primitive.ObjectID, rawProfile map[string]any, forcedMethodology string) (*RecommendationResult, error)
}

type recommendationService struct {
	engine        *recommend.Engine
	methodologies MethodologyService
	progress      ProgressService
}

// NewRecommendationService creates a new instance of recommendationService.
func NewRecommendationService(engine *recommend.Engine, methodologies MethodologyService, progress ProgressService) RecommendationService {
	return &recommendationService{
		engine:        engine,
		methodologies: methodologies,
		progress:      progress,
	}
}

func (s *recommendationService) RecommendAndSelect(ctx context.Context, userID primitive.ObjectID, rawProfile map[string]any, forcedMethodology string) (*RecommendationResult, error) {
	if userID == primitive.NilObjectID || rawProfile == nil {
		return nil, ErrValidationFailed
	}

	canonical := profile.Normalize(rawProfile)

	outcome, err := s.engine.Recommend(ctx, canonical, forcedMethodology)
	if err != nil {
		return nil, err
	}

	// Every engine-driven selection is automatic, forced methodology or not.
	// Manual mode is reserved for selections created directly.
	sel := &domain.MethodologySelection{
		UserID:        userID,
		Name:          outcome.Recommendation.Methodology,
		Mode:          domain.ModeAutomatic,
		DurationWeeks: outcome.Recommendation.DurationWeeks,
		Difficulty:    outcome.Recommendation.Difficulty,
		WeeklyPlan:    outcome.WeeklyPlan,
		AIRecommendation: map[string]any{
			"methodology":   outcome.Recommendation.Methodology,
			"justification": outcome.Recommendation.Justification,
			"durationWeeks": outcome.Recommendation.DurationWeeks,
			"difficulty":    outcome.Recommendation.Difficulty,
			"fallback":      outcome.Fallback,
			"requestId":     outcome.RequestID,
		},
	}

	sel, err = s.methodologies.Select(ctx, sel)
	if err != nil {
		return nil, err
	}

	// Materialize one WeeklyProgress row per program week. A failure here
	// does not undo the selection; the weeks can be recreated through the
	// bulk endpoint.
	if weeks := buildWeeks(sel, outcome.WeeklyPlan); len(weeks) > 0 {
		if _, err := s.progress.CreateWeeks(ctx, weeks); err != nil {
			log.Printf("WARN: failed to materialize weekly progress for selection %s: %v", sel.ID.Hex(), err)
		}
	}

	return &RecommendationResult{
		Recommendation: outcome.Recommendation,
		WeeklyPlan:     outcome.WeeklyPlan,
		Selection:      sel,
		Fallback:       outcome.Fallback,
	}, nil
}

// buildWeeks derives week descriptors from the selection's duration and the
// decoded plan's day count.
func buildWeeks(sel *domain.MethodologySelection, plan map[string]any) []domain.WeeklyProgress {
	if sel.StartDate == nil || sel.DurationWeeks <= 0 {
		return nil
	}

	plannedSessions := 0
	if plan != nil {
		if days, ok := plan["days"].([]any); ok {
			for _, d := range days {
				day, ok := d.(map[string]any)
				if !ok {
					continue
				}
				if exercises, ok := day["exercises"].([]any); ok && len(exercises) > 0 {
					plannedSessions++
				}
			}
		}
	}

	weeks := make([]domain.WeeklyProgress, sel.DurationWeeks)
	for i := range weeks {
		start := sel.StartDate.AddDate(0, 0, i*7)
		weeks[i] = domain.WeeklyProgress{
			MethodologyID:   sel.ID,
			WeekNumber:      i + 1,
			StartDate:       start,
			EndDate:         start.AddDate(0, 0, 6),
			PlannedSessions: plannedSessions,
		}
	}
	return weeks
}
