package service

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsefit/coach-app/internal/domain"
	"pulsefit/coach-app/internal/repository"
)

// --- Error Definitions ---
var (
	ErrValidationFailed    = errors.New("validation failed")
	ErrNoActiveMethodology = errors.New("no active methodology for this user")
	ErrSelectionNotFound   = errors.New("methodology selection not found")
	ErrStatusFinal         = errors.New("selection already cancelled or completed")
	ErrNoUpdatableFields   = errors.New("no updatable fields supplied")
)

// updatableSelectionFields whitelists the mutable fields of a selection and
// maps their API names to store field names. Everything else on a selection
// is immutable after creation.
var updatableSelectionFields = map[string]string{
	"status":      "status",
	"progressPct": "progressPct",
	"difficulty":  "difficulty",
	"endDate":     "endDate",
	"weeklyPlan":  "weeklyPlan",
	"description": "description",
	"icon":        "icon",
}

// MethodologyService owns the methodology selection lifecycle.
type MethodologyService interface {
	// Select makes sel the user's single active selection, atomically
	// cancelling any previous active one.
	Select(ctx context.Context, sel *domain.MethodologySelection) (*domain.MethodologySelection, error)
	// GetActive returns the user's active selection or ErrNoActiveMethodology.
	GetActive(ctx context.Context, userID primitive.ObjectID) (*domain.MethodologySelection, error)
	// Update applies a whitelisted partial update. Status transitions are
	// monotonic: a cancelled or completed selection never changes again.
	Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.MethodologySelection, error)
	// History lists a user's selections newest-first.
	History(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]domain.MethodologySelection, error)
}

type methodologyService struct {
	selectionRepo repository.SelectionRepository
	statsCache    StatsCache
}

// NewMethodologyService creates a new instance of methodologyService.
// statsCache may be nil, which disables stats cache invalidation.
func NewMethodologyService(selectionRepo repository.SelectionRepository, statsCache StatsCache) MethodologyService {
	return &methodologyService{selectionRepo: selectionRepo, statsCache: statsCache}
}

// invalidateStats drops the user's cached statistics after any write that
// changes what Stats aggregates.
func (s *methodologyService) invalidateStats(ctx context.Context, userID primitive.ObjectID) {
	if s.statsCache != nil {
		s.statsCache.Delete(ctx, statsCacheKey(userID))
	}
}

func (s *methodologyService) Select(ctx context.Context, sel *domain.MethodologySelection) (*domain.MethodologySelection, error) {
	if sel == nil || sel.UserID == primitive.NilObjectID || sel.Name == "" {
		return nil, ErrValidationFailed
	}
	if sel.Mode == "" {
		sel.Mode = domain.ModeManual
	}
	if sel.DurationWeeks <= 0 {
		sel.DurationWeeks = 12
	}
	if sel.StartDate == nil {
		now := time.Now().UTC()
		sel.StartDate = &now
	}
	if sel.EndDate == nil {
		end := sel.StartDate.Add(time.Duration(sel.DurationWeeks) * 7 * 24 * time.Hour)
		sel.EndDate = &end
	}

	id, err := s.selectionRepo.CreateActive(ctx, sel)
	if err != nil {
		return nil, err
	}
	sel.ID = id

	s.invalidateStats(ctx, sel.UserID)
	return sel, nil
}

func (s *methodologyService) GetActive(ctx context.Context, userID primitive.ObjectID) (*domain.MethodologySelection, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	sel, err := s.selectionRepo.GetActiveByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoActiveMethodology
		}
		return nil, err
	}
	return sel, nil
}

func (s *methodologyService) Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.MethodologySelection, error) {
	if id == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}

	set := map[string]any{}
	for key, value := range fields {
		storeKey, ok := updatableSelectionFields[key]
		if !ok {
			continue
		}
		set[storeKey] = value
	}
	if len(set) == 0 {
		return nil, ErrNoUpdatableFields
	}

	// endDate arrives as an RFC 3339 string when the update comes from the
	// HTTP surface.
	if raw, ok := set["endDate"].(string); ok {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, ErrValidationFailed
		}
		set["endDate"] = parsed.UTC()
	}

	existing, err := s.selectionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSelectionNotFound
		}
		return nil, err
	}

	if rawStatus, ok := set["status"]; ok {
		statusStr, ok := rawStatus.(string)
		if !ok {
			return nil, ErrValidationFailed
		}
		next := domain.SelectionStatus(statusStr)
		switch next {
		case domain.SelectionActive, domain.SelectionCancelled, domain.SelectionCompleted:
		default:
			return nil, ErrValidationFailed
		}
		// Monotonic lifecycle: nothing leaves a terminal status, and an
		// update never resurrects a row to active.
		if existing.Status.Terminal() {
			return nil, ErrStatusFinal
		}
		if next == domain.SelectionActive && existing.Status != domain.SelectionActive {
			return nil, ErrValidationFailed
		}
		set["status"] = next
		if next == domain.SelectionCancelled {
			set["cancelledAt"] = time.Now().UTC()
		}
	}

	if err := s.selectionRepo.UpdateFields(ctx, id, set); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSelectionNotFound
		}
		return nil, err
	}

	s.invalidateStats(ctx, existing.UserID)
	return s.selectionRepo.GetByID(ctx, id)
}

func (s *methodologyService) History(ctx context.Context, userID primitive.ObjectID, limit, offset int64) ([]domain.MethodologySelection, error) {
	if userID == primitive.NilObjectID {
		return nil, ErrValidationFailed
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.selectionRepo.ListByUser(ctx, userID, limit, offset)
}
