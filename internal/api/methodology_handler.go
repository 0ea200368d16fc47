package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"pulsefit/coach-app/internal/domain"
	"pulsefit/coach-app/internal/llm"
	"pulsefit/coach-app/internal/recommend"
	"pulsefit/coach-app/internal/service"
)

// MethodologyHandler holds the methodology-related service dependencies.
type MethodologyHandler struct {
	recommendationService service.RecommendationService
	methodologyService    service.MethodologyService
	progressService       service.ProgressService
}

// NewMethodologyHandler creates a new MethodologyHandler.
func NewMethodologyHandler(
	recommendationService service.RecommendationService,
	methodologyService service.MethodologyService,
	progressService service.ProgressService,
) *MethodologyHandler {
	return &MethodologyHandler{
		recommendationService: recommendationService,
		methodologyService:    methodologyService,
		progressService:       progressService,
	}
}

// --- DTOs for API (Data Transfer Objects) ---

// RecommendRequest defines the expected JSON for a recommendation request.
type RecommendRequest struct {
	UserID            string         `json:"userId" binding:"required"`
	Profile           map[string]any `json:"profile" binding:"required"`
	ForcedMethodology string         `json:"forcedMethodology"`
}

// CreateSelectionRequest defines the manual methodology creation payload.
type CreateSelectionRequest struct {
	UserID           string         `json:"userId" binding:"required"`
	Name             string         `json:"name" binding:"required"`
	Description      string         `json:"description"`
	Icon             string         `json:"icon"`
	Version          string         `json:"version"`
	Mode             string         `json:"mode" binding:"omitempty,oneof=manual automatic"`
	DurationWeeks    int            `json:"durationWeeks" binding:"omitempty,min=1"`
	Difficulty       string         `json:"difficulty"`
	StartDate        *time.Time     `json:"startDate"`
	EndDate          *time.Time     `json:"endDate"`
	WeeklyPlan       map[string]any `json:"weeklyPlan"`
	AIRecommendation map[string]any `json:"aiRecommendation"`
}

// WeekInput is one weekly progress descriptor in a bulk creation request.
type WeekInput struct {
	MethodologyID   string    `json:"methodologyId" binding:"required"`
	WeekNumber      int       `json:"weekNumber" binding:"required,min=1"`
	StartDate       time.Time `json:"startDate" binding:"required"`
	EndDate         time.Time `json:"endDate" binding:"required"`
	PlannedSessions int       `json:"plannedSessions" binding:"omitempty,min=0"`
}

// CreateWeeksRequest is the bulk weekly progress creation payload.
type CreateWeeksRequest struct {
	Weeks []WeekInput `json:"weeks" binding:"required,min=1,dive"`
}

// SessionRequest is the append-only training session payload.
type SessionRequest struct {
	UserID              string `json:"userId" binding:"required"`
	MethodologyID       string `json:"methodologyId" binding:"required"`
	WeekID              string `json:"weekId"`
	DurationMinutes     int    `json:"durationMinutes" binding:"omitempty,min=0"`
	ExercisesCompleted  int    `json:"exercisesCompleted" binding:"omitempty,min=0"`
	ExercisesTotal      int    `json:"exercisesTotal" binding:"omitempty,min=0"`
	PerceivedDifficulty int    `json:"perceivedDifficulty" binding:"omitempty,min=1,max=5"`
	Notes               string `json:"notes"`
}

func parseObjectID(c *gin.Context, value, label string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+label+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// --- Handler Methods ---

// Recommend generates a recommendation and persists it as the user's new
// active selection.
// POST /methodology/recommend
func (h *MethodologyHandler) Recommend(c *gin.Context) {
	var req RecommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := parseObjectID(c, req.UserID, "user ID")
	if !ok {
		return
	}

	result, err := h.recommendationService.RecommendAndSelect(c.Request.Context(), userID, req.Profile, req.ForcedMethodology)
	if err != nil {
		switch {
		case errors.Is(err, llm.ErrUnavailable):
			abortWithError(c, http.StatusServiceUnavailable, "Recommendation service is not configured.")
		case errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, recommend.ErrGenerationFailed):
			log.Printf("ERROR: recommendation generation failed: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to generate recommendation.")
		default:
			log.Printf("ERROR: recommendation request failed: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to generate recommendation.")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateSelection is the manual methodology creation path.
// POST /methodology
func (h *MethodologyHandler) CreateSelection(c *gin.Context) {
	var req CreateSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := parseObjectID(c, req.UserID, "user ID")
	if !ok {
		return
	}

	sel := &domain.MethodologySelection{
		UserID:           userID,
		Name:             req.Name,
		Description:      req.Description,
		Icon:             req.Icon,
		Version:          req.Version,
		Mode:             domain.SelectionMode(req.Mode),
		DurationWeeks:    req.DurationWeeks,
		Difficulty:       req.Difficulty,
		StartDate:        req.StartDate,
		EndDate:          req.EndDate,
		WeeklyPlan:       req.WeeklyPlan,
		AIRecommendation: req.AIRecommendation,
	}

	sel, err := h.methodologyService.Select(c.Request.Context(), sel)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			log.Printf("ERROR: creating methodology selection: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to create methodology selection.")
		}
		return
	}

	c.JSON(http.StatusCreated, sel)
}

// GetActive returns the user's single active selection. The absence of one
// is a normal outcome, not an error.
// GET /methodology/active/:userId
func (h *MethodologyHandler) GetActive(c *gin.Context) {
	userID, ok := parseObjectID(c, c.Param("userId"), "user ID")
	if !ok {
		return
	}

	sel, err := h.methodologyService.GetActive(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrNoActiveMethodology) {
			c.JSON(http.StatusOK, gin.H{"active": false, "message": "no active methodology"})
			return
		}
		log.Printf("ERROR: fetching active methodology: %v", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve active methodology.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"active": true, "selection": sel})
}

// UpdateSelection applies a whitelisted partial update.
// PATCH /methodology/:id
func (h *MethodologyHandler) UpdateSelection(c *gin.Context) {
	id, ok := parseObjectID(c, c.Param("id"), "selection ID")
	if !ok {
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	sel, err := h.methodologyService.Update(c.Request.Context(), id, fields)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSelectionNotFound):
			abortWithError(c, http.StatusNotFound, "Methodology selection not found.")
		case errors.Is(err, service.ErrNoUpdatableFields), errors.Is(err, service.ErrStatusFinal), errors.Is(err, service.ErrValidationFailed):
			abortWithError(c, http.StatusBadRequest, err.Error())
		default:
			log.Printf("ERROR: updating methodology selection %s: %v", id.Hex(), err)
			abortWithError(c, http.StatusInternalServerError, "Failed to update methodology selection.")
		}
		return
	}

	c.JSON(http.StatusOK, sel)
}

// History returns the user's selections, newest first.
// GET /methodology/history/:userId?limit&offset
func (h *MethodologyHandler) History(c *gin.Context) {
	userID, ok := parseObjectID(c, c.Param("userId"), "user ID")
	if !ok {
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)

	selections, err := h.methodologyService.History(c.Request.Context(), userID, limit, offset)
	if err != nil {
		log.Printf("ERROR: fetching methodology history: %v", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve methodology history.")
		return
	}
	if selections == nil {
		selections = []domain.MethodologySelection{}
	}

	c.JSON(http.StatusOK, selections)
}

// CreateWeeks bulk-creates weekly progress rows.
// POST /methodology/weeks
func (h *MethodologyHandler) CreateWeeks(c *gin.Context) {
	var req CreateWeeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	weeks := make([]domain.WeeklyProgress, len(req.Weeks))
	for i, w := range req.Weeks {
		methodologyID, ok := parseObjectID(c, w.MethodologyID, "methodology ID")
		if !ok {
			return
		}
		weeks[i] = domain.WeeklyProgress{
			MethodologyID:   methodologyID,
			WeekNumber:      w.WeekNumber,
			StartDate:       w.StartDate,
			EndDate:         w.EndDate,
			PlannedSessions: w.PlannedSessions,
		}
	}

	created, err := h.progressService.CreateWeeks(c.Request.Context(), weeks)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) || errors.Is(err, service.ErrNoWeeksSupplied) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			log.Printf("ERROR: creating weekly progress: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to create weekly progress.")
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetWeeks lists a methodology's weeks, ordered by week number.
// GET /methodology/weeks/:methodologyId
func (h *MethodologyHandler) GetWeeks(c *gin.Context) {
	methodologyID, ok := parseObjectID(c, c.Param("methodologyId"), "methodology ID")
	if !ok {
		return
	}

	weeks, err := h.progressService.GetWeeks(c.Request.Context(), methodologyID)
	if err != nil {
		log.Printf("ERROR: fetching weekly progress: %v", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve weekly progress.")
		return
	}
	if weeks == nil {
		weeks = []domain.WeeklyProgress{}
	}

	c.JSON(http.StatusOK, weeks)
}

// RecordSession appends a finished workout to the session log.
// POST /methodology/sessions
func (h *MethodologyHandler) RecordSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := parseObjectID(c, req.UserID, "user ID")
	if !ok {
		return
	}
	methodologyID, ok := parseObjectID(c, req.MethodologyID, "methodology ID")
	if !ok {
		return
	}

	session := &domain.TrainingSession{
		UserID:              userID,
		MethodologyID:       methodologyID,
		DurationMinutes:     req.DurationMinutes,
		ExercisesCompleted:  req.ExercisesCompleted,
		ExercisesTotal:      req.ExercisesTotal,
		PerceivedDifficulty: req.PerceivedDifficulty,
		Notes:               req.Notes,
	}
	if req.WeekID != "" {
		weekID, ok := parseObjectID(c, req.WeekID, "week ID")
		if !ok {
			return
		}
		session.WeekID = &weekID
	}

	session, err := h.progressService.RecordSession(c.Request.Context(), session)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			log.Printf("ERROR: recording training session: %v", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to record training session.")
		}
		return
	}

	c.JSON(http.StatusCreated, session)
}

// Stats aggregates the user's methodology selections.
// GET /methodology/stats/:userId
func (h *MethodologyHandler) Stats(c *gin.Context) {
	userID, ok := parseObjectID(c, c.Param("userId"), "user ID")
	if !ok {
		return
	}

	stats, err := h.progressService.Stats(c.Request.Context(), userID)
	if err != nil {
		log.Printf("ERROR: computing user stats: %v", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to compute statistics.")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// HomeSummary aggregates the user's session log for the home-training view.
// GET /methodology/sessions/summary/:userId
func (h *MethodologyHandler) HomeSummary(c *gin.Context) {
	userID, ok := parseObjectID(c, c.Param("userId"), "user ID")
	if !ok {
		return
	}

	summary, err := h.progressService.HomeSummary(c.Request.Context(), userID)
	if err != nil {
		log.Printf("ERROR: computing session summary: %v", err)
		abortWithError(c, http.StatusInternalServerError, "Failed to compute session summary.")
		return
	}

	c.JSON(http.StatusOK, summary)
}
