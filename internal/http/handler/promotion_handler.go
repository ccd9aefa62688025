package handler

import (
	"encoding/json"
	"net/http"

	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/service"
	"go.uber.org/zap"
)

// PromotionHandler handles HTTP requests for promotions and their rosters
type PromotionHandler struct {
	promotionService *service.PromotionService
	logger           *zap.Logger
}

// NewPromotionHandler creates a new PromotionHandler instance
func NewPromotionHandler(promotionService *service.PromotionService, logger *zap.Logger) *PromotionHandler {
	return &PromotionHandler{
		promotionService: promotionService,
		logger:           logger,
	}
}

// List godoc
// @Summary List promotions
// @Tags Promotions
// @Produce json
// @Param includeArchived query bool false "Include archived promotions" default(false)
// @Param academicYear query string false "Filter by academic year"
// @Success 200 {array} domain.PromotionDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions [get]
func (h *PromotionHandler) List(w http.ResponseWriter, r *http.Request) {
	includeArchived := r.URL.Query().Get("includeArchived") == "true"
	academicYear := r.URL.Query().Get("academicYear")

	promotions, err := h.promotionService.List(r.Context(), includeArchived, academicYear)
	if err != nil {
		h.logger.Error("failed to list promotions", zap.Error(err))
		respondServiceError(w, err, "Failed to list promotions")
		return
	}

	respondJSON(w, http.StatusOK, promotions)
}

// GetByID godoc
// @Summary Get a promotion with its roster
// @Tags Promotions
// @Produce json
// @Param id path string true "Promotion ID"
// @Success 200 {object} domain.PromotionDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions/{id} [get]
func (h *PromotionHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid promotion ID: must be a valid UUID")
		return
	}

	promotion, err := h.promotionService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to get promotion")
		return
	}

	respondJSON(w, http.StatusOK, promotion)
}

// Create godoc
// @Summary Create a promotion
// @Tags Promotions
// @Accept json
// @Produce json
// @Param promotion body domain.CreatePromotionRequest true "Promotion"
// @Success 201 {object} domain.PromotionDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions [post]
func (h *PromotionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	promotion, err := h.promotionService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create promotion", zap.Error(err))
		respondServiceError(w, err, "Failed to create promotion")
		return
	}

	respondJSON(w, http.StatusCreated, promotion)
}

// Update godoc
// @Summary Update a promotion
// @Tags Promotions
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Param promotion body domain.UpdatePromotionRequest true "Fields to update"
// @Success 200 {object} domain.PromotionDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions/{id} [put]
func (h *PromotionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid promotion ID: must be a valid UUID")
		return
	}

	var req domain.UpdatePromotionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	promotion, err := h.promotionService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update promotion")
		return
	}

	respondJSON(w, http.StatusOK, promotion)
}

// Delete godoc
// @Summary Delete a promotion
// @Tags Promotions
// @Param id path string true "Promotion ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions/{id} [delete]
func (h *PromotionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid promotion ID: must be a valid UUID")
		return
	}

	if err := h.promotionService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, err, "Failed to delete promotion")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMember godoc
// @Summary Add a student to the roster
// @Tags Promotions
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Param member body domain.AddPromotionMemberRequest true "Member"
// @Success 201 {object} domain.PromotionMemberDTO
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions/{id}/members [post]
func (h *PromotionHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid promotion ID: must be a valid UUID")
		return
	}

	var req domain.AddPromotionMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	member, err := h.promotionService.AddMember(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to add member")
		return
	}

	respondJSON(w, http.StatusCreated, member)
}

// RemoveMember godoc
// @Summary Remove a student from the roster
// @Tags Promotions
// @Param id path string true "Promotion ID"
// @Param memberId path string true "Member ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions/{id}/members/{memberId} [delete]
func (h *PromotionHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	promotionID, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid promotion ID: must be a valid UUID")
		return
	}
	memberID, err := parseUUIDParam(r, "memberId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid member ID: must be a valid UUID")
		return
	}

	if err := h.promotionService.RemoveMember(r.Context(), promotionID, memberID); err != nil {
		respondServiceError(w, err, "Failed to remove member")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ImportRoster godoc
// @Summary Import the roster from the student information system
// @Tags Promotions
// @Accept json
// @Produce json
// @Param id path string true "Promotion ID"
// @Param request body domain.ImportRosterRequest true "Cohort to import"
// @Success 200 {object} domain.RosterImportResultDTO
// @Failure 404 {object} domain.ErrorResponse
// @Failure 503 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /promotions/{id}/import [post]
func (h *PromotionHandler) ImportRoster(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid promotion ID: must be a valid UUID")
		return
	}

	var req domain.ImportRosterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	result, err := h.promotionService.ImportRoster(r.Context(), id, req.CohortCode)
	if err != nil {
		h.logger.Error("failed to import roster", zap.Error(err), zap.String("promotion_id", id.String()))
		respondServiceError(w, err, "Failed to import roster")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
