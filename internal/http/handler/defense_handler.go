package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/service"
	"go.uber.org/zap"
)

// DefenseHandler handles HTTP requests for scheduled defenses
type DefenseHandler struct {
	defenseService *service.DefenseService
	logger         *zap.Logger
}

// NewDefenseHandler creates a new DefenseHandler instance
func NewDefenseHandler(defenseService *service.DefenseService, logger *zap.Logger) *DefenseHandler {
	return &DefenseHandler{
		defenseService: defenseService,
		logger:         logger,
	}
}

// List godoc
// @Summary List defenses
// @Tags Defenses
// @Produce json
// @Param projectId query int false "Filter by project"
// @Param groupId query int false "Filter by group"
// @Param status query string false "Filter by status" Enums(scheduled, completed, cancelled)
// @Success 200 {array} domain.DefenseDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /defenses [get]
func (h *DefenseHandler) List(w http.ResponseWriter, r *http.Request) {
	projectID, _ := strconv.ParseInt(r.URL.Query().Get("projectId"), 10, 64)
	groupID, _ := strconv.ParseInt(r.URL.Query().Get("groupId"), 10, 64)

	status := domain.DefenseStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid status: must be one of scheduled, completed, cancelled")
		return
	}

	defenses, err := h.defenseService.List(r.Context(), projectID, groupID, status)
	if err != nil {
		h.logger.Error("failed to list defenses", zap.Error(err))
		respondServiceError(w, err, "Failed to list defenses")
		return
	}

	respondJSON(w, http.StatusOK, defenses)
}

// Upcoming godoc
// @Summary List defenses starting soon
// @Tags Defenses
// @Produce json
// @Param hours query int false "Window in hours" default(24)
// @Success 200 {array} domain.DefenseDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /defenses/upcoming [get]
func (h *DefenseHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	hours, _ := strconv.Atoi(r.URL.Query().Get("hours"))
	if hours < 1 {
		hours = 24
	}
	if hours > 24*30 {
		hours = 24 * 30
	}

	defenses, err := h.defenseService.ListUpcoming(r.Context(), time.Duration(hours)*time.Hour)
	if err != nil {
		h.logger.Error("failed to list upcoming defenses", zap.Error(err))
		respondServiceError(w, err, "Failed to list upcoming defenses")
		return
	}

	respondJSON(w, http.StatusOK, defenses)
}

// Stats godoc
// @Summary Defense statistics
// @Tags Defenses
// @Produce json
// @Success 200 {object} domain.DefenseStatsDTO
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /defenses/stats [get]
func (h *DefenseHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.defenseService.Stats(r.Context())
	if err != nil {
		h.logger.Error("failed to get defense stats", zap.Error(err))
		respondServiceError(w, err, "Failed to get defense stats")
		return
	}

	respondJSON(w, http.StatusOK, stats)
}

// GetByID godoc
// @Summary Get a defense
// @Tags Defenses
// @Produce json
// @Param id path string true "Defense ID"
// @Success 200 {object} domain.DefenseDTO
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /defenses/{id} [get]
func (h *DefenseHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid defense ID: must be a valid UUID")
		return
	}

	defense, err := h.defenseService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to get defense")
		return
	}

	respondJSON(w, http.StatusOK, defense)
}

// Create godoc
// @Summary Schedule a defense
// @Tags Defenses
// @Accept json
// @Produce json
// @Param defense body domain.CreateDefenseRequest true "Defense"
// @Success 201 {object} domain.DefenseDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /defenses [post]
func (h *DefenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateDefenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	defense, err := h.defenseService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to schedule defense", zap.Error(err))
		respondServiceError(w, err, "Failed to schedule defense")
		return
	}

	respondJSON(w, http.StatusCreated, defense)
}

// Update godoc
// @Summary Update a defense
// @Tags Defenses
// @Accept json
// @Produce json
// @Param id path string true "Defense ID"
// @Param defense body domain.UpdateDefenseRequest true "Fields to update"
// @Success 200 {object} domain.DefenseDTO
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /defenses/{id} [put]
func (h *DefenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid defense ID: must be a valid UUID")
		return
	}

	var req domain.UpdateDefenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	defense, err := h.defenseService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, err, "Failed to update defense")
		return
	}

	respondJSON(w, http.StatusOK, defense)
}

// Cancel godoc
// @Summary Cancel a defense
// @Tags Defenses
// @Param id path string true "Defense ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /defenses/{id} [delete]
func (h *DefenseHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid defense ID: must be a valid UUID")
		return
	}

	if err := h.defenseService.Cancel(r.Context(), id); err != nil {
		respondServiceError(w, err, "Failed to cancel defense")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
