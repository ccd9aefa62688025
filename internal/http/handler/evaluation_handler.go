package handler

import (
	"fmt"
	"net/http"

	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"go.uber.org/zap"
)

// EvaluationHandler proxies grading operations to the upstream backend.
// The router restricts the mutating routes to teachers.
type EvaluationHandler struct {
	backendClient *backend.Client
	logger        *zap.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler instance
func NewEvaluationHandler(backendClient *backend.Client, logger *zap.Logger) *EvaluationHandler {
	return &EvaluationHandler{
		backendClient: backendClient,
		logger:        logger,
	}
}

// List godoc
// @Summary List evaluations
// @Tags Evaluations
// @Produce json
// @Success 200 {array} object
// @Failure 401 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /evaluations [get]
func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request) {
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), withQuery("/api/evaluations", r))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// GetByID godoc
// @Summary Get an evaluation
// @Tags Evaluations
// @Produce json
// @Param id path int true "Evaluation ID"
// @Success 200 {object} object
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /evaluations/{id} [get]
func (h *EvaluationHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid evaluation ID")
		return
	}
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/evaluations/%d", id))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Create godoc
// @Summary Record an evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Success 201 {object} object
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /evaluations [post]
func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PostJSON(r.Context(), bearerToken(r), "/api/evaluations", body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusCreated, raw)
}

// Update godoc
// @Summary Update an evaluation
// @Tags Evaluations
// @Accept json
// @Produce json
// @Param id path int true "Evaluation ID"
// @Success 200 {object} object
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /evaluations/{id} [put]
func (h *EvaluationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid evaluation ID")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PutJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/evaluations/%d", id), body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}
