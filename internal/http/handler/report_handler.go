package handler

import (
	"fmt"
	"net/http"

	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"go.uber.org/zap"
)

// ReportHandler proxies progress report operations to the upstream backend
type ReportHandler struct {
	backendClient *backend.Client
	logger        *zap.Logger
}

// NewReportHandler creates a new ReportHandler instance
func NewReportHandler(backendClient *backend.Client, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{
		backendClient: backendClient,
		logger:        logger,
	}
}

// List godoc
// @Summary List reports
// @Tags Reports
// @Produce json
// @Success 200 {array} object
// @Failure 401 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reports [get]
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), withQuery("/api/reports", r))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// GetByID godoc
// @Summary Get a report
// @Tags Reports
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} object
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reports/{id} [get]
func (h *ReportHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/reports/%d", id))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Create godoc
// @Summary Submit a report
// @Tags Reports
// @Accept json
// @Produce json
// @Success 201 {object} object
// @Failure 400 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reports [post]
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PostJSON(r.Context(), bearerToken(r), "/api/reports", body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusCreated, raw)
}

// Update godoc
// @Summary Update a report
// @Tags Reports
// @Accept json
// @Produce json
// @Param id path int true "Report ID"
// @Success 200 {object} object
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reports/{id} [put]
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PutJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/reports/%d", id), body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Delete godoc
// @Summary Delete a report
// @Tags Reports
// @Param id path int true "Report ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /reports/{id} [delete]
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid report ID")
		return
	}
	if _, apiErr := h.backendClient.DeleteJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/reports/%d", id)); apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
