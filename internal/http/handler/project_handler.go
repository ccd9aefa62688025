package handler

import (
	"fmt"
	"net/http"

	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"go.uber.org/zap"
)

// ProjectHandler proxies project operations to the upstream backend.
// Projects live upstream; the gateway adds authentication and error
// normalization but owns no project state.
type ProjectHandler struct {
	backendClient *backend.Client
	logger        *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler instance
func NewProjectHandler(backendClient *backend.Client, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		backendClient: backendClient,
		logger:        logger,
	}
}

// List godoc
// @Summary List projects
// @Tags Projects
// @Produce json
// @Success 200 {array} backend.Project
// @Failure 401 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /projects [get]
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), withQuery("/api/projects", r))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// GetByID godoc
// @Summary Get a project
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} backend.Project
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/projects/%d", id))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// ListGroups godoc
// @Summary List groups for a project
// @Tags Projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {array} backend.Group
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id}/groups [get]
func (h *ProjectHandler) ListGroups(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/projects/%d/groups", id))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Create godoc
// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Success 201 {object} backend.Project
// @Failure 400 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /projects [post]
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PostJSON(r.Context(), bearerToken(r), "/api/projects", body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusCreated, raw)
}

// Update godoc
// @Summary Update a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} backend.Project
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PutJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/projects/%d", id), body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Delete godoc
// @Summary Delete a project
// @Tags Projects
// @Param id path int true "Project ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid project ID")
		return
	}
	if _, apiErr := h.backendClient.DeleteJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/projects/%d", id)); apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
