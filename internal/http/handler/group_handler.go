package handler

import (
	"fmt"
	"net/http"

	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"go.uber.org/zap"
)

// GroupHandler proxies student group operations to the upstream backend,
// including the join and leave membership actions.
type GroupHandler struct {
	backendClient *backend.Client
	logger        *zap.Logger
}

// NewGroupHandler creates a new GroupHandler instance
func NewGroupHandler(backendClient *backend.Client, logger *zap.Logger) *GroupHandler {
	return &GroupHandler{
		backendClient: backendClient,
		logger:        logger,
	}
}

// List godoc
// @Summary List groups
// @Tags Groups
// @Produce json
// @Success 200 {array} backend.Group
// @Failure 401 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /groups [get]
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), withQuery("/api/groups", r))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// GetByID godoc
// @Summary Get a group with its members
// @Tags Groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} backend.Group
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /groups/{id} [get]
func (h *GroupHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/groups/%d", id))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Create godoc
// @Summary Create a group
// @Tags Groups
// @Accept json
// @Produce json
// @Success 201 {object} backend.Group
// @Failure 400 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /groups [post]
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PostJSON(r.Context(), bearerToken(r), "/api/groups", body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusCreated, raw)
}

// Update godoc
// @Summary Update a group
// @Tags Groups
// @Accept json
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} backend.Group
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /groups/{id} [put]
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PutJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/groups/%d", id), body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Join godoc
// @Summary Join a group
// @Tags Groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} backend.Group
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /groups/{id}/join [post]
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	raw, apiErr := h.backendClient.PostJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/groups/%d/join", id), nil)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Leave godoc
// @Summary Leave a group
// @Tags Groups
// @Produce json
// @Param id path int true "Group ID"
// @Success 200 {object} backend.Group
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /groups/{id}/leave [post]
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	raw, apiErr := h.backendClient.PostJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/groups/%d/leave", id), nil)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Delete godoc
// @Summary Delete a group
// @Tags Groups
// @Param id path int true "Group ID"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /groups/{id} [delete]
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid group ID")
		return
	}
	if _, apiErr := h.backendClient.DeleteJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/groups/%d", id)); apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
