package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/service"
	"go.uber.org/zap"
)

// DeliverableHandler proxies deliverable metadata to the upstream backend
// and serves artifact files from gateway storage. File bytes never transit
// the upstream.
type DeliverableHandler struct {
	backendClient   *backend.Client
	artifactService *service.ArtifactService
	maxUploadMB     int64
	logger          *zap.Logger
}

// NewDeliverableHandler creates a new DeliverableHandler instance
func NewDeliverableHandler(
	backendClient *backend.Client,
	artifactService *service.ArtifactService,
	maxUploadMB int64,
	logger *zap.Logger,
) *DeliverableHandler {
	return &DeliverableHandler{
		backendClient:   backendClient,
		artifactService: artifactService,
		maxUploadMB:     maxUploadMB,
		logger:          logger,
	}
}

// List godoc
// @Summary List deliverables
// @Tags Deliverables
// @Produce json
// @Success 200 {array} object
// @Failure 401 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables [get]
func (h *DeliverableHandler) List(w http.ResponseWriter, r *http.Request) {
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), withQuery("/api/deliverables", r))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// GetByID godoc
// @Summary Get a deliverable
// @Tags Deliverables
// @Produce json
// @Param id path int true "Deliverable ID"
// @Success 200 {object} object
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables/{id} [get]
func (h *DeliverableHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deliverable ID")
		return
	}
	raw, apiErr := h.backendClient.GetJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/deliverables/%d", id))
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// Create godoc
// @Summary Create a deliverable
// @Tags Deliverables
// @Accept json
// @Produce json
// @Success 201 {object} object
// @Failure 400 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables [post]
func (h *DeliverableHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PostJSON(r.Context(), bearerToken(r), "/api/deliverables", body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusCreated, raw)
}

// Update godoc
// @Summary Update a deliverable
// @Tags Deliverables
// @Accept json
// @Produce json
// @Param id path int true "Deliverable ID"
// @Success 200 {object} object
// @Failure 404 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables/{id} [put]
func (h *DeliverableHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deliverable ID")
		return
	}
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	raw, apiErr := h.backendClient.PutJSON(r.Context(), bearerToken(r), fmt.Sprintf("/api/deliverables/%d", id), body)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}
	respondRaw(w, http.StatusOK, raw)
}

// UploadArtifact godoc
// @Summary Upload an artifact for a deliverable
// @Tags Deliverables
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Deliverable ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} domain.ArtifactDTO
// @Failure 400 {object} domain.ErrorResponse
// @Failure 413 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables/{id}/artifacts [post]
func (h *DeliverableHandler) UploadArtifact(w http.ResponseWriter, r *http.Request) {
	deliverableID, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deliverable ID")
		return
	}

	// Limit request size
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadMB*1024*1024)

	if err := r.ParseMultipartForm(h.maxUploadMB * 1024 * 1024); err != nil {
		respondWithError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File too large: maximum size is %dMB", h.maxUploadMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid file upload: file field is required")
		return
	}
	defer file.Close()

	dto, err := h.artifactService.Upload(r.Context(), deliverableID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.logger.Error("failed to upload artifact", zap.Error(err), zap.Int64("deliverable_id", deliverableID))
		respondServiceError(w, err, "Failed to upload artifact")
		return
	}

	respondJSON(w, http.StatusCreated, dto)
}

// ListArtifacts godoc
// @Summary List artifacts for a deliverable
// @Tags Deliverables
// @Produce json
// @Param id path int true "Deliverable ID"
// @Success 200 {array} domain.ArtifactDTO
// @Failure 400 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables/{id}/artifacts [get]
func (h *DeliverableHandler) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	deliverableID, err := parseInt64Param(r, "id")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid deliverable ID")
		return
	}

	artifacts, err := h.artifactService.ListByDeliverable(r.Context(), deliverableID)
	if err != nil {
		h.logger.Error("failed to list artifacts", zap.Error(err), zap.Int64("deliverable_id", deliverableID))
		respondServiceError(w, err, "Failed to list artifacts")
		return
	}

	respondJSON(w, http.StatusOK, artifacts)
}

// DownloadArtifact godoc
// @Summary Download an artifact
// @Tags Deliverables
// @Produce application/octet-stream
// @Param id path int true "Deliverable ID"
// @Param artifactId path string true "Artifact ID"
// @Success 200
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables/{id}/artifacts/{artifactId}/download [get]
func (h *DeliverableHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID, err := parseUUIDParam(r, "artifactId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid artifact ID: must be a valid UUID")
		return
	}

	artifact, reader, err := h.artifactService.Download(r.Context(), artifactID)
	if err != nil {
		h.logger.Error("failed to download artifact", zap.Error(err), zap.String("artifact_id", artifactID.String()))
		respondServiceError(w, err, "Failed to download artifact")
		return
	}
	defer reader.Close()

	contentType := artifact.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Disposition", "attachment; filename=\""+artifact.FileName+"\"")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(artifact.SizeBytes, 10))

	_, _ = io.Copy(w, reader)
}

// DeleteArtifact godoc
// @Summary Delete an artifact
// @Tags Deliverables
// @Param id path int true "Deliverable ID"
// @Param artifactId path string true "Artifact ID"
// @Success 204
// @Failure 403 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /deliverables/{id}/artifacts/{artifactId} [delete]
func (h *DeliverableHandler) DeleteArtifact(w http.ResponseWriter, r *http.Request) {
	artifactID, err := parseUUIDParam(r, "artifactId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid artifact ID: must be a valid UUID")
		return
	}

	if err := h.artifactService.Delete(r.Context(), artifactID); err != nil {
		h.logger.Error("failed to delete artifact", zap.Error(err), zap.String("artifact_id", artifactID.String()))
		respondServiceError(w, err, "Failed to delete artifact")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
