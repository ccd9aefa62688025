package service

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/repository"
	"github.com/projecthub-edu/projecthub-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ArtifactService stores deliverable files in gateway storage and forwards
// their metadata upstream. The bytes never transit the upstream backend, so
// uploads keep working through upstream outages.
type ArtifactService struct {
	artifactRepo  *repository.ArtifactRepository
	storage       storage.Storage
	backendClient *backend.Client
	logger        *zap.Logger
}

// NewArtifactService creates a new ArtifactService instance
func NewArtifactService(
	artifactRepo *repository.ArtifactRepository,
	store storage.Storage,
	backendClient *backend.Client,
	logger *zap.Logger,
) *ArtifactService {
	return &ArtifactService{
		artifactRepo:  artifactRepo,
		storage:       store,
		backendClient: backendClient,
		logger:        logger,
	}
}

// Upload stores the file, records the artifact, and forwards metadata
// upstream. Metadata forwarding is best-effort: the upload succeeds even when
// the upstream is down and the record can be reconciled later.
func (s *ArtifactService) Upload(ctx context.Context, deliverableID int64, filename, contentType string, data io.Reader) (*domain.ArtifactDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	result, err := s.storage.Upload(ctx, filename, contentType, data)
	if err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	artifact := &domain.Artifact{
		DeliverableID: deliverableID,
		UploadedBy:    userCtx.UserID,
		FileName:      filename,
		ContentType:   contentType,
		SizeBytes:     result.Size,
		StoragePath:   result.Path,
		Checksum:      result.Checksum,
	}
	if err := s.artifactRepo.Create(ctx, artifact); err != nil {
		// Storage write is orphaned otherwise
		if delErr := s.storage.Delete(ctx, result.Path); delErr != nil {
			s.logger.Warn("failed to clean up stored file after record failure",
				zap.String("storagePath", result.Path),
				zap.Error(delErr),
			)
		}
		return nil, fmt.Errorf("failed to record artifact: %w", err)
	}

	s.logger.Info("artifact uploaded",
		zap.String("artifactID", artifact.ID.String()),
		zap.Int64("deliverableID", deliverableID),
		zap.String("fileName", filename),
		zap.Int64("size", result.Size),
	)

	if _, apiErr := s.backendClient.CreateArtifactMetadata(ctx, userCtx.AccessToken, backend.ArtifactMetadata{
		DeliverableID: deliverableID,
		FileName:      filename,
		ContentType:   contentType,
		SizeBytes:     result.Size,
		Checksum:      result.Checksum,
		UploadedBy:    userCtx.UserID,
	}); apiErr != nil {
		s.logger.Warn("failed to forward artifact metadata upstream",
			zap.String("artifactID", artifact.ID.String()),
			zap.Int("upstreamStatus", apiErr.Status),
			zap.String("upstreamMessage", apiErr.Message),
		)
	}

	dto := toArtifactDTO(artifact)
	return &dto, nil
}

// ListByDeliverable returns the stored artifacts for a deliverable
func (s *ArtifactService) ListByDeliverable(ctx context.Context, deliverableID int64) ([]domain.ArtifactDTO, error) {
	artifacts, err := s.artifactRepo.ListByDeliverable(ctx, deliverableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	dtos := make([]domain.ArtifactDTO, len(artifacts))
	for i := range artifacts {
		dtos[i] = toArtifactDTO(&artifacts[i])
	}
	return dtos, nil
}

// Download opens an artifact's content stream
func (s *ArtifactService) Download(ctx context.Context, id uuid.UUID) (*domain.Artifact, io.ReadCloser, error) {
	artifact, err := s.artifactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get artifact: %w", err)
	}

	reader, err := s.storage.Download(ctx, artifact.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	return artifact, reader, nil
}

// Delete removes an artifact record and its stored file. Only the uploader
// or a teacher may delete.
func (s *ArtifactService) Delete(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}

	artifact, err := s.artifactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get artifact: %w", err)
	}

	if artifact.UploadedBy != userCtx.UserID && !userCtx.IsTeacher() {
		return ErrPermissionDenied
	}

	if err := s.artifactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete artifact: %w", err)
	}
	if err := s.storage.Delete(ctx, artifact.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored file",
			zap.String("storagePath", artifact.StoragePath),
			zap.Error(err),
		)
	}

	s.logger.Info("artifact deleted",
		zap.String("artifactID", id.String()),
		zap.Int64("deletedBy", userCtx.UserID),
	)
	return nil
}

func toArtifactDTO(a *domain.Artifact) domain.ArtifactDTO {
	return domain.ArtifactDTO{
		ID:            a.ID,
		DeliverableID: a.DeliverableID,
		UploadedBy:    a.UploadedBy,
		FileName:      a.FileName,
		ContentType:   a.ContentType,
		SizeBytes:     a.SizeBytes,
		Checksum:      a.Checksum,
		CreatedAt:     domain.FormatTime(a.CreatedAt),
	}
}
