package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"gorm.io/gorm"
)

type ArtifactRepository struct {
	db *gorm.DB
}

func NewArtifactRepository(db *gorm.DB) *ArtifactRepository {
	return &ArtifactRepository{db: db}
}

func (r *ArtifactRepository) Create(ctx context.Context, artifact *domain.Artifact) error {
	return r.db.WithContext(ctx).Create(artifact).Error
}

func (r *ArtifactRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Artifact, error) {
	var artifact domain.Artifact
	err := r.db.WithContext(ctx).First(&artifact, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &artifact, nil
}

func (r *ArtifactRepository) ListByDeliverable(ctx context.Context, deliverableID int64) ([]domain.Artifact, error) {
	var artifacts []domain.Artifact
	err := r.db.WithContext(ctx).
		Where("deliverable_id = ?", deliverableID).
		Order("created_at DESC").
		Find(&artifacts).Error
	return artifacts, err
}

func (r *ArtifactRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Artifact{}, "id = ?", id).Error
}
