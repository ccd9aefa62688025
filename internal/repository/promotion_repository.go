package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PromotionRepository struct {
	db *gorm.DB
}

func NewPromotionRepository(db *gorm.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

func (r *PromotionRepository) Create(ctx context.Context, promotion *domain.Promotion) error {
	return r.db.WithContext(ctx).Create(promotion).Error
}

func (r *PromotionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Promotion, error) {
	var promotion domain.Promotion
	err := r.db.WithContext(ctx).Preload("Members").First(&promotion, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &promotion, nil
}

func (r *PromotionRepository) List(ctx context.Context, includeArchived bool, academicYear string) ([]domain.Promotion, error) {
	var promotions []domain.Promotion

	query := r.db.WithContext(ctx).Model(&domain.Promotion{})
	if !includeArchived {
		query = query.Where("archived = ?", false)
	}
	if academicYear != "" {
		query = query.Where("academic_year = ?", academicYear)
	}

	err := query.Order("academic_year DESC, name ASC").Find(&promotions).Error
	return promotions, err
}

func (r *PromotionRepository) Update(ctx context.Context, promotion *domain.Promotion) error {
	return r.db.WithContext(ctx).Save(promotion).Error
}

func (r *PromotionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Promotion{}, "id = ?", id).Error
}

func (r *PromotionRepository) CountMembers(ctx context.Context, promotionID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PromotionMember{}).
		Where("promotion_id = ?", promotionID).
		Count(&count).Error
	return int(count), err
}

func (r *PromotionRepository) AddMember(ctx context.Context, member *domain.PromotionMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *PromotionRepository) RemoveMember(ctx context.Context, promotionID, memberID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("promotion_id = ? AND id = ?", promotionID, memberID).
		Delete(&domain.PromotionMember{})
	return result.RowsAffected, result.Error
}

func (r *PromotionRepository) MemberExists(ctx context.Context, promotionID uuid.UUID, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.PromotionMember{}).
		Where("promotion_id = ? AND email = ?", promotionID, email).
		Count(&count).Error
	return count > 0, err
}

// UpsertMembers inserts roster members, updating name and external id for
// emails already on the roster. Returns the number of rows written.
func (r *PromotionRepository) UpsertMembers(ctx context.Context, members []domain.PromotionMember) (int, error) {
	if len(members) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "promotion_id"}, {Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"first_name", "last_name", "external_id", "updated_at"}),
	}).Create(&members)
	return int(result.RowsAffected), result.Error
}
