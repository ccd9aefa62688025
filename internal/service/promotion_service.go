package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/repository"
	"github.com/projecthub-edu/projecthub-api/internal/sis"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PromotionService handles business logic for promotions and their rosters
type PromotionService struct {
	promotionRepo *repository.PromotionRepository
	sisClient     *sis.Client
	logger        *zap.Logger
}

// NewPromotionService creates a new PromotionService instance
func NewPromotionService(
	promotionRepo *repository.PromotionRepository,
	sisClient *sis.Client,
	logger *zap.Logger,
) *PromotionService {
	return &PromotionService{
		promotionRepo: promotionRepo,
		sisClient:     sisClient,
		logger:        logger,
	}
}

// Create creates a promotion owned by the current teacher
func (s *PromotionService) Create(ctx context.Context, req *domain.CreatePromotionRequest) (*domain.PromotionDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	promotion := &domain.Promotion{
		Name:         strings.TrimSpace(req.Name),
		AcademicYear: strings.TrimSpace(req.AcademicYear),
		Description:  req.Description,
		CohortCode:   strings.TrimSpace(req.CohortCode),
		CreatedBy:    userCtx.UserID,
	}

	if err := s.promotionRepo.Create(ctx, promotion); err != nil {
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	s.logger.Info("promotion created",
		zap.String("promotionID", promotion.ID.String()),
		zap.String("name", promotion.Name),
		zap.Int64("createdBy", userCtx.UserID),
	)

	dto := toPromotionDTO(promotion, len(promotion.Members), false)
	return &dto, nil
}

// List returns promotions, optionally including archived ones
func (s *PromotionService) List(ctx context.Context, includeArchived bool, academicYear string) ([]domain.PromotionDTO, error) {
	promotions, err := s.promotionRepo.List(ctx, includeArchived, academicYear)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}

	dtos := make([]domain.PromotionDTO, len(promotions))
	for i := range promotions {
		count, err := s.promotionRepo.CountMembers(ctx, promotions[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count members: %w", err)
		}
		dtos[i] = toPromotionDTO(&promotions[i], count, false)
	}
	return dtos, nil
}

// GetByID returns a promotion with its roster
func (s *PromotionService) GetByID(ctx context.Context, id uuid.UUID) (*domain.PromotionDTO, error) {
	promotion, err := s.promotionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}

	dto := toPromotionDTO(promotion, len(promotion.Members), true)
	return &dto, nil
}

// Update applies partial changes to a promotion
func (s *PromotionService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdatePromotionRequest) (*domain.PromotionDTO, error) {
	promotion, err := s.promotionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}

	if req.Name != nil {
		promotion.Name = strings.TrimSpace(*req.Name)
	}
	if req.AcademicYear != nil {
		promotion.AcademicYear = strings.TrimSpace(*req.AcademicYear)
	}
	if req.Description != nil {
		promotion.Description = *req.Description
	}
	if req.CohortCode != nil {
		promotion.CohortCode = strings.TrimSpace(*req.CohortCode)
	}
	if req.Archived != nil {
		promotion.Archived = *req.Archived
	}

	if err := s.promotionRepo.Update(ctx, promotion); err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}

	dto := toPromotionDTO(promotion, len(promotion.Members), true)
	return &dto, nil
}

// Delete removes a promotion and its roster
func (s *PromotionService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.promotionRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get promotion: %w", err)
	}

	if err := s.promotionRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}

	s.logger.Info("promotion deleted", zap.String("promotionID", id.String()))
	return nil
}

// AddMember adds one student to the roster by hand
func (s *PromotionService) AddMember(ctx context.Context, promotionID uuid.UUID, req *domain.AddPromotionMemberRequest) (*domain.PromotionMemberDTO, error) {
	promotion, err := s.promotionRepo.GetByID(ctx, promotionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if promotion.Archived {
		return nil, ErrPromotionArchived
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.promotionRepo.MemberExists(ctx, promotionID, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check roster: %w", err)
	}
	if exists {
		return nil, ErrConflict
	}

	member := &domain.PromotionMember{
		PromotionID: promotionID,
		Email:       email,
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
	}
	if err := s.promotionRepo.AddMember(ctx, member); err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}

	dto := toPromotionMemberDTO(member)
	return &dto, nil
}

// RemoveMember removes one student from the roster
func (s *PromotionService) RemoveMember(ctx context.Context, promotionID, memberID uuid.UUID) error {
	affected, err := s.promotionRepo.RemoveMember(ctx, promotionID, memberID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ImportRoster pulls the enrollment list for a cohort from the student
// information system and upserts it into the promotion roster.
func (s *PromotionService) ImportRoster(ctx context.Context, promotionID uuid.UUID, cohortCode string) (*domain.RosterImportResultDTO, error) {
	if !s.sisClient.IsEnabled() {
		return nil, ErrSISUnavailable
	}

	promotion, err := s.promotionRepo.GetByID(ctx, promotionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	if promotion.Archived {
		return nil, ErrPromotionArchived
	}

	enrollments, err := s.sisClient.FetchEnrollments(ctx, cohortCode, promotion.AcademicYear)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch enrollments: %w", err)
	}

	members := make([]domain.PromotionMember, 0, len(enrollments))
	skipped := 0
	for _, e := range enrollments {
		email := strings.ToLower(strings.TrimSpace(e.Email))
		if email == "" {
			skipped++
			continue
		}
		members = append(members, domain.PromotionMember{
			PromotionID: promotionID,
			Email:       email,
			FirstName:   e.FirstName,
			LastName:    e.LastName,
			ExternalID:  e.StudentNumber,
		})
	}

	imported, err := s.promotionRepo.UpsertMembers(ctx, members)
	if err != nil {
		return nil, fmt.Errorf("failed to import roster: %w", err)
	}

	// Remember the cohort so the periodic sync can refresh this roster
	if promotion.CohortCode != cohortCode {
		promotion.CohortCode = cohortCode
		if err := s.promotionRepo.Update(ctx, promotion); err != nil {
			s.logger.Warn("failed to store cohort code", zap.Error(err))
		}
	}

	s.logger.Info("roster imported",
		zap.String("promotionID", promotionID.String()),
		zap.String("cohortCode", cohortCode),
		zap.Int("imported", imported),
		zap.Int("skipped", skipped),
	)

	return &domain.RosterImportResultDTO{
		PromotionID: promotionID,
		Imported:    imported,
		Skipped:     skipped,
	}, nil
}

// SyncRosters refreshes the roster of every active promotion that has a
// cohort code on record. Used by the periodic sync job.
func (s *PromotionService) SyncRosters(ctx context.Context) (synced, failed int, err error) {
	if !s.sisClient.IsEnabled() {
		return 0, 0, ErrSISUnavailable
	}

	promotions, err := s.promotionRepo.List(ctx, false, "")
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list promotions: %w", err)
	}

	for i := range promotions {
		if promotions[i].CohortCode == "" {
			continue
		}
		if _, err := s.ImportRoster(ctx, promotions[i].ID, promotions[i].CohortCode); err != nil {
			s.logger.Warn("roster sync failed for promotion",
				zap.String("promotionID", promotions[i].ID.String()),
				zap.String("cohortCode", promotions[i].CohortCode),
				zap.Error(err),
			)
			failed++
			continue
		}
		synced++
	}
	return synced, failed, nil
}

func toPromotionDTO(p *domain.Promotion, memberCount int, includeMembers bool) domain.PromotionDTO {
	dto := domain.PromotionDTO{
		ID:           p.ID,
		Name:         p.Name,
		AcademicYear: p.AcademicYear,
		Description:  p.Description,
		CohortCode:   p.CohortCode,
		Archived:     p.Archived,
		CreatedBy:    p.CreatedBy,
		MemberCount:  memberCount,
		CreatedAt:    domain.FormatTime(p.CreatedAt),
		UpdatedAt:    domain.FormatTime(p.UpdatedAt),
	}
	if includeMembers {
		dto.Members = make([]domain.PromotionMemberDTO, len(p.Members))
		for i := range p.Members {
			dto.Members[i] = toPromotionMemberDTO(&p.Members[i])
		}
	}
	return dto
}

func toPromotionMemberDTO(m *domain.PromotionMember) domain.PromotionMemberDTO {
	return domain.PromotionMemberDTO{
		ID:         m.ID,
		Email:      m.Email,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		ExternalID: m.ExternalID,
	}
}
