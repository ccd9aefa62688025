package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DefenseService handles business logic for scheduled defenses
type DefenseService struct {
	defenseRepo      *repository.DefenseRepository
	notificationRepo *repository.NotificationRepository
	backendClient    *backend.Client
	logger           *zap.Logger
}

// NewDefenseService creates a new DefenseService instance
func NewDefenseService(
	defenseRepo *repository.DefenseRepository,
	notificationRepo *repository.NotificationRepository,
	backendClient *backend.Client,
	logger *zap.Logger,
) *DefenseService {
	return &DefenseService{
		defenseRepo:      defenseRepo,
		notificationRepo: notificationRepo,
		backendClient:    backendClient,
		logger:           logger,
	}
}

// Create schedules a defense after verifying the group exists upstream and
// the room is free for the slot
func (s *DefenseService) Create(ctx context.Context, req *domain.CreateDefenseRequest) (*domain.DefenseDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUserContextRequired
	}

	// The group record lives upstream; reject schedules for groups that
	// do not exist or do not belong to the project
	group, apiErr := s.backendClient.GetGroup(ctx, userCtx.AccessToken, req.GroupID)
	if apiErr != nil {
		if apiErr.Status == 404 {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to verify group: %w", apiErr)
	}
	if group.ProjectID != req.ProjectID {
		return nil, ErrInvalidInput
	}

	durationMin := req.DurationMin
	if durationMin == 0 {
		durationMin = 30
	}

	conflict, err := s.defenseRepo.FindRoomConflict(ctx, req.Room, req.ScheduledAt, durationMin, uuid.Nil)
	if err != nil {
		return nil, fmt.Errorf("failed to check room availability: %w", err)
	}
	if conflict != nil {
		return nil, ErrRoomConflict
	}

	defense := &domain.Defense{
		ProjectID:   req.ProjectID,
		GroupID:     req.GroupID,
		Room:        req.Room,
		ScheduledAt: req.ScheduledAt.UTC(),
		DurationMin: durationMin,
		PanelNotes:  req.PanelNotes,
		Status:      domain.DefenseStatusScheduled,
		CreatedBy:   userCtx.UserID,
	}
	if err := s.defenseRepo.Create(ctx, defense); err != nil {
		return nil, fmt.Errorf("failed to create defense: %w", err)
	}

	s.logger.Info("defense scheduled",
		zap.String("defenseID", defense.ID.String()),
		zap.Int64("groupID", defense.GroupID),
		zap.String("room", defense.Room),
		zap.Time("scheduledAt", defense.ScheduledAt),
	)

	// Tell group members right away; failures only cost the notification
	s.notifyGroup(ctx, defense, group, "Defense scheduled",
		fmt.Sprintf("Your defense is scheduled on %s in room %s", defense.ScheduledAt.Format("2006-01-02 15:04"), defense.Room))

	dto := toDefenseDTO(defense)
	return &dto, nil
}

// List returns defenses filtered by project, group and status
func (s *DefenseService) List(ctx context.Context, projectID, groupID int64, status domain.DefenseStatus) ([]domain.DefenseDTO, error) {
	defenses, err := s.defenseRepo.List(ctx, projectID, groupID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list defenses: %w", err)
	}

	dtos := make([]domain.DefenseDTO, len(defenses))
	for i := range defenses {
		dtos[i] = toDefenseDTO(&defenses[i])
	}
	return dtos, nil
}

// GetByID returns one defense
func (s *DefenseService) GetByID(ctx context.Context, id uuid.UUID) (*domain.DefenseDTO, error) {
	defense, err := s.defenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get defense: %w", err)
	}
	dto := toDefenseDTO(defense)
	return &dto, nil
}

// Update applies partial changes, re-checking the room slot when it moves
func (s *DefenseService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateDefenseRequest) (*domain.DefenseDTO, error) {
	defense, err := s.defenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get defense: %w", err)
	}

	if req.Room != nil {
		defense.Room = *req.Room
	}
	if req.ScheduledAt != nil {
		defense.ScheduledAt = req.ScheduledAt.UTC()
	}
	if req.DurationMin != nil {
		defense.DurationMin = *req.DurationMin
	}
	if req.PanelNotes != nil {
		defense.PanelNotes = *req.PanelNotes
	}
	if req.Status != nil {
		defense.Status = *req.Status
	}

	if defense.Status == domain.DefenseStatusScheduled {
		conflict, err := s.defenseRepo.FindRoomConflict(ctx, defense.Room, defense.ScheduledAt, defense.DurationMin, defense.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check room availability: %w", err)
		}
		if conflict != nil {
			return nil, ErrRoomConflict
		}
	}

	if err := s.defenseRepo.Update(ctx, defense); err != nil {
		return nil, fmt.Errorf("failed to update defense: %w", err)
	}

	dto := toDefenseDTO(defense)
	return &dto, nil
}

// Cancel marks a defense as cancelled and notifies the group
func (s *DefenseService) Cancel(ctx context.Context, id uuid.UUID) error {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return ErrUserContextRequired
	}

	defense, err := s.defenseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get defense: %w", err)
	}

	if defense.Status == domain.DefenseStatusCancelled {
		return nil
	}

	defense.Status = domain.DefenseStatusCancelled
	if err := s.defenseRepo.Update(ctx, defense); err != nil {
		return fmt.Errorf("failed to cancel defense: %w", err)
	}

	s.logger.Info("defense cancelled",
		zap.String("defenseID", id.String()),
		zap.Int64("cancelledBy", userCtx.UserID),
	)

	if group, apiErr := s.backendClient.GetGroup(ctx, userCtx.AccessToken, defense.GroupID); apiErr == nil {
		s.notifyGroup(ctx, defense, group, "Defense cancelled",
			fmt.Sprintf("Your defense on %s was cancelled", defense.ScheduledAt.Format("2006-01-02 15:04")))
	}

	return nil
}

// ListUpcoming returns scheduled defenses starting within the window
func (s *DefenseService) ListUpcoming(ctx context.Context, window time.Duration) ([]domain.DefenseDTO, error) {
	now := time.Now().UTC()
	defenses, err := s.defenseRepo.ListUpcoming(ctx, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming defenses: %w", err)
	}

	dtos := make([]domain.DefenseDTO, len(defenses))
	for i := range defenses {
		dtos[i] = toDefenseDTO(&defenses[i])
	}
	return dtos, nil
}

// Stats returns aggregated defense counts
func (s *DefenseService) Stats(ctx context.Context) (*domain.DefenseStatsDTO, error) {
	stats, err := s.defenseRepo.Stats(ctx, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate defense stats: %w", err)
	}
	return stats, nil
}

func (s *DefenseService) notifyGroup(ctx context.Context, defense *domain.Defense, group *backend.Group, title, message string) {
	notifications := make([]domain.Notification, 0, len(group.Members))
	defenseID := defense.ID
	for _, member := range group.Members {
		notifications = append(notifications, domain.Notification{
			UserID:    member.UserID,
			Kind:      domain.NotificationGeneral,
			Title:     title,
			Message:   message,
			DefenseID: &defenseID,
		})
	}
	if err := s.notificationRepo.CreateBatch(ctx, notifications); err != nil {
		s.logger.Warn("failed to notify group members",
			zap.String("defenseID", defense.ID.String()),
			zap.Error(err),
		)
	}
}

func toDefenseDTO(d *domain.Defense) domain.DefenseDTO {
	return domain.DefenseDTO{
		ID:          d.ID,
		ProjectID:   d.ProjectID,
		GroupID:     d.GroupID,
		Room:        d.Room,
		ScheduledAt: domain.FormatTime(d.ScheduledAt),
		DurationMin: d.DurationMin,
		PanelNotes:  d.PanelNotes,
		Status:      d.Status,
		CreatedBy:   d.CreatedBy,
		CreatedAt:   domain.FormatTime(d.CreatedAt),
		UpdatedAt:   domain.FormatTime(d.UpdatedAt),
	}
}
