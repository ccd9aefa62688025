package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"gorm.io/gorm"
)

type DefenseRepository struct {
	db *gorm.DB
}

func NewDefenseRepository(db *gorm.DB) *DefenseRepository {
	return &DefenseRepository{db: db}
}

func (r *DefenseRepository) Create(ctx context.Context, defense *domain.Defense) error {
	return r.db.WithContext(ctx).Create(defense).Error
}

func (r *DefenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Defense, error) {
	var defense domain.Defense
	err := r.db.WithContext(ctx).First(&defense, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &defense, nil
}

func (r *DefenseRepository) List(ctx context.Context, projectID, groupID int64, status domain.DefenseStatus) ([]domain.Defense, error) {
	var defenses []domain.Defense

	query := r.db.WithContext(ctx).Model(&domain.Defense{})
	if projectID != 0 {
		query = query.Where("project_id = ?", projectID)
	}
	if groupID != 0 {
		query = query.Where("group_id = ?", groupID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	err := query.Order("scheduled_at ASC").Find(&defenses).Error
	return defenses, err
}

func (r *DefenseRepository) Update(ctx context.Context, defense *domain.Defense) error {
	return r.db.WithContext(ctx).Save(defense).Error
}

func (r *DefenseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&domain.Defense{}, "id = ?", id).Error
}

// ListUpcoming returns scheduled defenses starting inside [from, to)
func (r *DefenseRepository) ListUpcoming(ctx context.Context, from, to time.Time) ([]domain.Defense, error) {
	var defenses []domain.Defense
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at >= ? AND scheduled_at < ?", domain.DefenseStatusScheduled, from, to).
		Order("scheduled_at ASC").
		Find(&defenses).Error
	return defenses, err
}

// FindRoomConflict returns a scheduled defense overlapping the given slot in
// the same room, excluding the defense being edited. Overlap is computed on
// [scheduled_at, scheduled_at + duration).
func (r *DefenseRepository) FindRoomConflict(ctx context.Context, room string, start time.Time, durationMin int, exclude uuid.UUID) (*domain.Defense, error) {
	end := start.Add(time.Duration(durationMin) * time.Minute)

	var candidates []domain.Defense
	err := r.db.WithContext(ctx).
		Where("room = ? AND status = ?", room, domain.DefenseStatusScheduled).
		Where("id <> ?", exclude).
		Where("scheduled_at < ?", end).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		candidateEnd := candidates[i].ScheduledAt.Add(time.Duration(candidates[i].DurationMin) * time.Minute)
		if candidateEnd.After(start) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// Stats aggregates defense counts by status
func (r *DefenseRepository) Stats(ctx context.Context, now time.Time) (*domain.DefenseStatsDTO, error) {
	stats := &domain.DefenseStatsDTO{}

	type row struct {
		Status domain.DefenseStatus
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).
		Model(&domain.Defense{}).
		Select("status, count(*) as count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		stats.Total += rw.Count
		switch rw.Status {
		case domain.DefenseStatusScheduled:
			stats.Scheduled = rw.Count
		case domain.DefenseStatusCompleted:
			stats.Completed = rw.Count
		case domain.DefenseStatusCancelled:
			stats.Cancelled = rw.Count
		}
	}

	err = r.db.WithContext(ctx).
		Model(&domain.Defense{}).
		Where("status = ? AND scheduled_at >= ?", domain.DefenseStatusScheduled, now).
		Count(&stats.Upcoming).Error
	return stats, err
}
