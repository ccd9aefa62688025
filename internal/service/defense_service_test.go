package service_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/repository"
	"github.com/projecthub-edu/projecthub-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newDefenseService(t *testing.T, db *gorm.DB, client *backend.Client) (*service.DefenseService, *repository.NotificationRepository) {
	t.Helper()
	notificationRepo := repository.NewNotificationRepository(db)
	return service.NewDefenseService(
		repository.NewDefenseRepository(db),
		notificationRepo,
		client,
		zap.NewNop(),
	), notificationRepo
}

func TestDefenseService_CreateNotifiesGroup(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{
		ID:        20,
		ProjectID: 10,
		Name:      "Team Rocket",
		Members: []backend.GroupMember{
			{UserID: 101, Email: "a@example.edu", Name: "A"},
			{UserID: 102, Email: "b@example.edu", Name: "B"},
		},
	})
	svc, notificationRepo := newDefenseService(t, db, client)

	ctx := teacherContext()
	dto, err := svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID:   10,
		GroupID:     20,
		Room:        "B204",
		ScheduledAt: time.Now().Add(48 * time.Hour),
		DurationMin: 45,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DefenseStatusScheduled, dto.Status)
	assert.Equal(t, 45, dto.DurationMin)
	assert.Equal(t, int64(1), dto.CreatedBy)

	// Both group members get a scheduling notice
	count, err := notificationRepo.CountUnread(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	count, err = notificationRepo.CountUnread(ctx, 102)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestDefenseService_CreateDefaultsDuration(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{ID: 20, ProjectID: 10, Name: "Solo"})
	svc, _ := newDefenseService(t, db, client)

	dto, err := svc.Create(teacherContext(), &domain.CreateDefenseRequest{
		ProjectID:   10,
		GroupID:     20,
		Room:        "B204",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 30, dto.DurationMin)
}

func TestDefenseService_CreateUnknownGroup(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{ID: 20, ProjectID: 10})
	svc, _ := newDefenseService(t, db, client)

	_, err := svc.Create(teacherContext(), &domain.CreateDefenseRequest{
		ProjectID:   10,
		GroupID:     999,
		Room:        "B204",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDefenseService_CreateGroupProjectMismatch(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{ID: 20, ProjectID: 77})
	svc, _ := newDefenseService(t, db, client)

	_, err := svc.Create(teacherContext(), &domain.CreateDefenseRequest{
		ProjectID:   10,
		GroupID:     20,
		Room:        "B204",
		ScheduledAt: time.Now().Add(time.Hour),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestDefenseService_CreateRoomConflict(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{ID: 20, ProjectID: 10})
	svc, _ := newDefenseService(t, db, client)

	ctx := teacherContext()
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	_, err := svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID:   10,
		GroupID:     20,
		Room:        "B204",
		ScheduledAt: start,
		DurationMin: 60,
	})
	require.NoError(t, err)

	// Overlapping slot in the same room
	_, err = svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID:   10,
		GroupID:     20,
		Room:        "B204",
		ScheduledAt: start.Add(30 * time.Minute),
	})
	assert.ErrorIs(t, err, service.ErrRoomConflict)

	// Same slot in another room is fine
	_, err = svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID:   10,
		GroupID:     20,
		Room:        "C101",
		ScheduledAt: start.Add(30 * time.Minute),
	})
	assert.NoError(t, err)
}

func TestDefenseService_UpdateRecheckConflict(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{ID: 20, ProjectID: 10})
	svc, _ := newDefenseService(t, db, client)

	ctx := teacherContext()
	start := time.Now().Add(24 * time.Hour).Truncate(time.Minute)

	first, err := svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID: 10, GroupID: 20, Room: "B204", ScheduledAt: start, DurationMin: 30,
	})
	require.NoError(t, err)

	second, err := svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID: 10, GroupID: 20, Room: "B204", ScheduledAt: start.Add(time.Hour), DurationMin: 30,
	})
	require.NoError(t, err)

	// Moving the second onto the first collides
	moved := start.Add(10 * time.Minute)
	_, err = svc.Update(ctx, second.ID, &domain.UpdateDefenseRequest{ScheduledAt: &moved})
	assert.ErrorIs(t, err, service.ErrRoomConflict)

	// Updating notes without moving does not trip the self-check
	notes := "external jury member confirmed"
	updated, err := svc.Update(ctx, first.ID, &domain.UpdateDefenseRequest{PanelNotes: &notes})
	require.NoError(t, err)
	assert.Equal(t, notes, updated.PanelNotes)
}

func TestDefenseService_CancelIdempotent(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{
		ID: 20, ProjectID: 10,
		Members: []backend.GroupMember{{UserID: 101, Email: "a@example.edu"}},
	})
	svc, notificationRepo := newDefenseService(t, db, client)

	ctx := teacherContext()
	dto, err := svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID: 10, GroupID: 20, Room: "B204", ScheduledAt: time.Now().Add(time.Hour),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, dto.ID))
	got, err := svc.GetByID(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DefenseStatusCancelled, got.Status)

	// One schedule notice plus one cancellation notice
	count, err := notificationRepo.CountUnread(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Second cancel is a no-op
	require.NoError(t, svc.Cancel(ctx, dto.ID))
	count, err = notificationRepo.CountUnread(ctx, 101)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestDefenseService_CancelNotFound(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{ID: 20, ProjectID: 10})
	svc, _ := newDefenseService(t, db, client)

	err := svc.Cancel(teacherContext(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDefenseService_ListUpcomingWindow(t *testing.T) {
	db := setupTestDB(t)
	client := groupBackend(t, backend.Group{ID: 20, ProjectID: 10})
	svc, _ := newDefenseService(t, db, client)

	ctx := teacherContext()
	soon, err := svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID: 10, GroupID: 20, Room: "B204", ScheduledAt: time.Now().Add(2 * time.Hour),
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &domain.CreateDefenseRequest{
		ProjectID: 10, GroupID: 20, Room: "B204", ScheduledAt: time.Now().Add(72 * time.Hour),
	})
	require.NoError(t, err)

	upcoming, err := svc.ListUpcoming(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, soon.ID, upcoming[0].ID)
}
