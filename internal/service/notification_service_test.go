package service_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/repository"
	"github.com/projecthub-edu/projecthub-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedNotifications(t *testing.T, db *gorm.DB, userID int64, count int) []domain.Notification {
	t.Helper()
	repo := repository.NewNotificationRepository(db)
	out := make([]domain.Notification, count)
	for i := 0; i < count; i++ {
		n := domain.Notification{
			UserID:  userID,
			Kind:    domain.NotificationGeneral,
			Title:   fmt.Sprintf("Notice %d", i+1),
			Message: "hello",
		}
		require.NoError(t, repo.Create(context.Background(), &n))
		out[i] = n
	}
	return out
}

func TestNotificationService_Pagination(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())
	seedNotifications(t, db, 101, 25)
	seedNotifications(t, db, 102, 3)

	ctx := studentContext(101)
	page, err := svc.GetForCurrentUser(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.Equal(t, int64(25), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Data.([]domain.NotificationDTO), 10)

	last, err := svc.GetForCurrentUser(ctx, 3, 10, false)
	require.NoError(t, err)
	assert.Len(t, last.Data.([]domain.NotificationDTO), 5)

	// Out-of-range inputs are clamped, not rejected
	clamped, err := svc.GetForCurrentUser(ctx, 0, -1, false)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, 20, clamped.PageSize)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())
	mine := seedNotifications(t, db, 101, 2)
	theirs := seedNotifications(t, db, 102, 1)

	ctx := studentContext(101)
	require.NoError(t, svc.MarkAsRead(ctx, mine[0].ID))

	count, err := svc.GetUnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count.Count)

	// Someone else's notification is indistinguishable from a missing one
	assert.ErrorIs(t, svc.MarkAsRead(ctx, theirs[0].ID), service.ErrNotFound)
	assert.ErrorIs(t, svc.MarkAsRead(ctx, uuid.New()), service.ErrNotFound)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())
	seedNotifications(t, db, 101, 4)
	seedNotifications(t, db, 102, 2)

	require.NoError(t, svc.MarkAllAsRead(studentContext(101)))

	count, err := svc.GetUnreadCount(studentContext(101))
	require.NoError(t, err)
	assert.Equal(t, 0, count.Count)

	other, err := svc.GetUnreadCount(studentContext(102))
	require.NoError(t, err)
	assert.Equal(t, 2, other.Count)
}

func TestNotificationService_RequiresUserContext(t *testing.T) {
	db := setupTestDB(t)
	svc := service.NewNotificationService(repository.NewNotificationRepository(db), zap.NewNop())

	_, err := svc.GetUnreadCount(context.Background())
	assert.ErrorIs(t, err, service.ErrUserContextRequired)
}
