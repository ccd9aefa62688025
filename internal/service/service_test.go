package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(t.TempDir()+"/test.db"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&domain.Promotion{},
		&domain.PromotionMember{},
		&domain.Defense{},
		&domain.Notification{},
		&domain.Artifact{},
	))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func teacherContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      1,
		Email:       "prof@example.edu",
		Name:        "Prof. Grace Hopper",
		Role:        domain.RoleTeacher,
		AccessToken: "teacher-token",
	})
}

func studentContext(userID int64) context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      userID,
		Email:       "student@example.edu",
		Name:        "Student",
		Role:        domain.RoleStudent,
		AccessToken: "student-token",
	})
}

// fakeBackend serves the small slice of the upstream API the services call
func fakeBackend(t *testing.T, handler http.Handler) *backend.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return backend.NewClient(&config.BackendConfig{BaseURL: server.URL, Timeout: 5}, zap.NewNop())
}

func groupBackend(t *testing.T, group backend.Group) *backend.Client {
	return fakeBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/groups/20":
			_ = json.NewEncoder(w).Encode(group)
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"message": "Group not found"})
		}
	}))
}
