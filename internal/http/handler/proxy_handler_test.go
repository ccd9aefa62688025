package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeUpstream serves as the backend the proxy handlers forward to
func fakeUpstream(t *testing.T, h http.Handler) *backend.Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	return backend.NewClient(&config.BackendConfig{BaseURL: server.URL, Timeout: 5}, zap.NewNop())
}

// deadUpstream points at a server that no longer accepts connections
func deadUpstream(t *testing.T) *backend.Client {
	t.Helper()
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return backend.NewClient(&config.BackendConfig{BaseURL: url, Timeout: 5}, zap.NewNop())
}

func authenticatedRequest(method, target string, body []byte) *http.Request {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	userCtx := &auth.UserContext{
		UserID:      1,
		Email:       "teacher@example.edu",
		Role:        domain.RoleTeacher,
		AccessToken: "teacher-token",
	}
	return req.WithContext(auth.WithUserContext(req.Context(), userCtx))
}

func decodeAPIError(t *testing.T, body *bytes.Buffer) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(body.Bytes(), &apiErr))
	return apiErr
}

func TestProjectHandler_List_RelaysUpstreamBody(t *testing.T) {
	var gotAuth, gotQuery string
	client := fakeUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Compilers"},{"id":2,"name":"Databases"}]`))
	}))

	h := handler.NewProjectHandler(client, zap.NewNop())
	req := authenticatedRequest(http.MethodGet, "/api/v1/projects?status=active", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Compilers"},{"id":2,"name":"Databases"}]`, w.Body.String())
	assert.Equal(t, "Bearer teacher-token", gotAuth)
	assert.Equal(t, "status=active", gotQuery)
}

func TestProjectHandler_GetByID_UpstreamErrorPassesThrough(t *testing.T) {
	client := fakeUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Project not found"}`))
	}))

	h := handler.NewProjectHandler(client, zap.NewNop())

	router := chi.NewRouter()
	router.Get("/projects/{id}", h.GetByID)

	req := authenticatedRequest(http.MethodGet, "/projects/99", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	apiErr := decodeAPIError(t, w.Body)
	assert.Equal(t, "Project not found", apiErr.Detail)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestProjectHandler_List_UnreachableUpstreamIs502(t *testing.T) {
	h := handler.NewProjectHandler(deadUpstream(t), zap.NewNop())

	req := authenticatedRequest(http.MethodGet, "/api/v1/projects", nil)
	w := httptest.NewRecorder()

	h.List(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	apiErr := decodeAPIError(t, w.Body)
	assert.Equal(t, domain.ErrorTypeUpstream, apiErr.Type)
	assert.Equal(t, "Network error", apiErr.Detail)
}

func TestProjectHandler_GetByID_InvalidIDIs400(t *testing.T) {
	h := handler.NewProjectHandler(deadUpstream(t), zap.NewNop())

	router := chi.NewRouter()
	router.Get("/projects/{id}", h.GetByID)

	req := authenticatedRequest(http.MethodGet, "/projects/not-a-number", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProjectHandler_Create_ForwardsBody(t *testing.T) {
	var forwarded []byte
	client := fakeUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		forwarded = mustReadAll(t, r)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":7,"name":"Networks"}`))
	}))

	h := handler.NewProjectHandler(client, zap.NewNop())
	req := authenticatedRequest(http.MethodPost, "/api/v1/projects", []byte(`{"name":"Networks"}`))
	w := httptest.NewRecorder()

	h.Create(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":7,"name":"Networks"}`, w.Body.String())
	assert.JSONEq(t, `{"name":"Networks"}`, string(forwarded))
}

func TestProjectHandler_Delete_NoContent(t *testing.T) {
	client := fakeUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	h := handler.NewProjectHandler(client, zap.NewNop())

	router := chi.NewRouter()
	router.Delete("/projects/{id}", h.Delete)

	req := authenticatedRequest(http.MethodDelete, "/projects/7", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestAuthHandler_Login_RelaysTokenAndUser(t *testing.T) {
	client := fakeUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/login", r.URL.Path)
		require.Empty(t, r.Header.Get("Authorization"), "login must not carry a bearer token")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"issued-token","user":{"id":5,"email":"student@example.edu","name":"Sam Student","role":"student"}}`))
	}))

	h := handler.NewAuthHandler(client, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"student@example.edu","password":"hunter22"}`)))
	w := httptest.NewRecorder()

	h.Login(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp backend.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "issued-token", resp.Token)
	assert.Equal(t, int64(5), resp.User.ID)
	assert.Equal(t, domain.RoleStudent, resp.User.Role)
}

func TestAuthHandler_Login_ValidationError(t *testing.T) {
	h := handler.NewAuthHandler(deadUpstream(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"not-an-email"}`)))
	w := httptest.NewRecorder()

	h.Login(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	apiErr := decodeAPIError(t, w.Body)
	assert.Contains(t, apiErr.Errors, "email")
	assert.Contains(t, apiErr.Errors, "password")
}

func TestAuthHandler_Register_ForwardsUpstreamFieldSet(t *testing.T) {
	var forwarded map[string]any
	client := fakeUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/auth/register", r.URL.Path)
		require.NoError(t, json.Unmarshal(mustReadAll(t, r), &forwarded))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token":"issued-token","user":{"id":9,"email":"new@example.edu","name":"New Student","role":"student"}}`))
	}))

	h := handler.NewAuthHandler(client, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register",
		bytes.NewReader([]byte(`{"email":"new@example.edu","name":"New Student","password":"hunter2222","role":"student"}`)))
	w := httptest.NewRecorder()

	h.Register(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "new@example.edu", forwarded["email"])
	assert.Equal(t, "New Student", forwarded["name"])
	assert.Equal(t, "hunter2222", forwarded["password"])
	assert.Equal(t, "student", forwarded["role"])
	assert.NotContains(t, forwarded, "firstName")
	assert.NotContains(t, forwarded, "lastName")
}

func TestAuthHandler_Login_BadCredentialsPassThrough(t *testing.T) {
	client := fakeUpstream(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
	}))

	h := handler.NewAuthHandler(client, zap.NewNop())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		bytes.NewReader([]byte(`{"email":"student@example.edu","password":"wrong-password"}`)))
	w := httptest.NewRecorder()

	h.Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	apiErr := decodeAPIError(t, w.Body)
	assert.Equal(t, "Invalid credentials", apiErr.Detail)
}

func TestAuthHandler_Me_RequiresUserContext(t *testing.T) {
	h := handler.NewAuthHandler(deadUpstream(t), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req = req.WithContext(context.Background())
	w := httptest.NewRecorder()

	h.Me(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func mustReadAll(t *testing.T, r *http.Request) []byte {
	t.Helper()
	body := new(bytes.Buffer)
	_, err := body.ReadFrom(r.Body)
	require.NoError(t, err)
	return body.Bytes()
}
