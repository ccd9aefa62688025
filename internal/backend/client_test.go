package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.Handler) (*backend.Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := backend.NewClient(&config.BackendConfig{
		BaseURL: server.URL,
		Timeout: 5,
	}, zap.NewNop())
	return client, server
}

func TestClient_UsesUpstreamErrorMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "Not found"})
	}))

	data, apiErr := client.GetJSON(context.Background(), "token", "/api/projects/99")
	require.NotNil(t, apiErr)
	assert.Nil(t, data)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Not found", apiErr.Message)
	assert.False(t, apiErr.IsNetwork())
}

func TestClient_FallsBackToStatusMessage(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		expected string
	}{
		{name: "empty body", status: 500, body: "", expected: "HTTP 500"},
		{name: "non-json body", status: 502, body: "<html>bad gateway</html>", expected: "HTTP 502"},
		{name: "json without message", status: 403, body: `{"detail":"no"}`, expected: "HTTP 403"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))

			_, apiErr := client.GetJSON(context.Background(), "", "/api/projects")
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.expected, apiErr.Message)
		})
	}
}

func TestClient_TransportFailureIsNetworkError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	client := backend.NewClient(&config.BackendConfig{
		BaseURL: server.URL,
		Timeout: 1,
	}, zap.NewNop())

	data, apiErr := client.GetJSON(context.Background(), "token", "/api/projects")
	require.NotNil(t, apiErr)
	assert.Nil(t, data)
	assert.Equal(t, 0, apiErr.Status)
	assert.Equal(t, "Network error", apiErr.Message)
	assert.True(t, apiErr.IsNetwork())
}

func TestClient_NoContentYieldsNilData(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	data, apiErr := client.DeleteJSON(context.Background(), "token", "/api/groups/7")
	assert.Nil(t, apiErr)
	assert.Nil(t, data)
}

func TestClient_BearerAttachment(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[]`))
	}))

	_, apiErr := client.GetJSON(context.Background(), "my-token", "/api/projects")
	require.Nil(t, apiErr)
	assert.Equal(t, "Bearer my-token", gotAuth)

	// No token, no header at all
	_, apiErr = client.GetJSON(context.Background(), "", "/api/projects")
	require.Nil(t, apiErr)
	assert.Empty(t, gotAuth)
}

func TestClient_SuccessPassesBodyThrough(t *testing.T) {
	upstream := `{"id":7,"title":"Compilers"}`
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Compilers", payload["title"])
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(upstream))
	}))

	data, apiErr := client.PostJSON(context.Background(), "token", "/api/projects", json.RawMessage(`{"title":"Compilers"}`))
	require.Nil(t, apiErr)
	assert.JSONEq(t, upstream, string(data))
}

func TestClient_Login(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(backend.LoginResponse{
			Token: "issued-token",
			User:  domain.UserSummary{ID: 1, Email: "svc@example.edu", Name: "Service", Role: domain.RoleAdmin},
		})
	}))

	resp, apiErr := client.Login(context.Background(), "svc@example.edu", "secret")
	require.Nil(t, apiErr)
	assert.Equal(t, "issued-token", resp.Token)
	assert.Equal(t, int64(1), resp.User.ID)
}

func TestServiceSession_LogsInOnDemand(t *testing.T) {
	var logins int
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logins++
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(backend.LoginResponse{
			Token: freshToken(t),
			User:  domain.UserSummary{ID: 1, Email: "svc@example.edu", Name: "Service", Role: domain.RoleAdmin},
		})
	}))

	store := session.NewStore(session.NewMemoryMedium(), zap.NewNop())
	t.Cleanup(store.Close)

	svc := backend.NewServiceSession(client, store, &config.BackendConfig{
		ServiceEmail:    "svc@example.edu",
		ServicePassword: "secret",
	}, zap.NewNop())

	token, err := svc.Token(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, 1, logins)

	// Second call reuses the stored session
	again, err := svc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, token, again)
	assert.Equal(t, 1, logins)
}

func TestServiceSession_MissingCredentials(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	}))

	store := session.NewStore(session.NewMemoryMedium(), zap.NewNop())
	t.Cleanup(store.Close)

	svc := backend.NewServiceSession(client, store, &config.BackendConfig{}, zap.NewNop())
	_, err := svc.Token(context.Background())
	assert.Error(t, err)
}

func freshToken(t *testing.T) string {
	t.Helper()
	return testToken(t, time.Now().Add(time.Hour))
}

func testToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}
