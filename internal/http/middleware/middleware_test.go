package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/http/middleware"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func okHandler(called *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called++
		w.WriteHeader(http.StatusOK)
	})
}

func TestSecurityHeaders_DefaultConfig(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            false,
		ContentTypeNosniff:    true,
		FrameOptions:          "DENY",
		XSSProtection:         "1; mode=block",
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		PermissionsPolicy:     "geolocation=(), microphone=(), camera=()",
	}

	var called int
	handler := middleware.SecurityHeaders(cfg)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
	assert.Equal(t, "default-src 'self'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "strict-origin-when-cross-origin", w.Header().Get("Referrer-Policy"))
	assert.Equal(t, "geolocation=(), microphone=(), camera=()", w.Header().Get("Permissions-Policy"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"), "HSTS should not be set when disabled")
}

func TestSecurityHeaders_HSTSEnabled(t *testing.T) {
	cfg := &config.SecurityConfig{
		EnableHSTS:            true,
		HSTSMaxAge:            31536000, // 1 year
		HSTSIncludeSubdomains: true,
		HSTSPreload:           true,
	}

	var called int
	handler := middleware.SecurityHeaders(cfg)(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, "max-age=31536000; includeSubDomains; preload", w.Header().Get("Strict-Transport-Security"))
}

func TestRateLimiter_Disabled(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:           false,
		RequestsPerMinute: 5,
	}

	rl := middleware.NewRateLimiter(cfg, zap.NewNop())
	var called int
	handler := rl.LimitByIP(okHandler(&called))

	// Make many requests - should all pass since rate limiting is disabled
	for i := 0; i < 100; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "192.168.1.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 100, called)
}

func TestRateLimiter_WhitelistedIP(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2, // Very low limit
		WhitelistIPs:      []string{"127.0.0.1"},
		WhitelistPaths:    []string{},
	}

	rl := middleware.NewRateLimiter(cfg, zap.NewNop())
	var called int
	handler := rl.LimitByIP(okHandler(&called))

	for i := 0; i < 50; i++ {
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 50, called)
}

func TestRateLimiter_WhitelistedPath(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 2, // Very low limit
		WhitelistIPs:      []string{},
		WhitelistPaths:    []string{"/health", "/swagger/*"},
	}

	rl := middleware.NewRateLimiter(cfg, zap.NewNop())
	var called int
	handler := rl.LimitByIP(okHandler(&called))

	paths := []string{"/health", "/swagger/index.html", "/swagger/doc.json"}
	for i := 0; i < 30; i++ {
		req := httptest.NewRequest(http.MethodGet, paths[i%len(paths)], nil)
		req.RemoteAddr = "10.0.0.9:44444"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 30, called)
}

func TestRateLimiter_ExceededReturns429(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:           true,
		RequestsPerMinute: 3,
		WhitelistIPs:      []string{},
		WhitelistPaths:    []string{},
	}

	rl := middleware.NewRateLimiter(cfg, zap.NewNop())
	var called int
	handler := rl.LimitByIP(okHandler(&called))

	var lastCode int
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/projects", nil)
		req.RemoteAddr = "192.168.1.50:12345"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		lastCode = w.Code
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
	assert.Equal(t, 3, called)
}

func TestRateLimiter_AuthenticatedKeyedByUser(t *testing.T) {
	cfg := &config.RateLimitConfig{
		Enabled:               true,
		RequestsPerMinute:     1,
		RequestsPerMinuteAuth: 5,
	}

	rl := middleware.NewRateLimiter(cfg, zap.NewNop())
	var called int
	handler := rl.Limit(okHandler(&called))

	userCtx := &auth.UserContext{UserID: 42, Email: "teacher@example.edu", Role: domain.RoleTeacher}

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/defenses", nil)
		req.RemoteAddr = "192.168.1.60:12345"
		req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 5, called)
}

func TestCORS_ExplicitOrigins(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins:   []string{"https://app.projecthub.edu"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}

	var called int
	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "https://app.projecthub.edu")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, "https://app.projecthub.edu", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_DeniesUnknownOriginInProduction(t *testing.T) {
	cfg := &config.CORSConfig{
		AllowedOrigins: []string{"https://app.projecthub.edu"},
		AllowedMethods: []string{"GET", "POST"},
	}

	var called int
	handler := middleware.CORS(cfg, "production", zap.NewNop())(okHandler(&called))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/projects", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery_ConvertsPanicTo500(t *testing.T) {
	handler := middleware.Recovery(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/defenses", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"status":500,"title":"Internal Server Error"}`, w.Body.String())
}

func TestRecovery_PassesThroughNormally(t *testing.T) {
	var called int
	handler := middleware.Recovery(zap.NewNop())(okHandler(&called))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, called)
}
