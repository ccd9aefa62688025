package handler

import (
	"encoding/json"
	"net/http"

	"github.com/projecthub-edu/projecthub-api/internal/auth"
	"github.com/projecthub-edu/projecthub-api/internal/backend"
	"go.uber.org/zap"
)

// AuthHandler proxies authentication to the upstream backend. The gateway
// never issues its own tokens; it forwards credentials and relays whatever
// the upstream returns.
type AuthHandler struct {
	backendClient *backend.Client
	logger        *zap.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(backendClient *backend.Client, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		backendClient: backendClient,
		logger:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login godoc
// @Summary Log in
// @Description Authenticate against the backend and return its token and user profile
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body loginRequest true "Login credentials"
// @Success 200 {object} backend.LoginResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 401 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, apiErr := h.backendClient.Login(r.Context(), req.Email, req.Password)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Register godoc
// @Summary Register a new account
// @Description Create an account on the backend and return its token and user profile
// @Tags Auth
// @Accept json
// @Produce json
// @Param account body backend.RegisterRequest true "Account details"
// @Success 201 {object} backend.LoginResponse
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req backend.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, apiErr := h.backendClient.Register(r.Context(), req)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}

	respondJSON(w, http.StatusCreated, resp)
}

// Me godoc
// @Summary Get current authenticated user
// @Description Returns the current user's profile as known by the backend
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.UserSummary
// @Failure 401 {object} domain.ErrorResponse
// @Failure 502 {object} domain.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userCtx, ok := auth.FromContext(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, apiErr := h.backendClient.Me(r.Context(), userCtx.AccessToken)
	if apiErr != nil {
		respondUpstreamError(w, apiErr)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
