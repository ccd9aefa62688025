package backend

import (
	"context"
	"fmt"
	"sync"

	"github.com/projecthub-edu/projecthub-api/internal/config"
	"github.com/projecthub-edu/projecthub-api/internal/session"
	"go.uber.org/zap"
)

// ServiceSession owns the gateway's own credentialed session with the
// upstream backend. Background jobs run outside any user request, so they
// authenticate with a service account; the session persists in the store
// across restarts and a guard forces re-login when it lapses.
type ServiceSession struct {
	client   *Client
	store    *session.Store
	guard    *session.Guard
	logger   *zap.Logger
	email    string
	password string

	mu sync.Mutex
}

// NewServiceSession creates the service session over the given store
func NewServiceSession(client *Client, store *session.Store, cfg *config.BackendConfig, logger *zap.Logger) *ServiceSession {
	s := &ServiceSession{
		client:   client,
		store:    store,
		logger:   logger,
		email:    cfg.ServiceEmail,
		password: cfg.ServicePassword,
	}
	s.guard = session.NewGuard(store, s.onRedirect, logger)
	return s
}

// Start begins guarding the session. An expired or missing session triggers
// an immediate background login attempt.
func (s *ServiceSession) Start() {
	s.guard.Start()
}

// Stop stops guarding. The stored session is left in place.
func (s *ServiceSession) Stop() {
	s.guard.Stop()
}

// Token returns a usable bearer token, logging in first when the stored
// session is absent or expired.
func (s *ServiceSession) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.IsAuthenticated() {
		return s.store.Token(), nil
	}
	if err := s.login(ctx); err != nil {
		return "", err
	}
	return s.store.Token(), nil
}

// onRedirect is the guard's hook: the session failed its check and has been
// cleared, so re-authenticate off the caller's goroutine.
func (s *ServiceSession) onRedirect() {
	go func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.store.IsAuthenticated() {
			return
		}
		if err := s.login(context.Background()); err != nil {
			s.logger.Warn("Service session re-login failed", zap.Error(err))
		}
	}()
}

// login authenticates with the service account and stores the session.
// Callers hold s.mu.
func (s *ServiceSession) login(ctx context.Context) error {
	if s.email == "" || s.password == "" {
		return fmt.Errorf("service account credentials not configured")
	}

	resp, apiErr := s.client.Login(ctx, s.email, s.password)
	if apiErr != nil {
		return fmt.Errorf("service login failed: %s", apiErr.Message)
	}

	s.store.Login(session.Session{Token: resp.Token, User: resp.User})
	s.logger.Info("Service session established",
		zap.String("service_email", s.email),
		zap.Int64("user_id", resp.User.ID),
	)
	return nil
}
