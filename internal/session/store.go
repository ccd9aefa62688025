package session

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"go.uber.org/zap"
)

// Storage keys. Nothing outside this package reads or writes them.
const (
	keyCurrentUser = "currentUser"
	keyAuthToken   = "authToken"
)

// expiryMargin is the safety window before the token's exp claim within which
// the token is already treated as expired, so requests never go out with a
// token about to lapse mid-flight.
const expiryMargin = 30 * time.Second

// Session couples a bearer token with the user it belongs to. A session is
// stored whole and cleared whole; there is never a token without a user.
type Session struct {
	Token string
	User  domain.UserSummary
}

// AuthChangeEvent is broadcast to subscribers after every login or logout
type AuthChangeEvent struct {
	Authenticated bool
	User          *domain.UserSummary
}

// Listener receives auth change events. Listeners run on a dispatch goroutine,
// never on the caller of Login/Logout, so a listener may call back into the
// store freely.
type Listener func(AuthChangeEvent)

// Store owns the persisted session state. All reads and writes of the current
// user and token go through it.
type Store struct {
	medium Medium
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	listeners map[int]Listener
	nextID    int

	events chan AuthChangeEvent
	done   chan struct{}
	once   sync.Once
}

// NewStore creates a session store over the given medium
func NewStore(medium Medium, logger *zap.Logger) *Store {
	s := &Store{
		medium:    medium,
		logger:    logger,
		now:       time.Now,
		listeners: make(map[int]Listener),
		events:    make(chan AuthChangeEvent, 16),
		done:      make(chan struct{}),
	}
	go s.dispatch()
	return s
}

// WithClock overrides the store's clock, used in tests
func (s *Store) WithClock(now func() time.Time) *Store {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
	return s
}

func (s *Store) clock() time.Time {
	s.mu.Lock()
	now := s.now
	s.mu.Unlock()
	return now()
}

// Close stops the event dispatcher. Pending events are dropped.
func (s *Store) Close() {
	s.once.Do(func() { close(s.done) })
}

// Login persists the session and notifies subscribers. Persistence is
// best-effort: a medium write failure is logged and the event still fires, so
// a flaky disk degrades to an in-memory session rather than a failed login.
func (s *Store) Login(session Session) {
	userJSON, err := json.Marshal(session.User)
	if err != nil {
		s.logger.Warn("Failed to encode session user", zap.Error(err))
	} else if err := s.medium.Set(keyCurrentUser, string(userJSON)); err != nil {
		s.logger.Warn("Failed to persist session user", zap.Error(err))
	}
	if err := s.medium.Set(keyAuthToken, session.Token); err != nil {
		s.logger.Warn("Failed to persist session token", zap.Error(err))
	}

	user := session.User
	s.broadcast(AuthChangeEvent{Authenticated: true, User: &user})
}

// Logout clears the session and notifies subscribers. Idempotent: logging out
// twice leaves the same empty state and still fires an event.
func (s *Store) Logout() {
	if err := s.medium.Delete(keyCurrentUser); err != nil {
		s.logger.Warn("Failed to clear session user", zap.Error(err))
	}
	if err := s.medium.Delete(keyAuthToken); err != nil {
		s.logger.Warn("Failed to clear session token", zap.Error(err))
	}
	s.broadcast(AuthChangeEvent{Authenticated: false})
}

// User returns the stored user, or nil when absent. An unparsable record
// self-heals: both keys are cleared and nil is returned, so corrupt state
// reads as logged out instead of erroring forever.
func (s *Store) User() *domain.UserSummary {
	raw, ok, err := s.medium.Get(keyCurrentUser)
	if err != nil {
		s.logger.Warn("Failed to read session user", zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}

	var user domain.UserSummary
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("Corrupt session user, clearing session", zap.Error(err))
		s.clear()
		return nil
	}
	return &user
}

// Token returns the stored bearer token, or empty when absent
func (s *Store) Token() string {
	raw, ok, err := s.medium.Get(keyAuthToken)
	if err != nil {
		s.logger.Warn("Failed to read session token", zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return raw
}

// IsTokenExpired reports whether the stored token is missing, malformed, or
// within the safety margin of its exp claim. The claim is decoded without
// signature verification; only the upstream backend holds the signing key.
func (s *Store) IsTokenExpired() bool {
	token := s.Token()
	if token == "" {
		return true
	}
	return TokenExpired(token, s.clock())
}

// TokenExpired reports whether a bearer token's exp claim is missing,
// malformed, or within the expiry margin of now.
func TokenExpired(token string, now time.Time) bool {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return true
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}
	return !exp.Time.After(now.Add(expiryMargin))
}

// IsAuthenticated reports whether a whole, unexpired session is present
func (s *Store) IsAuthenticated() bool {
	return s.User() != nil && s.Token() != "" && !s.IsTokenExpired()
}

// Subscribe registers a listener for auth change events and returns its
// unsubscribe function
func (s *Store) Subscribe(l Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// NotifyExternalChange re-broadcasts the current state. Wired to the file
// medium's watcher so another process rewriting the session file reaches
// in-process subscribers.
func (s *Store) NotifyExternalChange() {
	user := s.User()
	s.broadcast(AuthChangeEvent{Authenticated: s.IsAuthenticated(), User: user})
}

func (s *Store) clear() {
	if err := s.medium.Delete(keyCurrentUser); err != nil {
		s.logger.Warn("Failed to clear session user", zap.Error(err))
	}
	if err := s.medium.Delete(keyAuthToken); err != nil {
		s.logger.Warn("Failed to clear session token", zap.Error(err))
	}
}

func (s *Store) broadcast(ev AuthChangeEvent) {
	select {
	case s.events <- ev:
	case <-s.done:
	}
}

func (s *Store) dispatch() {
	for {
		select {
		case <-s.done:
			return
		case ev := <-s.events:
			s.mu.Lock()
			snapshot := make([]Listener, 0, len(s.listeners))
			for _, l := range s.listeners {
				snapshot = append(snapshot, l)
			}
			s.mu.Unlock()
			for _, l := range snapshot {
				l(ev)
			}
		}
	}
}
