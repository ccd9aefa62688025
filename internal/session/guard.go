package session

import (
	"sync"

	"go.uber.org/zap"
)

// GuardState is the gate's current decision
type GuardState string

const (
	// StateChecking means the guard has started but not yet decided
	StateChecking GuardState = "checking"
	// StateAuthorized means a whole, unexpired session is present
	StateAuthorized GuardState = "authorized"
	// StateRedirecting means the session was absent or expired; the store has
	// been cleared and the redirect hook invoked
	StateRedirecting GuardState = "redirecting"
)

// Guard gates access on the store's session. It evaluates once on Start and
// again on every auth change event; when the session fails the check it forces
// a logout and invokes the redirect hook exactly once per failure. There is no
// retry loop: a new Start re-enters the checking state.
type Guard struct {
	store      *Store
	logger     *zap.Logger
	onRedirect func()

	mu          sync.Mutex
	state       GuardState
	started     bool
	unsubscribe func()
}

// NewGuard creates a guard over the store. onRedirect is invoked after a
// failed check, once the forced logout has run; it may be nil.
func NewGuard(store *Store, onRedirect func(), logger *zap.Logger) *Guard {
	return &Guard{
		store:      store,
		logger:     logger,
		onRedirect: onRedirect,
		state:      StateChecking,
	}
}

// Start begins gating: subscribes to the store and runs the initial check.
// Calling Start on a running guard restarts the check.
func (g *Guard) Start() {
	g.mu.Lock()
	g.state = StateChecking
	if !g.started {
		g.started = true
		g.unsubscribe = g.store.Subscribe(func(AuthChangeEvent) {
			g.evaluate()
		})
	}
	g.mu.Unlock()

	g.evaluate()
}

// Stop unsubscribes from the store. State stops updating after Stop.
func (g *Guard) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}
	g.started = false
}

// State returns the guard's current state
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// evaluate applies the check. Only the transition into redirecting forces a
// logout, so the logout's own change event (which re-enters evaluate via the
// subscription) is a no-op instead of a loop.
func (g *Guard) evaluate() {
	g.mu.Lock()
	if !g.started {
		g.mu.Unlock()
		return
	}

	if g.store.IsAuthenticated() {
		g.state = StateAuthorized
		g.mu.Unlock()
		return
	}

	if g.state == StateRedirecting {
		g.mu.Unlock()
		return
	}
	g.state = StateRedirecting
	g.mu.Unlock()

	g.logger.Info("Session check failed, forcing logout")
	g.store.Logout()
	if g.onRedirect != nil {
		g.onRedirect()
	}
}
