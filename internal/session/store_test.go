package session_test

import (
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/projecthub-edu/projecthub-api/internal/domain"
	"github.com/projecthub-edu/projecthub-api/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func tokenExpiringAt(t *testing.T, exp time.Time) string {
	t.Helper()
	return signedToken(t, jwt.MapClaims{"sub": "42", "exp": exp.Unix()})
}

func testUser() domain.UserSummary {
	return domain.UserSummary{
		ID:    42,
		Email: "ada@example.edu",
		Name:  "Ada Lovelace",
		Role:  domain.RoleStudent,
	}
}

func newTestStore(t *testing.T) (*session.Store, *session.MemoryMedium) {
	t.Helper()
	medium := session.NewMemoryMedium()
	store := session.NewStore(medium, zap.NewNop())
	t.Cleanup(store.Close)
	return store, medium
}

func TestStore_LoginReadBack(t *testing.T) {
	store, _ := newTestStore(t)
	user := testUser()
	token := tokenExpiringAt(t, time.Now().Add(time.Hour))

	store.Login(session.Session{Token: token, User: user})

	got := store.User()
	require.NotNil(t, got)
	assert.Equal(t, user, *got)
	assert.Equal(t, token, store.Token())
	assert.True(t, store.IsAuthenticated())
}

func TestStore_LogoutIdempotent(t *testing.T) {
	store, _ := newTestStore(t)
	store.Login(session.Session{
		Token: tokenExpiringAt(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	})

	store.Logout()
	assert.Nil(t, store.User())
	assert.Empty(t, store.Token())
	assert.False(t, store.IsAuthenticated())

	// A second logout leaves the same empty state
	store.Logout()
	assert.Nil(t, store.User())
	assert.Empty(t, store.Token())
	assert.False(t, store.IsAuthenticated())
}

func TestStore_TokenExpiry(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{
			name:    "well before expiry",
			token:   "",
			expired: false,
		},
		{
			name:    "just outside the margin",
			token:   "outside",
			expired: false,
		},
		{
			name:    "exactly on the margin",
			token:   "boundary",
			expired: true,
		},
		{
			name:    "inside the margin",
			token:   "inside",
			expired: true,
		},
		{
			name:    "already past",
			token:   "past",
			expired: true,
		},
	}

	tokens := map[string]time.Time{
		"":         now.Add(time.Hour),
		"outside":  now.Add(31 * time.Second),
		"boundary": now.Add(30 * time.Second),
		"inside":   now.Add(10 * time.Second),
		"past":     now.Add(-time.Minute),
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := tokenExpiringAt(t, tokens[tt.token])
			assert.Equal(t, tt.expired, session.TokenExpired(token, now))
		})
	}
}

func TestStore_TokenExpiry_Malformed(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "two segments", token: "aaaa.bbbb"},
		{name: "invalid base64 payload", token: "aaaa.!!!!.cccc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, session.TokenExpired(tt.token, now))
		})
	}

	t.Run("missing exp claim", func(t *testing.T) {
		token := signedToken(t, jwt.MapClaims{"sub": "42"})
		assert.True(t, session.TokenExpired(token, now))
	})
}

func TestStore_IsAuthenticated(t *testing.T) {
	validToken := func(t *testing.T) string { return tokenExpiringAt(t, time.Now().Add(time.Hour)) }
	expiredToken := func(t *testing.T) string { return tokenExpiringAt(t, time.Now().Add(-time.Hour)) }

	tests := []struct {
		name     string
		setup    func(t *testing.T, store *session.Store, medium *session.MemoryMedium)
		expected bool
	}{
		{
			name: "user and valid token",
			setup: func(t *testing.T, store *session.Store, _ *session.MemoryMedium) {
				store.Login(session.Session{Token: validToken(t), User: testUser()})
			},
			expected: true,
		},
		{
			name:     "nothing stored",
			setup:    func(t *testing.T, store *session.Store, _ *session.MemoryMedium) {},
			expected: false,
		},
		{
			name: "token without user",
			setup: func(t *testing.T, _ *session.Store, medium *session.MemoryMedium) {
				require.NoError(t, medium.Set("authToken", validToken(t)))
			},
			expected: false,
		},
		{
			name: "user without token",
			setup: func(t *testing.T, store *session.Store, medium *session.MemoryMedium) {
				store.Login(session.Session{Token: validToken(t), User: testUser()})
				require.NoError(t, medium.Delete("authToken"))
			},
			expected: false,
		},
		{
			name: "expired token",
			setup: func(t *testing.T, store *session.Store, _ *session.MemoryMedium) {
				store.Login(session.Session{Token: expiredToken(t), User: testUser()})
			},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, medium := newTestStore(t)
			tt.setup(t, store, medium)
			assert.Equal(t, tt.expected, store.IsAuthenticated())
		})
	}
}

func TestStore_CorruptUserSelfHeals(t *testing.T) {
	store, medium := newTestStore(t)
	store.Login(session.Session{
		Token: tokenExpiringAt(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	})

	// Simulate another writer corrupting the stored user record
	require.NoError(t, medium.Set("currentUser", "{not json"))

	assert.Nil(t, store.User())

	// Both keys are gone, not just the corrupt one
	_, ok, err := medium.Get("currentUser")
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = medium.Get("authToken")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.False(t, store.IsAuthenticated())
}

func TestStore_ClockAdvancePastExpiry(t *testing.T) {
	store, _ := newTestStore(t)

	now := time.Now()
	current := now
	store.WithClock(func() time.Time { return current })

	store.Login(session.Session{
		Token: tokenExpiringAt(t, now.Add(10*time.Minute)),
		User:  testUser(),
	})

	assert.True(t, store.IsAuthenticated())
	assert.False(t, store.IsTokenExpired())

	// Advance past the expiry; the stored state is untouched but the session
	// now reads as unauthenticated
	current = now.Add(11 * time.Minute)
	assert.True(t, store.IsTokenExpired())
	assert.False(t, store.IsAuthenticated())
	assert.NotNil(t, store.User())
}

func TestStore_WithClockConcurrentWithReads(t *testing.T) {
	store, _ := newTestStore(t)
	store.Login(session.Session{
		Token: tokenExpiringAt(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			store.IsTokenExpired()
		}
	}()

	for i := 0; i < 100; i++ {
		fixed := time.Now()
		store.WithClock(func() time.Time { return fixed })
	}
	<-done

	assert.False(t, store.IsTokenExpired())
}

func TestStore_SubscribeAndUnsubscribe(t *testing.T) {
	store, _ := newTestStore(t)

	var logins, logouts atomic.Int64
	unsubscribe := store.Subscribe(func(ev session.AuthChangeEvent) {
		if ev.Authenticated {
			logins.Add(1)
		} else {
			logouts.Add(1)
		}
	})

	store.Login(session.Session{
		Token: tokenExpiringAt(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	})
	require.Eventually(t, func() bool { return logins.Load() == 1 }, time.Second, 10*time.Millisecond)

	store.Logout()
	require.Eventually(t, func() bool { return logouts.Load() == 1 }, time.Second, 10*time.Millisecond)

	unsubscribe()
	store.Logout()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int64(1), logouts.Load())
}

func TestFileMedium_PersistsAcrossInstances(t *testing.T) {
	path := t.TempDir() + "/session.json"

	first := session.NewFileMedium(path)
	require.NoError(t, first.Set("currentUser", `{"id":1}`))
	require.NoError(t, first.Set("authToken", "token-value"))

	second := session.NewFileMedium(path)
	v, ok, err := second.Get("authToken")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "token-value", v)

	require.NoError(t, second.Delete("authToken"))
	_, ok, err = first.Get("authToken")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileMedium_WatchDeliversExternalLogout(t *testing.T) {
	path := t.TempDir() + "/session.json"

	// Two mediums over the same file stand in for two gateway processes
	// sharing the service-account session
	mediumA := session.NewFileMedium(path)
	storeA := session.NewStore(mediumA, zap.NewNop())
	t.Cleanup(storeA.Close)

	storeB := session.NewStore(session.NewFileMedium(path), zap.NewNop())
	t.Cleanup(storeB.Close)

	storeA.Login(session.Session{
		Token: tokenExpiringAt(t, time.Now().Add(time.Hour)),
		User:  testUser(),
	})

	guard := session.NewGuard(storeA, nil, zap.NewNop())
	guard.Start()
	t.Cleanup(guard.Stop)
	require.Eventually(t, func() bool { return guard.State() == session.StateAuthorized },
		time.Second, 10*time.Millisecond)

	stop := mediumA.Watch(20*time.Millisecond, storeA.NotifyExternalChange)
	t.Cleanup(stop)

	// Keep the external rewrite clearly after the login write so the
	// watcher's mod-time comparison cannot miss it
	time.Sleep(50 * time.Millisecond)

	// The other process logs out; this process's guard must notice without
	// any local store activity
	storeB.Logout()

	require.Eventually(t, func() bool { return guard.State() == session.StateRedirecting },
		2*time.Second, 10*time.Millisecond)
	assert.False(t, storeA.IsAuthenticated())
}

func TestFileMedium_WatchStopEndsDelivery(t *testing.T) {
	path := t.TempDir() + "/session.json"
	medium := session.NewFileMedium(path)

	var changes atomic.Int64
	stop := medium.Watch(20*time.Millisecond, func() { changes.Add(1) })

	require.NoError(t, medium.Set("authToken", "first"))
	require.Eventually(t, func() bool { return changes.Load() >= 1 },
		2*time.Second, 10*time.Millisecond)

	stop()
	seen := changes.Load()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, medium.Set("authToken", "second"))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, seen, changes.Load())
}

func TestFileMedium_CorruptFileReadsEmpty(t *testing.T) {
	path := t.TempDir() + "/session.json"
	medium := session.NewFileMedium(path)
	require.NoError(t, medium.Set("authToken", "token-value"))

	require.NoError(t, writeFile(path, "][ definitely not json"))

	_, ok, err := medium.Get("authToken")
	require.NoError(t, err)
	assert.False(t, ok)

	// The medium recovers on the next write
	require.NoError(t, medium.Set("authToken", "fresh"))
	v, ok, err := medium.Get("authToken")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "fresh", v)
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}
