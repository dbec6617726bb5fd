package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/domain"
	"go.uber.org/zap"
)

func newTestManager() *TokenManager {
	return NewTokenManager(&config.AuthConfig{
		JWTSecret:       "test-secret",
		Issuer:          "superdoll-tracker",
		TokenTTLMinutes: 60,
	})
}

func testUser(role domain.UserRole) *domain.User {
	u := &domain.User{Username: "alice", DisplayName: "Alice", Role: role}
	u.ID = uuid.New()
	return u
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTestManager()
	user := testUser(domain.RoleManager)

	token, expiresAt, err := m.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	ctx, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, ctx.UserID)
	assert.Equal(t, "alice", ctx.Username)
	assert.Equal(t, domain.RoleManager, ctx.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	m := newTestManager()
	user := testUser(domain.RoleAdmin)

	t.Run("expired", func(t *testing.T) {
		past := newTestManager()
		past.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := past.Issue(user)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewTokenManager(&config.AuthConfig{JWTSecret: "other", Issuer: "superdoll-tracker", TokenTTLMinutes: 60})
		token, _, err := other.Issue(user)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other := NewTokenManager(&config.AuthConfig{JWTSecret: "test-secret", Issuer: "someone-else", TokenTTLMinutes: 60})
		token, _, err := other.Issue(user)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("none algorithm", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": user.ID.String()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = m.ValidateToken(token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("missing secret cannot issue", func(t *testing.T) {
		empty := NewTokenManager(&config.AuthConfig{})
		_, _, err := empty.Issue(user)
		assert.Error(t, err)
	})
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestMiddleware_Authenticate(t *testing.T) {
	m := newTestManager()
	mw := NewMiddleware(m, "api-key-123", zap.NewNop())

	var seen *UserContext
	protected := mw.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	token, _, err := m.Issue(testUser(domain.RoleFrontDesk))
	require.NoError(t, err)

	tests := []struct {
		name   string
		header map[string]string
		status int
	}{
		{"no credentials", nil, http.StatusUnauthorized},
		{"bad scheme", map[string]string{"Authorization": "Basic abc"}, http.StatusUnauthorized},
		{"bad token", map[string]string{"Authorization": "Bearer nope"}, http.StatusUnauthorized},
		{"bad api key", map[string]string{"x-api-key": "wrong"}, http.StatusUnauthorized},
		{"valid bearer", map[string]string{"Authorization": "Bearer " + token}, http.StatusOK},
		{"valid api key", map[string]string{"x-api-key": "api-key-123"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rr := httptest.NewRecorder()
			protected.ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				require.NotNil(t, seen)
			}
		})
	}
}

func TestMiddleware_RequireRole(t *testing.T) {
	mw := NewMiddleware(newTestManager(), "", zap.NewNop())
	h := mw.RequireRole(domain.RoleAdmin, domain.RoleManager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	run := func(ctx *UserContext) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if ctx != nil {
			req = req.WithContext(WithUserContext(req.Context(), ctx))
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr.Code
	}

	assert.Equal(t, http.StatusForbidden, run(nil))
	assert.Equal(t, http.StatusForbidden, run(&UserContext{Role: domain.RoleFrontDesk}))
	assert.Equal(t, http.StatusNoContent, run(&UserContext{Role: domain.RoleManager}))
	assert.Equal(t, http.StatusNoContent, run(&UserContext{Role: domain.RoleFrontDesk, System: true}))
}
