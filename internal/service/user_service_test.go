package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/superdoll/tracker-api/internal/auth"
	"github.com/superdoll/tracker-api/internal/config"
	"github.com/superdoll/tracker-api/internal/domain"
	"github.com/superdoll/tracker-api/internal/repository"
	"github.com/superdoll/tracker-api/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newAuthService(db *gorm.DB) *AuthService {
	tokens := auth.NewTokenManager(&config.AuthConfig{
		JWTSecret:       "test-secret",
		Issuer:          "superdoll-tracker",
		TokenTTLMinutes: 60,
	})
	return NewAuthService(repository.NewUserRepository(db), tokens, zap.NewNop())
}

func setPassword(t *testing.T, db *gorm.DB, user *domain.User, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, db.Model(user).Update("password_hash", hash).Error)
}

func TestAuthService_Login(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := context.Background()
	svc := newAuthService(db)

	user := testutil.CreateTestUser(t, db, "halima", domain.RoleFrontDesk)
	setPassword(t, db, user, "correct-horse")

	res, err := svc.Login(ctx, &domain.LoginRequest{Username: " halima ", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.Equal(t, "Bearer", res.TokenType)
	assert.NotEmpty(t, res.ExpiresAt)
	assert.Equal(t, user.ID, res.User.ID)
	assert.NotEmpty(t, res.User.LastLoginAt)

	stored, err := repository.NewUserRepository(db).GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLoginAt)

	_, err = svc.Login(ctx, &domain.LoginRequest{Username: "halima", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, &domain.LoginRequest{Username: "nobody", Password: "correct-horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)
	_, err = svc.Login(ctx, &domain.LoginRequest{Username: "halima", Password: "correct-horse"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestAuthService_Me(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newAuthService(db)
	user := testutil.CreateTestUser(t, db, "halima", domain.RoleManager)

	ctx := auth.WithUserContext(context.Background(), &auth.UserContext{UserID: user.ID, Username: user.Username, Role: user.Role})
	me, err := svc.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, "halima", me.Username)
	assert.Equal(t, domain.RoleManager, me.Role)

	_, err = svc.Me(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Me(auth.WithUserContext(context.Background(), &auth.UserContext{System: true}))
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Me(testutil.AuthContext(domain.RoleAdmin))
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewUserService(repository.NewUserRepository(db), zap.NewNop())
	admin := testutil.AuthContext(domain.RoleAdmin)

	req := &domain.CreateUserRequest{
		Username:    "baraka",
		Email:       "baraka@superdoll.test",
		DisplayName: "Baraka",
		Password:    "workshop-2024",
		Role:        domain.RoleFrontDesk,
	}

	_, err := svc.Create(testutil.AuthContext(domain.RoleFrontDesk), req)
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, ErrUnauthorized)

	created, err := svc.Create(admin, req)
	require.NoError(t, err)
	assert.True(t, created.IsActive)
	assert.Equal(t, domain.RoleFrontDesk, created.Role)

	stored, err := repository.NewUserRepository(db).GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "workshop-2024"))

	_, err = svc.Create(admin, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateUsername)

	inactive := false
	updated, err := svc.Update(admin, created.ID, &domain.UpdateUserRequest{
		DisplayName: "Baraka M.",
		Role:        domain.RoleManager,
		IsActive:    &inactive,
		Password:    "new-password-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Baraka M.", updated.DisplayName)
	assert.Equal(t, domain.RoleManager, updated.Role)
	assert.False(t, updated.IsActive)

	stored, err = repository.NewUserRepository(db).GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPassword(stored.PasswordHash, "new-password-1"))

	_, err = svc.Update(testutil.AuthContext(domain.RoleManager), created.ID, &domain.UpdateUserRequest{})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	users, err := svc.List(admin)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
