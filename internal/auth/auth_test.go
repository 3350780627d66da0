package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/auth"
	"github.com/emilythestrangee/ystore/backend/internal/database"
	"github.com/emilythestrangee/ystore/backend/internal/models"
)

const secret = "test-secret"

func newService() (*auth.Service, *database.MemoryStore) {
	store := database.NewMemoryStore()
	return auth.NewService(store, auth.NewTokenManager(secret, time.Hour)), store
}

func register(t *testing.T, svc *auth.Service, email string, role models.Role) *models.AuthResponse {
	t.Helper()
	res, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:    email,
		Password: "hunter22",
		FullName: "Jane Doe",
		Role:     role,
	})
	require.NoError(t, err)
	return res
}

func TestRegisterLoginResolve(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()

	res := register(t, svc, "  Jane@Example.com ", "")
	assert.Equal(t, "bearer", res.TokenType)
	assert.Equal(t, "jane@example.com", res.User.Email)
	assert.Equal(t, models.RoleCustomer, res.User.Role)
	assert.NotEmpty(t, res.AccessToken)

	login, err := svc.Login(ctx, models.LoginRequest{Email: "JANE@example.com", Password: "hunter22"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	id, err := svc.Resolve(ctx, login.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, auth.Identity{UserID: res.User.ID, DisplayName: "Jane Doe", Role: models.RoleCustomer}, id)
	assert.False(t, id.IsAdmin())
}

func TestRegisterRejectsDuplicateEmailAndAdmin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	register(t, svc, "a@example.com", models.RoleSeller)

	_, err := svc.Register(ctx, models.RegisterRequest{Email: "A@example.com", Password: "hunter22", FullName: "Other"})
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = svc.Register(ctx, models.RegisterRequest{Email: "b@example.com", Password: "hunter22", FullName: "B", Role: models.RoleAdmin})
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestLoginWrongPassword(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	register(t, svc, "a@example.com", "")

	_, err := svc.Login(ctx, models.LoginRequest{Email: "a@example.com", Password: "wrong-pass"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@example.com", Password: "hunter22"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
}

func TestResolveRejectsBadTokens(t *testing.T) {
	ctx := context.Background()
	svc, store := newService()
	res := register(t, svc, "a@example.com", "")

	_, err := svc.Resolve(ctx, "not-a-token")
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	forged, err := auth.NewTokenManager("other-secret", time.Hour).Issue(&res.User)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, forged)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	expired, err := auth.NewTokenManager(secret, -time.Minute).Issue(&res.User)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, expired)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": res.User.ID, "exp": time.Now().Add(time.Hour).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.Resolve(ctx, unsigned)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))

	store.DeleteUser(res.User.ID)
	_, err = svc.Resolve(ctx, res.AccessToken)
	assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
}

func TestTokenClaims(t *testing.T) {
	tm := auth.NewTokenManager(secret, 10080*time.Minute)
	user := &models.User{ID: "U1", Role: models.RoleSeller}

	token, err := tm.Issue(user)
	require.NoError(t, err)

	claims, err := tm.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "U1", claims.Subject)
	assert.Equal(t, models.RoleSeller, claims.Role)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestUpdateProfileAndSetRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService()
	res := register(t, svc, "a@example.com", "")

	user, err := svc.UpdateProfile(ctx, res.User.ID, models.UpdateProfileRequest{FullName: " Janet "})
	require.NoError(t, err)
	assert.Equal(t, "Janet", user.FullName)

	_, err = svc.UpdateProfile(ctx, "missing", models.UpdateProfileRequest{FullName: "x"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	promoted, err := svc.SetRole(ctx, "A@example.com", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, promoted.Role)

	id, err := svc.Resolve(ctx, res.AccessToken)
	require.NoError(t, err)
	assert.True(t, id.IsAdmin())
	assert.Equal(t, "Janet", id.DisplayName)

	_, err = svc.SetRole(ctx, "a@example.com", models.Role("root"))
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}
