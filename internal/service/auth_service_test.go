package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/internal/session"
	syncengine "github.com/jne-ops/opsboard-api/internal/sync"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
)

func newTestAuthService() (*AuthService, *session.Store, *syncengine.Engine) {
	engine := localEngine()
	sessions := session.New(&cachePortStub{}, nil)
	svc := NewAuthService(engine, sessions, testAppender(), nil, nil, AuthConfig{
		Secret: "test-secret",
		Issuer: "opsboard-test",
	})
	return svc, sessions, engine
}

func TestAuthServiceLoginIssuesToken(t *testing.T) {
	svc, sessions, _ := newTestAuthService()

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@jne.co.id", Password: "admin123"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.AccessToken)
	assert.Empty(t, res.User.Password, "password never leaves the server")
	assert.Equal(t, "admin@jne.co.id", res.User.Email)

	current := sessions.Current()
	require.NotNil(t, current)
	assert.Equal(t, "Administrator", current.Name)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin@jne.co.id", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, sessions, _ := newTestAuthService()

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@jne.co.id", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
	assert.Nil(t, sessions.Current())
}

func TestAuthServiceLoginValidatesPayload(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "not-an-email", Password: "x"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePasswordRefreshesSession(t *testing.T) {
	svc, sessions, engine := newTestAuthService()
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ops1@jne.co.id", Password: "jne2024"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), models.ChangePasswordRequest{
		OldPassword: "jne2024",
		NewPassword: "brand-new-secret",
	})
	require.NoError(t, err)

	user, ok := models.FindUser(engine.Snapshot().Users, "ops1@jne.co.id")
	require.True(t, ok)
	assert.Equal(t, "brand-new-secret", user.Password)

	current := sessions.Current()
	require.NotNil(t, current)
	assert.Equal(t, "brand-new-secret", current.Password, "session adopts the new password without a re-login")

	logs := engine.Snapshot().ValidationLogs
	require.NotEmpty(t, logs)
	assert.Equal(t, "Mengubah password akun ops1@jne.co.id", logs[0].Description)
}

func TestAuthServiceChangePasswordWrongCurrent(t *testing.T) {
	svc, _, engine := newTestAuthService()
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ops1@jne.co.id", Password: "jne2024"})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "brand-new-secret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)

	user, _ := models.FindUser(engine.Snapshot().Users, "ops1@jne.co.id")
	assert.Equal(t, "jne2024", user.Password)
}

func TestAuthServiceChangePasswordRequiresSession(t *testing.T) {
	svc, _, _ := newTestAuthService()

	err := svc.ChangePassword(context.Background(), models.ChangePasswordRequest{
		OldPassword: "jne2024",
		NewPassword: "brand-new-secret",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceResetPassword(t *testing.T) {
	svc, _, engine := newTestAuthService()

	res, err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Email: "ops1@jne.co.id"})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), res.Token)

	user, ok := models.FindUser(engine.Snapshot().Users, "ops1@jne.co.id")
	require.True(t, ok)
	assert.Equal(t, res.Token, user.Password, "the token is the account's new password")

	logs := engine.Snapshot().ValidationLogs
	require.NotEmpty(t, logs)
	assert.Equal(t, "System", logs[0].User)
	assert.Equal(t, models.LogActionResetPassword, logs[0].Action)
}

func TestAuthServiceResetPasswordUnknownAccount(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.ResetPassword(context.Background(), models.ResetPasswordRequest{Email: "ghost@jne.co.id"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _, _ := newTestAuthService()

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogoutClearsSession(t *testing.T) {
	svc, sessions, _ := newTestAuthService()
	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@jne.co.id", Password: "admin123"})
	require.NoError(t, err)

	svc.Logout()
	assert.Nil(t, sessions.Current())
}
