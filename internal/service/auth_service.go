package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jne-ops/opsboard-api/internal/audit"
	"github.com/jne-ops/opsboard-api/internal/models"
	"github.com/jne-ops/opsboard-api/internal/session"
	syncengine "github.com/jne-ops/opsboard-api/internal/sync"
	appErrors "github.com/jne-ops/opsboard-api/pkg/errors"
)

const resetTokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const resetTokenLength = 6

// AuthConfig defines configuration for the token flow.
type AuthConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

// AuthService owns login, logout and the two password flows. Passwords are
// compared in plaintext against the canonical user list; the observable
// behavior of the dashboard is kept as-is.
type AuthService struct {
	engine    *syncengine.Engine
	sessions  *session.Store
	audit     *audit.Appender
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(engine *syncengine.Engine, sessions *session.Store, appender *audit.Appender, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if config.Expiration <= 0 {
		config.Expiration = 24 * time.Hour
	}
	return &AuthService{
		engine:    engine,
		sessions:  sessions,
		audit:     appender,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Login authenticates against the canonical user list and issues a token.
// The canonical record — not the submitted one — enters the session.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	users := s.engine.Snapshot().Users
	user, ok := s.sessions.Resolve(req.Email, req.Password, users)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	token, err := s.issueToken(*user)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	public := *user
	public.Password = ""
	return &models.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int64(s.config.Expiration.Seconds()),
		IssuedAt:    s.now().UTC(),
		User:        public,
	}, nil
}

// Logout ends the session and wipes the persisted slot.
func (s *AuthService) Logout() {
	s.sessions.Clear()
}

// ChangePassword verifies the old password against the canonical record
// and persists the new one. The active session adopts the new password
// without a re-login.
func (s *AuthService) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	current := s.sessions.Current()
	if current == nil {
		return appErrors.Clone(appErrors.ErrUnauthorized, "no active session")
	}

	data := s.engine.Snapshot()
	canonical, ok := models.FindUser(data.Users, current.Email)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}
	if canonical.Password != req.OldPassword {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "current password does not match")
	}

	updatedUsers := replacePassword(data.Users, canonical.Email, req.NewPassword)
	entry := s.audit.Entry(models.LogActionUpdate,
		fmt.Sprintf("Mengubah password akun %s", canonical.Email), "")

	s.engine.Save(ctx, data.Jobs, updatedUsers, audit.Prepend(data.ValidationLogs, entry))
	s.sessions.Refresh(updatedUsers)
	return nil
}

// ResetPassword generates a one-time token, stores it as the account's new
// password and records a system audit entry.
func (s *AuthService) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) (*models.ResetPasswordResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset payload")
	}

	data := s.engine.Snapshot()
	target, ok := models.FindUser(data.Users, req.Email)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "account not found")
	}

	token, err := s.generateResetToken()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate reset token")
	}

	updatedUsers := replacePassword(data.Users, target.Email, token)
	entry := s.audit.SystemEntry(models.LogActionResetPassword,
		fmt.Sprintf("Reset password for user %s", target.Email))

	s.engine.Save(ctx, data.Jobs, updatedUsers, audit.Prepend(data.ValidationLogs, entry))
	s.sessions.Refresh(updatedUsers)

	return &models.ResetPasswordResponse{Email: target.Email, Token: token}, nil
}

// RefreshSession reconciles the active session after a background sync.
func (s *AuthService) RefreshSession() {
	s.sessions.Refresh(s.engine.Snapshot().Users)
}

// ValidateToken parses and verifies an access token.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issueToken(user models.User) (string, error) {
	now := s.now().UTC()
	claims := models.JWTClaims{
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.Expiration)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.Secret))
}

func (s *AuthService) generateResetToken() (string, error) {
	out := make([]byte, resetTokenLength)
	max := big.NewInt(int64(len(resetTokenChars)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = resetTokenChars[n.Int64()]
	}
	return string(out), nil
}

func replacePassword(users []models.User, email, password string) []models.User {
	updated := make([]models.User, len(users))
	copy(updated, users)
	for i := range updated {
		if updated[i].Email == email {
			updated[i].Password = password
		}
	}
	return updated
}
