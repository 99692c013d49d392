package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/desh1993/fitness-mvp/internal/auth"
	"github.com/desh1993/fitness-mvp/internal/config"
	"github.com/desh1993/fitness-mvp/internal/domain"
	"github.com/desh1993/fitness-mvp/internal/observability"
	"github.com/desh1993/fitness-mvp/internal/repository"
	"github.com/desh1993/fitness-mvp/internal/validation"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

const invalidCredentialsMessage = "The provided credentials do not match our records."

// AuthService coordinates staff login sessions.
type AuthService struct {
	users       repository.UserRepository
	sessions    auth.SessionStore
	throttle    *auth.LoginThrottle
	tokenMgr    *auth.TokenManager
	metrics     *observability.Metrics
	logger      *zap.Logger
	sessionTTL  time.Duration
	rememberTTL time.Duration
	now         func() time.Time
}

// AuthDependencies encapsulates collaborators for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Sessions auth.SessionStore
	Throttle *auth.LoginThrottle
	Metrics  *observability.Metrics
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		sessions:    deps.Sessions,
		throttle:    deps.Throttle,
		tokenMgr:    auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.App.Name),
		metrics:     deps.Metrics,
		logger:      logger,
		sessionTTL:  cfg.Auth.SessionTTL(),
		rememberTTL: cfg.Auth.RememberTTL(),
		now:         time.Now,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// LoginInput is the staff login payload.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember"`
	IP       string `json:"-"`
}

// LoginResult carries the authenticated user and its session token.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Login verifies credentials, opens a session and signs a token for it.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	input.Email = strings.TrimSpace(input.Email)

	fields, err := validation.Struct(input)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if fields != nil {
		return nil, apperrors.NewFieldValidationError(fields)
	}

	key := auth.ThrottleKey(input.Email, input.IP)
	locked, retryAfter, err := s.throttle.Locked(ctx, key)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if locked {
		s.metrics.RecordLogin("throttled")
		return nil, apperrors.NewTooManyRequests(
			fmt.Sprintf("Too many login attempts. Please try again in %d seconds.", retryAfter), retryAfter)
	}

	user, err := s.authenticate(ctx, input.Email, input.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			return nil, apperrors.MapError(err)
		}
		if herr := s.throttle.Failed(ctx, key); herr != nil {
			s.logger.Warn("record failed login", zap.Error(herr))
		}
		s.metrics.RecordLogin("failed")
		fields := apperrors.FieldErrors{}
		fields.Add("email", invalidCredentialsMessage)
		return nil, apperrors.NewFieldValidationError(fields)
	}

	if err := s.throttle.Succeeded(ctx, key); err != nil {
		s.logger.Warn("clear login attempts", zap.Error(err))
	}

	ttl := s.sessionTTL
	if input.Remember {
		ttl = s.rememberTTL
	}
	issuedAt := s.now().UTC().Truncate(time.Second)
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		IssuedAt:  issuedAt,
		ExpiresAt: issuedAt.Add(ttl),
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	token, err := s.tokenMgr.GenerateToken(session)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	s.metrics.RecordLogin("success")
	s.logger.Info("staff logged in", zap.Int64("user_id", user.ID), zap.String("session_id", session.ID))
	return &LoginResult{User: user, Token: token, ExpiresAt: session.ExpiresAt}, nil
}

func (s *AuthService) authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, err
	}
	return user, nil
}

// Logout revokes the session so its token stops authenticating.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}
