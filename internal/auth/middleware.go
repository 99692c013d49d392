package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/desh1993/fitness-mvp/internal/domain"
	"github.com/desh1993/fitness-mvp/internal/repository"
	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated staff user and the session it arrived with.
type Principal struct {
	User    *domain.User
	Session domain.Session
}

// AuthMiddleware validates session tokens and loads principals.
type AuthMiddleware struct {
	tokens     *TokenManager
	sessions   SessionStore
	users      repository.UserRepository
	cookieName string
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, sessions SessionStore, users repository.UserRepository, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, sessions: sessions, users: users, cookieName: cookieName}
}

// Handle enforces authentication for protected routes. The session cookie is tried first; when it
// is missing or no longer valid, an Authorization bearer header is tried next.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	var lastErr error
	if cookie := c.Cookies(m.cookieName); cookie != "" {
		principal, err := m.authenticate(c.UserContext(), cookie)
		if err == nil {
			c.Locals(principalKey, principal)
			return c.Next()
		}
		lastErr = err
	}

	raw, err := m.bearerToken(c)
	if err != nil {
		if lastErr != nil && c.Get(fiber.HeaderAuthorization) == "" {
			return lastErr
		}
		return err
	}
	principal, err := m.authenticate(c.UserContext(), raw)
	if err != nil {
		return err
	}
	c.Locals(principalKey, principal)
	return c.Next()
}

func (m *AuthMiddleware) authenticate(ctx context.Context, raw string) (*Principal, error) {
	claims, err := m.tokens.ParseToken(raw)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	session, err := m.sessions.Get(ctx, claims.SessionID())
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperrors.NewUnauthorized("session expired")
		}
		return nil, apperrors.MapError(err)
	}
	if session.UserID != claims.UserID {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	user, err := m.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperrors.NewUnauthorized("user not found")
		}
		return nil, apperrors.MapError(err)
	}
	return &Principal{User: user, Session: *session}, nil
}

func (m *AuthMiddleware) bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("unauthenticated")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
