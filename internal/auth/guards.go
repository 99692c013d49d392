package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/desh1993/fitness-mvp/pkg/util/errorutil"
)

// RequireVerified ensures the staff principal confirmed their email address.
func RequireVerified() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("unauthenticated")
		}
		if !principal.User.Verified() {
			return apperrors.NewForbidden("Your email address is not verified.")
		}
		return c.Next()
	}
}
