package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"invoiceapi/internal/auth"
)

const (
	// UserIDLocalKey is the key under which the verified caller's id is
	// stored in Fiber's context locals.
	UserIDLocalKey = "user_id"
	// UsernameLocalKey holds the verified caller's handle.
	UsernameLocalKey = "username"
)

// TokenVerifier verifies a session token string. Implemented by
// auth.TokenService.
type TokenVerifier interface {
	Verify(tokenString string) (*auth.Claims, error)
}

// RequireAuth is the authentication gate for protected routes.
//
// Behavior:
// - No Authorization header (or no bearer token in it) → 401.
// - Bearer token present but invalid/expired → 403.
// - Valid token → caller identity stored in context locals, request proceeds.
//
// The distinction between the failure modes is only the status code; no
// verification detail reaches the response.
func RequireAuth(verifier TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "authorization required")
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "invalid token")
		}

		c.Locals(UserIDLocalKey, claims.UserID)
		c.Locals(UsernameLocalKey, claims.Username)
		return c.Next()
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
