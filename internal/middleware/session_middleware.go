package middleware

import (
	"github.com/conadsciacca/totem-voti/internal/services"

	"github.com/gofiber/fiber/v2"
)

// SessionCookie is the name of the cookie carrying the signed session token.
const SessionCookie = "totem_session"

// SessionRequired is a Fiber middleware guarding protected routes. A
// missing or invalid session, or a role mismatch when role is non-empty,
// redirects to the login page. Both checks fail closed.
func SessionRequired(authService *services.AuthService, role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Cookies(SessionCookie)
		if token == "" {
			return c.Redirect("/login", fiber.StatusFound)
		}

		session, err := authService.ValidateToken(token)
		if err != nil {
			return c.Redirect("/login", fiber.StatusFound)
		}
		if role != "" && session.Role != role {
			return c.Redirect("/login", fiber.StatusFound)
		}

		c.Locals("username", session.Username)
		c.Locals("role", session.Role)
		c.Locals("store", session.Store)

		return c.Next()
	}
}

// SessionStore returns the store of the authenticated session set by
// SessionRequired.
func SessionStore(c *fiber.Ctx) string {
	store, _ := c.Locals("store").(string)
	return store
}
