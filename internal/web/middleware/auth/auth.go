package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/GoADConsole/GoADConsole/internal/web/handler"
	"github.com/GoADConsole/GoADConsole/internal/web/session"
)

// PublicPrefixes are reachable without a session.
var PublicPrefixes = []string{
	"/static",
	"/auth/oidc/",
	"/logout",
	"/checkalive",
	"/metrics",
}

// New returns the guard: unauthenticated users go to the login page,
// authenticated users are sent away from it.
func New(sessions *session.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if IsPublic(c) {
			return c.Next()
		}

		data, id, err := sessions.Read(c)
		authenticated := err == nil && data.User.Subject != ""

		if IsLoginPage(c) {
			if authenticated {
				return c.Redirect(handler.DashboardPath)
			}

			return c.Next()
		}

		if !authenticated {
			if handler.WantsJSON(c) {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"redirect": handler.LoginPath})
			}

			return c.Redirect(handler.LoginPath)
		}

		c.Locals(handler.LocalSession, data)
		c.Locals(handler.LocalSessionID, id)
		c.Locals(handler.LocalUser, &data.User)

		return c.Next()
	}
}

// IsPublic checks if the current request needs no session.
func IsPublic(c *fiber.Ctx) bool {
	p := strings.ToLower(c.Path())

	for _, prefix := range PublicPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}

	return false
}

// IsLoginPage checks if the current request is for the login page.
func IsLoginPage(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Path()), handler.LoginPath)
}
