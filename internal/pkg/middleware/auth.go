package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
)

// guard runs next when allow accepts the caller and deny otherwise.
func guard(allow func(usercontext.UserContext) bool, deny fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if allow(usercontext.GetUserContext(c)) {
			return c.Next()
		}
		return deny(c)
	}
}

func loggedIn(u usercontext.UserContext) bool { return u.IsLoggedIn }

func redirectTo(path string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.Redirect(path, fiber.StatusSeeOther)
	}
}

// RequireAuth sends visitors without a portal session to the login page.
var RequireAuth = guard(loggedIn, redirectTo("/login"))

// RequireAdmin lets administrators through. Customers land on the portal
// root, visitors on the login page.
func RequireAdmin(c *fiber.Ctx) error {
	u := usercontext.GetUserContext(c)
	switch {
	case !u.IsLoggedIn:
		return c.Redirect("/login", fiber.StatusSeeOther)
	case !u.IsAdmin:
		return c.Redirect("/", fiber.StatusSeeOther)
	}
	return c.Next()
}
