package usercontext

import "github.com/gofiber/fiber/v2"

// Session keys written at login.
const (
	AuthKey     = "authenticated"
	KeyUserID   = "user_id"
	KeyUsername = "username"
	KeyIsAdmin  = "is_admin"
)

// Request locals.
const (
	localsIdentity = "netportal.identity"
	// KeyCSRF is where the CSRF middleware leaves the token for templates.
	KeyCSRF = "csrf"
)

// UserContext is the caller of the current request, from either the web
// session or a personal access token.
type UserContext struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	IsLoggedIn bool   `json:"is_logged_in"`
	IsAdmin    bool   `json:"is_admin"`
	// TokenID is set when the request authenticated with a personal access token.
	TokenID uint `json:"token_id,omitempty"`
}

// ViaToken reports whether the caller presented a bearer token.
func (u UserContext) ViaToken() bool {
	return u.TokenID != 0
}

func Set(c *fiber.Ctx, ctx UserContext) {
	c.Locals(localsIdentity, ctx)
}

// GetUserContext returns the caller, or an anonymous one when no middleware
// resolved an identity.
func GetUserContext(c *fiber.Ctx) UserContext {
	if ctx, ok := c.Locals(localsIdentity).(UserContext); ok {
		return ctx
	}
	return UserContext{}
}

func GetUserID(c *fiber.Ctx) uint {
	return GetUserContext(c).UserID
}
