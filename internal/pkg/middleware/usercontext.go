package middleware

import (
	"github.com/ManuelReschke/NetPortal/internal/pkg/session"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
	"github.com/gofiber/fiber/v2"
)

// UserContextMiddleware sets up the complete user context for every request
// from the web session.
func UserContextMiddleware(c *fiber.Ctx) error {
	anonymous := usercontext.UserContext{}

	store := session.GetSessionStore()
	if store == nil {
		usercontext.Set(c, anonymous)
		return c.Next()
	}
	sess, err := store.Get(c)
	if err != nil {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	userID, ok := sess.Get(usercontext.KeyUserID).(uint)
	if !ok || userID == 0 {
		usercontext.Set(c, anonymous)
		return c.Next()
	}

	username, _ := sess.Get(usercontext.KeyUsername).(string)
	isAdmin, _ := sess.Get(usercontext.KeyIsAdmin).(bool)
	usercontext.Set(c, usercontext.UserContext{
		UserID:     userID,
		Username:   username,
		IsLoggedIn: true,
		IsAdmin:    isAdmin,
	})

	return c.Next()
}
