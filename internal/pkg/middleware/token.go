package middleware

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
)

func unauthenticated(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"status": "error", "message": "Unauthenticated."})
}

// TokenAuthMiddleware authenticates API requests carrying a personal access
// token as "Authorization: Bearer <id>|<secret>".
func TokenAuthMiddleware(tokens repository.TokenRepository, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := extractBearerToken(c)
		if raw == "" {
			return unauthenticated(c)
		}

		token, err := lookupToken(tokens, raw)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Errorf("[Auth] access token lookup failed: %v", err)
				return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"status": "error", "message": "Token verification failed."})
			}
			return unauthenticated(c)
		}
		if token == nil || token.IsExpired(time.Now()) {
			return unauthenticated(c)
		}

		user, err := users.GetByID(token.UserID)
		if err != nil {
			return unauthenticated(c)
		}
		if !user.IsActive() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"status": "error", "message": "User inactive."})
		}

		if err := tokens.Touch(token); err != nil {
			log.Warnf("[Auth] failed to update token usage for user %d: %v", user.ID, err)
		}

		usercontext.Set(c, usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Name,
			IsLoggedIn: true,
			IsAdmin:    user.IsAdmin(),
			TokenID:    token.ID,
		})
		c.Locals("user", user)

		return c.Next()
	}
}

// lookupToken finds the row for an "<id>|<secret>" or bare secret value.
func lookupToken(tokens repository.TokenRepository, raw string) (*models.PersonalAccessToken, error) {
	id, secret := models.SplitAccessToken(raw)
	hash := models.HashAccessToken(secret)
	if id == 0 {
		return tokens.GetByHash(hash)
	}
	token, err := tokens.GetByID(id)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare([]byte(token.Token), []byte(hash)) != 1 {
		return nil, nil
	}
	return token, nil
}

func extractBearerToken(c *fiber.Ctx) string {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
