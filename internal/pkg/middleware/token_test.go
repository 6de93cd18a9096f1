package middleware

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
)

func newTokenApp(t *testing.T) (*fiber.App, *gorm.DB, *repository.Repositories, *models.User) {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)

	user, err := models.CreateUser("Jane Doe", "jane@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))

	app := fiber.New()
	app.Get("/me", TokenAuthMiddleware(repos.Token, repos.User), func(c *fiber.Ctx) error {
		uc := usercontext.GetUserContext(c)
		return c.JSON(fiber.Map{"user_id": uc.UserID, "token_id": uc.TokenID})
	})
	return app, db, repos, user
}

func issueToken(t *testing.T, repos *repository.Repositories, userID uint, ttl time.Duration) (*models.PersonalAccessToken, string) {
	t.Helper()
	pat, secret, err := models.NewPersonalAccessToken(userID, "mobile", ttl)
	require.NoError(t, err)
	require.NoError(t, repos.Token.Create(pat))
	return pat, pat.PlainTextToken(secret)
}

func TestTokenAuthMiddleware(t *testing.T) {
	app, db, repos, user := newTokenApp(t)
	pat, plain := issueToken(t, repos, user.ID, time.Hour)
	expired, expiredPlain := issueToken(t, repos, user.ID, time.Hour)
	past := time.Now().Add(-time.Minute)
	expired.ExpiresAt = &past
	require.NoError(t, db.Save(expired).Error)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", fiber.StatusUnauthorized},
		{"valid token", "Bearer " + plain, fiber.StatusOK},
		{"lowercase scheme", "bearer " + plain, fiber.StatusOK},
		{"wrong secret", fmt.Sprintf("Bearer %d|deadbeef", pat.ID), fiber.StatusUnauthorized},
		{"unknown id", "Bearer 9999|deadbeef", fiber.StatusUnauthorized},
		{"expired", "Bearer " + expiredPlain, fiber.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)

			if tc.status == fiber.StatusOK {
				var body map[string]uint
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, user.ID, body["user_id"])
				assert.Equal(t, pat.ID, body["token_id"])
			}
		})
	}
}
