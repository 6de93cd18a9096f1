package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/ManuelReschke/NetPortal/app/repository"
	apiv1 "github.com/ManuelReschke/NetPortal/internal/api/v1"
	"github.com/ManuelReschke/NetPortal/internal/pkg/middleware"
)

const (
	apiRequestsPerWindow = 60
	apiWindow            = time.Minute
)

// ApiRouter installs the JSON API of the mobile client under /api.
type ApiRouter struct{}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}

// apiLimiter throttles per client IP and answers in the API's error shape.
func apiLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        apiRequestsPerWindow,
		Expiration: apiWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"status":  "error",
				"message": "Too many requests.",
			})
		},
	})
}

func (ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", apiLimiter())
	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "NetPortal API", "versions": []string{"v1"}})
	})

	repos := repository.GetGlobalFactory().GetRepositories()
	apiv1.RegisterHandlers(api.Group("/v1"), apiv1.NewAPIServer(), middleware.TokenAuthMiddleware(repos.Token, repos.User))
}
