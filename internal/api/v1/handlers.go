package apiv1

import (
	"github.com/gofiber/fiber/v2"

	// Delegate to existing controllers to keep behavior consistent
	"github.com/ManuelReschke/NetPortal/app/controllers"
)

// APIServer implements the ServerInterface
type APIServer struct{}

// NewAPIServer creates a new API server instance
func NewAPIServer() *APIServer {
	return &APIServer{}
}

// GetPing handles the ping endpoint
func (s *APIServer) GetPing(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(Pong{Ping: "pong"})
}

// PostAuthToken issues a personal access token for the mobile client.
func (s *APIServer) PostAuthToken(c *fiber.Ctx) error {
	return controllers.HandleAPIIssueToken(c)
}

// DeleteAuthToken revokes the token the request was authenticated with.
func (s *APIServer) DeleteAuthToken(c *fiber.Ctx) error {
	return controllers.HandleAPIRevokeToken(c)
}

func (s *APIServer) GetBindings(c *fiber.Ctx) error {
	return controllers.HandleAPIBindingsList(c)
}

func (s *APIServer) PostBindings(c *fiber.Ctx) error {
	return controllers.HandleAPIBindingCreate(c)
}

// GetBinding returns one bound account. The controller reads the id from the
// route params; the wrapper has already checked it is numeric.
func (s *APIServer) GetBinding(c *fiber.Ctx, id uint) error {
	return controllers.HandleAPIBindingShow(c)
}

func (s *APIServer) DeleteBinding(c *fiber.Ctx, id uint) error {
	return controllers.HandleAPIBindingDelete(c)
}
