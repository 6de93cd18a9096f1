package apiv1

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// Pong is the body of GET /ping.
type Pong struct {
	Ping string `json:"ping"`
}

// ServerInterface lists the operations of public/docs/v1/openapi.yml.
type ServerInterface interface {
	// (GET /ping)
	GetPing(c *fiber.Ctx) error
	// (POST /auth/token)
	PostAuthToken(c *fiber.Ctx) error
	// (DELETE /auth/token)
	DeleteAuthToken(c *fiber.Ctx) error
	// (GET /bindings)
	GetBindings(c *fiber.Ctx) error
	// (POST /bindings)
	PostBindings(c *fiber.Ctx) error
	// (GET /bindings/{id})
	GetBinding(c *fiber.Ctx, id uint) error
	// (DELETE /bindings/{id})
	DeleteBinding(c *fiber.Ctx, id uint) error
}

// ServerInterfaceWrapper converts path parameters before calling the handler.
type ServerInterfaceWrapper struct {
	Handler ServerInterface
}

func (w *ServerInterfaceWrapper) bindingID(c *fiber.Ctx, next func(*fiber.Ctx, uint) error) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil || id == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"status":  "error",
			"message": "Invalid format for parameter id.",
		})
	}
	return next(c, uint(id))
}

func (w *ServerInterfaceWrapper) GetBinding(c *fiber.Ctx) error {
	return w.bindingID(c, w.Handler.GetBinding)
}

func (w *ServerInterfaceWrapper) DeleteBinding(c *fiber.Ctx) error {
	return w.bindingID(c, w.Handler.DeleteBinding)
}

// Route describes one registered operation; the OpenAPI coverage test walks it.
type Route struct {
	Method    string
	Path      string
	Protected bool
}

// Routes returns every operation in registration order, with OpenAPI style
// path templates.
func Routes() []Route {
	return []Route{
		{fiber.MethodGet, "/ping", false},
		{fiber.MethodPost, "/auth/token", false},
		{fiber.MethodDelete, "/auth/token", true},
		{fiber.MethodGet, "/bindings", true},
		{fiber.MethodPost, "/bindings", true},
		{fiber.MethodGet, "/bindings/{id}", true},
		{fiber.MethodDelete, "/bindings/{id}", true},
	}
}

// RegisterHandlers mounts si on router. auth guards every operation that
// requires a bearer token.
func RegisterHandlers(router fiber.Router, si ServerInterface, auth fiber.Handler) {
	w := &ServerInterfaceWrapper{Handler: si}

	router.Get("/ping", si.GetPing)
	router.Post("/auth/token", si.PostAuthToken)

	router.Delete("/auth/token", auth, si.DeleteAuthToken)
	router.Get("/bindings", auth, si.GetBindings)
	router.Post("/bindings", auth, si.PostBindings)
	router.Get("/bindings/:id", auth, w.GetBinding)
	router.Delete("/bindings/:id", auth, w.DeleteBinding)
}
