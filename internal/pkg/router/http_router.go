package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ManuelReschke/NetPortal/internal/pkg/middleware"
)

// HttpRouter installs the server rendered portal: public endpoints first,
// then everything behind CSRF protection, admin pages last.
type HttpRouter struct{}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Every later handler, including the API, reads the caller from here.
	app.Use(middleware.UserContextMiddleware)

	for _, register := range []func(*fiber.App){
		h.registerPublicRoutes,
		h.registerCSRFProtectedRoutes,
		h.registerAdminRoutes,
	} {
		register(app)
	}
}
