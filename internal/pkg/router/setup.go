package router

import "github.com/gofiber/fiber/v2"

// Router registers a group of routes on the app.
type Router interface {
	InstallRouter(app *fiber.App)
}

// InstallRouter wires the web portal and then the JSON API. The order
// matters: the web router installs the user context middleware.
func InstallRouter(app *fiber.App) {
	for _, r := range []Router{NewHttpRouter(), NewApiRouter()} {
		r.InstallRouter(app)
	}
}
