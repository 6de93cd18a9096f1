package router

import (
	"strings"
	"time"

	"github.com/ManuelReschke/NetPortal/app/controllers"
	"github.com/ManuelReschke/NetPortal/internal/pkg/constants"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/ManuelReschke/NetPortal/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"
)

func csrfConfig() csrf.Config {
	return csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/api/") || strings.HasPrefix(c.Path(), "/webhooks/")
		},
	}
}

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	group := app.Group("", cors.New(), csrf.New(csrfConfig()))
	group.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(constants.DashboardPath, fiber.StatusSeeOther)
	})
	group.Get("/login", controllers.HandleAuthLogin)
	group.Post("/login", controllers.HandleAuthLogin)
	group.Get("/register", controllers.HandleAuthRegister)
	group.Post("/register", controllers.HandleAuthRegister)
	group.Get("/forgot-password", controllers.HandleAuthForgotPassword)
	group.Post("/forgot-password", controllers.HandleAuthForgotPassword)
	group.Get("/reset-password/:token", controllers.HandleAuthResetPassword)
	group.Post("/reset-password/:token", controllers.HandleAuthResetPassword)

	// Subscriber area
	group.Get("/user/dashboard", middleware.RequireAuth, controllers.HandleUserDashboard)
	group.Post("/user/bindings", middleware.RequireAuth, controllers.HandleUserBind)
	group.Post("/user/bindings/delete/:id", middleware.RequireAuth, controllers.HandleUserUnbind)
	group.Get("/user/packages", middleware.RequireAuth, controllers.HandleUserPackages)
	group.Get("/user/bills", middleware.RequireAuth, controllers.HandleUserBills)

	// Payments
	group.Post("/user/payment/package/stripe", middleware.RequireAuth, controllers.HandlePaymentPackageStripe)
	group.Post("/user/payment/bill/stripe", middleware.RequireAuth, controllers.HandlePaymentBillStripe)
	group.Get("/user/invoices/:token", middleware.RequireAuth, controllers.HandleInvoiceDownload)
}
