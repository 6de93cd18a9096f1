package router

import (
	"github.com/ManuelReschke/NetPortal/app/controllers"
	"github.com/ManuelReschke/NetPortal/internal/pkg/middleware"
	"github.com/gofiber/fiber/v2"
)

// registerAdminRoutes runs after registerCSRFProtectedRoutes, so the CSRF
// middleware mounted on the root group also covers every admin form.
func (h HttpRouter) registerAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.RequireAdmin)
	adminGroup.Get("/", controllers.HandleAdminDashboard)
	adminGroup.Get("/users", controllers.HandleAdminUsers)
	adminGroup.Get("/users/edit/:id", controllers.HandleAdminUserEdit)
	adminGroup.Post("/users/update/:id", controllers.HandleAdminUserUpdate)
	adminGroup.Post("/users/delete/:id", controllers.HandleAdminUserDelete)

	// Settings
	adminGroup.Get("/settings", controllers.HandleAdminSettings)
	adminGroup.Post("/settings", controllers.HandleAdminSettingsUpdate)
	adminGroup.Get("/gateways", controllers.HandleAdminGateways)
	adminGroup.Post("/gateways", controllers.HandleAdminGatewaysUpdate)
	adminGroup.Get("/email", controllers.HandleAdminEmailSettings)
	adminGroup.Post("/email", controllers.HandleAdminEmailSettingsUpdate)
	adminGroup.Get("/group-email", controllers.HandleAdminGroupEmail)
	adminGroup.Post("/group-email", controllers.HandleAdminGroupEmailSend)

	// Site content, one CRUD block per resource
	adminGroup.Post("/offers/section", controllers.HandleAdminOfferSection)
	for _, res := range controllers.GetAdminContentController().Resources() {
		base := "/" + res.Slug()
		adminGroup.Get(base, res.Index)
		adminGroup.Get(base+"/create", res.Create)
		adminGroup.Post(base+"/store", res.Store)
		adminGroup.Get(base+"/edit/:id", res.Edit)
		adminGroup.Post(base+"/update/:id", res.Update)
		adminGroup.Post(base+"/delete/:id", res.Delete)
	}
	adminGroup.Get("/footer", controllers.HandleAdminFooter)
	adminGroup.Post("/footer", controllers.HandleAdminFooterUpdate)
}
