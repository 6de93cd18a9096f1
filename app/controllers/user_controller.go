package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/lo"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/binding"
	"github.com/ManuelReschke/NetPortal/internal/pkg/constants"
)

// UserController renders the subscriber pages.
type UserController struct {
	users    repository.UserRepository
	packages repository.PackageRepository
	bindings *binding.Service
	secret   string
}

func NewUserController(d Deps) *UserController {
	return &UserController{users: d.Repos.User, packages: d.Repos.Package, bindings: d.Bindings, secret: d.Secret}
}

// billRow is a paid bill with its signed invoice link.
type billRow struct {
	models.BillPaid
	InvoiceURL string
}

func (uc *UserController) Dashboard(c *fiber.Ctx) error {
	user, err := currentUser(c, uc.users)
	if err != nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	accounts, err := uc.bindings.List(c.UserContext(), user)
	if err != nil {
		log.Errorf("[User] bindings for user %d: %v", user.ID, err)
		accounts = nil
	}
	return render(c, "user/dashboard", "Dashboard", fiber.Map{
		"User":     user,
		"Accounts": accounts,
	})
}

// Bind is the web form variant of the binding API.
func (uc *UserController) Bind(c *fiber.Ctx) error {
	user, err := currentUser(c, uc.users)
	if err != nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	req := bindRequest{
		AccountID: strings.TrimSpace(c.FormValue("account_id")),
		Password:  c.FormValue("password"),
	}
	if err := formValidator.Struct(req); err != nil {
		return redirectWithError(c, constants.DashboardPath, firstFieldError(err))
	}
	if _, _, err := uc.bindings.Bind(c.UserContext(), user, req.AccountID, req.Password); err != nil {
		if apperr.HTTPStatus(err) >= fiber.StatusInternalServerError {
			log.Errorf("[User] bind for user %d: %v", user.ID, err)
		}
		return redirectWithError(c, constants.DashboardPath, apperr.UserMessage(err, "Failed to bind account."))
	}
	return redirectWithSuccess(c, constants.DashboardPath, "Account bound successfully")
}

func (uc *UserController) Unbind(c *fiber.Ctx) error {
	user, err := currentUser(c, uc.users)
	if err != nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}
	id, ok := paramID(c, "id")
	if !ok {
		return redirectWithError(c, constants.DashboardPath, "Binding not found.")
	}
	if err := uc.bindings.Unbind(c.UserContext(), user, id); err != nil {
		if apperr.HTTPStatus(err) >= fiber.StatusInternalServerError {
			log.Errorf("[User] unbind %d for user %d: %v", id, user.ID, err)
		}
		return redirectWithError(c, constants.DashboardPath, apperr.UserMessage(err, "Failed to unbind account."))
	}
	return redirectWithSuccess(c, constants.DashboardPath, "Account unbound successfully")
}

// Packages lists the purchasable packages and the user's previous orders.
func (uc *UserController) Packages(c *fiber.Ctx) error {
	user, err := currentUser(c, uc.users)
	if err != nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	packages, err := uc.packages.ListActive()
	if err != nil {
		log.Errorf("[User] list packages: %v", err)
	}
	orders, err := uc.packages.OrdersByUser(user.ID)
	if err != nil {
		log.Errorf("[User] orders for user %d: %v", user.ID, err)
	}

	var active *models.Package
	if user.ActivePackageID != nil {
		if p, ok := lo.Find(packages, func(p models.Package) bool { return p.ID == *user.ActivePackageID }); ok {
			active = &p
		}
	}
	return render(c, "user/packages", "Packages", fiber.Map{
		"User":          user,
		"Packages":      packages,
		"Orders":        orders,
		"ActivePackage": active,
	})
}

// Bills lists paid bills and the bill form for the primary account.
func (uc *UserController) Bills(c *fiber.Ctx) error {
	user, err := currentUser(c, uc.users)
	if err != nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	bills, err := uc.packages.BillsByUser(user.ID)
	if err != nil {
		log.Errorf("[User] bills for user %d: %v", user.ID, err)
	}
	rows := lo.Map(bills, func(b models.BillPaid, _ int) billRow {
		return billRow{BillPaid: b, InvoiceURL: signedInvoiceURL(uc.secret, user.ID, billing.Kind(b.Kind), b.InvoiceNumber)}
	})

	accounts, err := uc.bindings.List(c.UserContext(), user)
	if err != nil {
		log.Errorf("[User] bindings for user %d: %v", user.ID, err)
	}
	var primary *binding.Summary
	if len(accounts) > 0 {
		primary = &accounts[0]
	}
	return render(c, "user/bills", "Bills", fiber.Map{
		"User":    user,
		"Bills":   rows,
		"Primary": primary,
	})
}

func HandleUserDashboard(c *fiber.Ctx) error { return GetUserController().Dashboard(c) }
func HandleUserBind(c *fiber.Ctx) error      { return GetUserController().Bind(c) }
func HandleUserUnbind(c *fiber.Ctx) error    { return GetUserController().Unbind(c) }
func HandleUserPackages(c *fiber.Ctx) error  { return GetUserController().Packages(c) }
func HandleUserBills(c *fiber.Ctx) error     { return GetUserController().Bills(c) }
