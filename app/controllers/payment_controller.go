package controllers

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/binding"
	"github.com/ManuelReschke/NetPortal/internal/pkg/constants"
	"github.com/ManuelReschke/NetPortal/internal/pkg/security"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
)

const (
	paymentFallbackMessage = "Please Enter Valid Credit Card Informations."
	noBillAccountMessage   = "Bind your account before paying its bill."
	paymentTimeout         = 30 * time.Second
	invoiceLinkTTL         = 24 * time.Hour
)

// PaymentController takes card payments for packages and monthly bills and
// serves the resulting invoices.
type PaymentController struct {
	users    repository.UserRepository
	bindings *binding.Service
	billing  *billing.Service
	invoices *billing.FileInvoiceStore
	secret   string
}

func NewPaymentController(d Deps) *PaymentController {
	return &PaymentController{users: d.Repos.User, bindings: d.Bindings, billing: d.Billing, invoices: d.Invoices, secret: d.Secret}
}

func (pc *PaymentController) HandlePayPackage(c *fiber.Ctx) error {
	return pc.pay(c, billing.KindPackage, constants.PackagesPath)
}

func (pc *PaymentController) HandlePayBill(c *fiber.Ctx) error {
	return pc.pay(c, billing.KindBill, constants.BillsPath)
}

func (pc *PaymentController) pay(c *fiber.Ctx, kind billing.Kind, back string) error {
	user, err := currentUser(c, pc.users)
	if err != nil {
		return c.Redirect(constants.LoginRoute, fiber.StatusSeeOther)
	}

	req, ok := paymentRequestFromForm(c, user)
	if !ok {
		return redirectWithWarning(c, back, paymentFallbackMessage)
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), paymentTimeout)
	defer cancel()

	// Packages are priced by the billing service; a bill is the monthly
	// cost of the user's primary account.
	if kind == billing.KindBill {
		amount, ok := pc.billAmount(ctx, user)
		if !ok {
			return redirectWithWarning(c, back, noBillAccountMessage)
		}
		req.Price = amount
	}

	var result *billing.PaymentResult
	if kind == billing.KindPackage {
		result, err = pc.billing.PayPackage(ctx, req)
	} else {
		result, err = pc.billing.PayBill(ctx, req)
	}
	if err != nil {
		if apperr.HTTPStatus(err) >= fiber.StatusInternalServerError {
			log.Errorf("[Payment] %s payment for user %d failed: %v", kind, user.ID, err)
		}
		return redirectWithWarning(c, back, apperr.UserMessage(err, paymentFallbackMessage))
	}

	return render(c, "payment/success", "Payment Successful", fiber.Map{
		"Kind":        string(kind),
		"PackageName": result.PackageName,
		"Bill":        result.Bill,
		"InvoiceURL":  pc.invoiceURL(user.ID, kind, result.InvoiceFile),
		"BackURL":     back,
	})
}

func (pc *PaymentController) billAmount(ctx context.Context, user *models.User) (decimal.Decimal, bool) {
	if !user.HasPrimaryBinding() {
		return decimal.Zero, false
	}
	account, err := pc.bindings.Authorize(ctx, user, *user.BindUserID)
	if err != nil {
		log.Warnf("[Payment] bill account of user %d: %v", user.ID, err)
		return decimal.Zero, false
	}
	return account.MonthlyCost, true
}

// paymentRequestFromForm reads the card form. Only a malformed package id
// fails here; amounts are never taken from the form.
func paymentRequestFromForm(c *fiber.Ctx, user *models.User) (billing.PaymentRequest, bool) {
	packageID, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("packageid")), 10, 64)
	if err != nil {
		return billing.PaymentRequest{}, false
	}
	return billing.PaymentRequest{
		User: user,
		Card: billing.Card{
			Name:     strings.TrimSpace(c.FormValue("fullname")),
			Number:   strings.ReplaceAll(strings.TrimSpace(c.FormValue("card_number")), " ", ""),
			ExpMonth: strings.TrimSpace(c.FormValue("month")),
			ExpYear:  strings.TrimSpace(c.FormValue("year")),
			CVC:      strings.TrimSpace(c.FormValue("cvc")),
		},
		PackageID:   uint(packageID),
		PackageName: strings.TrimSpace(c.FormValue("packagename")),
	}, true
}

// invoiceURL returns a signed download link, or "" when no invoice exists.
func (pc *PaymentController) invoiceURL(userID uint, kind billing.Kind, file string) string {
	return signedInvoiceURL(pc.secret, userID, kind, file)
}

func signedInvoiceURL(secret string, userID uint, kind billing.Kind, file string) string {
	if file == "" {
		return ""
	}
	token, err := security.GenerateInvoiceToken(userID, string(kind), file, invoiceLinkTTL, secret)
	if err != nil {
		log.Warnf("[Payment] invoice token for user %d: %v", userID, err)
		return ""
	}
	return constants.InvoicesRoute + "/" + token
}

// HandleInvoiceDownload serves an invoice addressed by a signed token. The
// token must belong to the logged in user.
func (pc *PaymentController) HandleInvoiceDownload(c *fiber.Ctx) error {
	claims, err := security.VerifyInvoiceToken(c.Params("token"), pc.secret)
	switch {
	case errors.Is(err, security.ErrInvoiceLinkExpired):
		return redirectWithError(c, constants.BillsPath, "The invoice link has expired. Open it again from your bills.")
	case err != nil:
		return redirectWithError(c, constants.BillsPath, "The invoice link is invalid.")
	}
	if claims.UserID != usercontext.GetUserID(c) {
		return c.SendStatus(fiber.StatusForbidden)
	}
	kind := billing.Kind(claims.Kind)
	if kind != billing.KindPackage && kind != billing.KindBill {
		return c.SendStatus(fiber.StatusNotFound)
	}

	path := pc.invoices.Path(kind, claims.File)
	if _, err := os.Stat(path); err != nil {
		return redirectWithError(c, constants.BillsPath, "The invoice could not be found.")
	}
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	if c.Query("download") == "1" {
		return c.Download(path, claims.File)
	}
	return c.SendFile(path)
}

func HandlePaymentPackageStripe(c *fiber.Ctx) error { return GetPaymentController().HandlePayPackage(c) }
func HandlePaymentBillStripe(c *fiber.Ctx) error    { return GetPaymentController().HandlePayBill(c) }
func HandleInvoiceDownload(c *fiber.Ctx) error      { return GetPaymentController().HandleInvoiceDownload(c) }
