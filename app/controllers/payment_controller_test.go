package controllers

import (
	"errors"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/constants"
	"github.com/ManuelReschke/NetPortal/internal/pkg/security"
)

func paymentRoutes(pc *PaymentController) func(app *fiber.App) {
	return func(app *fiber.App) {
		app.Post("/user/payment/package/stripe", pc.HandlePayPackage)
		app.Post("/user/payment/bill/stripe", pc.HandlePayBill)
		app.Get("/user/invoices/:token", pc.HandleInvoiceDownload)
	}
}

func (f *ctrlFixture) paymentForm(price string) url.Values {
	return url.Values{
		"fullname":     {"Jane Doe"},
		"card_number":  {"4242 4242 4242 4242"},
		"month":        {"12"},
		"year":         {"2030"},
		"cvc":          {"123"},
		"packageid":    {strconv.FormatUint(uint64(f.pkg.ID), 10)},
		"packagename":  {f.pkg.Name},
		"packageprice": {price},
	}
}

func TestPayPackageRendersSuccess(t *testing.T) {
	f := newCtrlFixture(t)
	app := f.app(f.user, paymentRoutes(NewPaymentController(f.deps)))

	resp := postForm(t, app, "/user/payment/package/stripe", f.paymentForm("50.00"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "paid package Premium Home")
	assert.Regexp(t, regexp.MustCompile(`/user/invoices/\S+`), body)

	var user models.User
	require.NoError(t, f.db.First(&user, f.user.ID).Error)
	require.NotNil(t, user.ActivePackageID)
	assert.Equal(t, f.pkg.ID, *user.ActivePackageID)
}

// bindPrimary makes a new subscriber account the user's primary one.
func (f *ctrlFixture) bindPrimary(t *testing.T) *models.SubscriberAccount {
	t.Helper()
	acc := f.account(t, "ACC-77", "pw")
	require.NoError(t, f.db.Model(f.user).Update("bind_user_id", acc.ID).Error)
	f.user.BindUserID = &acc.ID
	return acc
}

func TestPaymentFailuresRedirectBack(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		packageID string
		tokenErr  error
		back      string
	}{
		{"token failure", "/user/payment/package/stripe", "", errors.New("card rejected"), constants.PackagesPath},
		{"malformed package id", "/user/payment/package/stripe", "abc", nil, constants.PackagesPath},
		{"unknown package", "/user/payment/package/stripe", "9999", nil, constants.PackagesPath},
		{"bill without account", "/user/payment/bill/stripe", "", nil, constants.BillsPath},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newCtrlFixture(t)
			f.gateway.tokenErr = tc.tokenErr
			app := f.app(f.user, paymentRoutes(NewPaymentController(f.deps)))

			form := f.paymentForm("50.00")
			if tc.packageID != "" {
				form.Set("packageid", tc.packageID)
			}
			resp := postForm(t, app, tc.path, form)
			assert.Equal(t, tc.back, resp.Header.Get(fiber.HeaderLocation))
			assert.NotEmpty(t, resp.Header.Get(fiber.HeaderSetCookie), "flash cookie")

			var bills []models.BillPaid
			require.NoError(t, f.db.Find(&bills).Error)
			assert.Empty(t, bills)
			assert.Empty(t, f.gateway.charges)
		})
	}
}

// Form amounts are ignored: packages cost their catalog price and bills the
// monthly cost of the primary account.
func TestPaymentAmountsComeFromTheServer(t *testing.T) {
	f := newCtrlFixture(t)
	acc := f.bindPrimary(t)
	app := f.app(f.user, paymentRoutes(NewPaymentController(f.deps)))

	resp := postForm(t, app, "/user/payment/package/stripe", f.paymentForm("0.01"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	resp = postForm(t, app, "/user/payment/bill/stripe", f.paymentForm("0.01"))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.Len(t, f.gateway.charges, 2)
	assert.Equal(t, int64(5000), f.gateway.charges[0].AmountMinor)
	assert.Equal(t, billing.ToMinorUnits(acc.MonthlyCost), f.gateway.charges[1].AmountMinor)

	var bills []models.BillPaid
	require.NoError(t, f.db.Order("id").Find(&bills).Error)
	require.Len(t, bills, 2)
	assert.True(t, f.pkg.Price.Equal(bills[0].PackageCost))
	assert.True(t, acc.MonthlyCost.Equal(bills[1].PackageCost))
}

func TestPaymentDeclinedKeepsNothing(t *testing.T) {
	f := newCtrlFixture(t)
	f.bindPrimary(t)
	f.gateway.chargeErr = billing.Declined(errors.New("card_declined"), "Your card was declined.")
	app := f.app(f.user, paymentRoutes(NewPaymentController(f.deps)))

	resp := postForm(t, app, "/user/payment/bill/stripe", f.paymentForm("25.00"))
	assert.Equal(t, constants.BillsPath, resp.Header.Get(fiber.HeaderLocation))
	assert.Len(t, f.gateway.charges, 1)

	var orders []models.PackageOrder
	require.NoError(t, f.db.Find(&orders).Error)
	assert.Empty(t, orders)
	var bills []models.BillPaid
	require.NoError(t, f.db.Find(&bills).Error)
	assert.Empty(t, bills)
}

func TestInvoiceDownload(t *testing.T) {
	f := newCtrlFixture(t)
	path := f.deps.Invoices.Path(billing.KindBill, "ABCD1700000000.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("<html>invoice</html>"), 0644))

	app := f.app(f.user, paymentRoutes(NewPaymentController(f.deps)))

	own, err := security.GenerateInvoiceToken(f.user.ID, string(billing.KindBill), "ABCD1700000000.html", time.Hour, f.deps.Secret)
	require.NoError(t, err)
	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/user/invoices/"+own, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, readBody(t, resp), "invoice")

	foreign, err := security.GenerateInvoiceToken(f.user.ID+1, string(billing.KindBill), "ABCD1700000000.html", time.Hour, f.deps.Secret)
	require.NoError(t, err)
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/user/invoices/"+foreign, nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/user/invoices/garbage", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, constants.BillsPath, resp.Header.Get(fiber.HeaderLocation))
}
