package billing

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeGateway struct {
	tokenErr  error
	chargeErr error
	charges   []ChargeRequest
}

func (g *fakeGateway) Tokenize(_ context.Context, card Card) (string, error) {
	if g.tokenErr != nil {
		return "", g.tokenErr
	}
	return "tok_" + card.Number[len(card.Number)-4:], nil
}

func (g *fakeGateway) Charge(_ context.Context, req ChargeRequest) (*ChargeResult, error) {
	g.charges = append(g.charges, req)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return &ChargeResult{ChargeID: "ch_1", TxnID: "txn_1", Status: "succeeded"}, nil
}

type fakeNotifier struct {
	err  error
	sent []Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg Notification) error {
	n.sent = append(n.sent, msg)
	return n.err
}

type fakeCounters struct {
	outcomes []string
}

func (c *fakeCounters) Record(_ context.Context, kind, outcome string) error {
	c.outcomes = append(c.outcomes, kind+":"+outcome)
	return nil
}

type billingFixture struct {
	db       *gorm.DB
	gateway  *fakeGateway
	notifier *fakeNotifier
	counters *fakeCounters
	service  *Service
	user     *models.User
	pkg      *models.Package
	dir      string
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)

	user := &models.User{Name: "Jane Doe", Email: "jane@example.com", Password: "x", Role: models.ROLE_USER, Status: models.STATUS_ACTIVE}
	require.NoError(t, db.Create(user).Error)
	pkg := &models.Package{Name: "Premium Home", Speed: "50 Mbps", Price: decimal.RequireFromString("50.00"), Status: true}
	require.NoError(t, db.Create(pkg).Error)

	f := &billingFixture{
		db:       db,
		gateway:  &fakeGateway{},
		notifier: &fakeNotifier{},
		counters: &fakeCounters{},
		user:     user,
		pkg:      pkg,
		dir:      t.TempDir(),
	}
	clock := func() time.Time { return time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC) }
	f.service = NewService(NewRepository(db), StaticGateway(f.gateway), NewFileInvoiceStore(f.dir),
		WithNotifier(f.notifier), WithCounters(f.counters), WithClock(clock))
	return f
}

func (f *billingFixture) request(price string) PaymentRequest {
	return PaymentRequest{
		User:        f.user,
		Card:        Card{Name: "Jane Doe", Number: "4242424242424242", ExpMonth: "12", ExpYear: "2030", CVC: "123"},
		PackageID:   f.pkg.ID,
		PackageName: f.pkg.Name,
		Price:       decimal.RequireFromString(price),
	}
}

func TestPayPackageFirstPurchase(t *testing.T) {
	f := newBillingFixture(t)

	res, err := f.service.PayPackage(context.Background(), f.request("50.00"))
	require.NoError(t, err)
	require.NotNil(t, res.Order)
	require.NotNil(t, res.Bill)
	assert.NotEmpty(t, res.InvoiceFile)
	assert.NoError(t, res.NotificationErr)

	require.Len(t, f.gateway.charges, 1)
	assert.Equal(t, int64(5000), f.gateway.charges[0].AmountMinor)
	assert.Equal(t, "usd", f.gateway.charges[0].Currency)
	assert.Equal(t, "Package name: Premium Home & Mar 2026, this month bill has paid.", f.gateway.charges[0].Description)

	var orders []models.PackageOrder
	require.NoError(t, f.db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.Equal(t, res.InvoiceFile, orders[0].InvoiceNumber)
	assert.Equal(t, "txn_1", orders[0].TxnID)

	var bills []models.BillPaid
	require.NoError(t, f.db.Find(&bills).Error)
	require.Len(t, bills, 1)
	assert.True(t, decimal.RequireFromString("50.00").Equal(bills[0].PackageCost))
	assert.Equal(t, "USD", bills[0].CurrencyCode)
	assert.Equal(t, "Stripe", bills[0].Method)
	assert.Equal(t, "Completed", bills[0].PaymentStatus)
	assert.Equal(t, "03-2026", bills[0].YearMonth)
	assert.Equal(t, "Mar 09, 2026", bills[0].FullDate)
	assert.NotEqual(t, bills[0].AttendanceID, bills[0].TxnID)
	assert.NotEqual(t, orders[0].AttendanceID, bills[0].AttendanceID)

	var user models.User
	require.NoError(t, f.db.First(&user, f.user.ID).Error)
	require.NotNil(t, user.ActivePackageID)
	assert.Equal(t, f.pkg.ID, *user.ActivePackageID)

	_, err = os.Stat(f.service.invoices.Path(KindPackage, res.InvoiceFile))
	assert.NoError(t, err)

	require.Len(t, f.notifier.sent, 1)
	assert.Equal(t, "Order placed for Package", f.notifier.sent[0].Subject)
	assert.Equal(t, "jane@example.com", f.notifier.sent[0].To)
	assert.Contains(t, f.notifier.sent[0].HTMLBody, "Hello <strong>Jane Doe</strong>")
	assert.Equal(t, []string{"package:succeeded"}, f.counters.outcomes)
}

// An existing order of the user is overwritten instead of a second one
// being created. Bills are always appended.
func TestPayPackageReusesOrderByUser(t *testing.T) {
	f := newBillingFixture(t)

	first, err := f.service.PayPackage(context.Background(), f.request("50.00"))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(f.pkg).Update("price", decimal.RequireFromString("75.50")).Error)
	second, err := f.service.PayPackage(context.Background(), f.request("75.50"))
	require.NoError(t, err)

	assert.Equal(t, first.Order.ID, second.Order.ID)

	var orders []models.PackageOrder
	require.NoError(t, f.db.Find(&orders).Error)
	require.Len(t, orders, 1)
	assert.True(t, decimal.RequireFromString("75.50").Equal(orders[0].PackageCost))
	assert.Equal(t, second.InvoiceFile, orders[0].InvoiceNumber)

	var bills int64
	require.NoError(t, f.db.Model(&models.BillPaid{}).Count(&bills).Error)
	assert.Equal(t, int64(2), bills)
}

func TestPayBillAppendsBillOnly(t *testing.T) {
	f := newBillingFixture(t)

	res, err := f.service.PayBill(context.Background(), f.request("19.99"))
	require.NoError(t, err)
	assert.Nil(t, res.Order)
	require.NotNil(t, res.Bill)
	assert.Equal(t, int64(1999), f.gateway.charges[0].AmountMinor)
	assert.Equal(t, "Mar 2026, This month bill paid. Package name: Premium Home", f.gateway.charges[0].Description)

	var bill models.BillPaid
	require.NoError(t, f.db.First(&bill, res.Bill.ID).Error)
	assert.Equal(t, res.InvoiceFile, bill.InvoiceNumber)
	assert.Equal(t, models.BillKindBill, bill.Kind)

	var orders int64
	require.NoError(t, f.db.Model(&models.PackageOrder{}).Count(&orders).Error)
	assert.Equal(t, int64(0), orders)
	assert.Equal(t, "Bill Paid", f.notifier.sent[0].Subject)
}

func TestNotificationFailureKeepsRecords(t *testing.T) {
	f := newBillingFixture(t)
	f.notifier.err = errors.New("smtp: connection refused")

	res, err := f.service.PayPackage(context.Background(), f.request("50.00"))
	require.NoError(t, err)
	assert.Error(t, res.NotificationErr)

	var order models.PackageOrder
	require.NoError(t, f.db.First(&order, res.Order.ID).Error)
	assert.NotEmpty(t, order.InvoiceNumber)

	var bill models.BillPaid
	require.NoError(t, f.db.First(&bill, res.Bill.ID).Error)
	assert.Contains(t, f.counters.outcomes, "package:notify_failed")
}

func TestTokenizationAndDeclineAreDistinct(t *testing.T) {
	f := newBillingFixture(t)

	f.gateway.tokenErr = errors.New("card rejected by provider")
	_, err := f.service.PayPackage(context.Background(), f.request("50.00"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, ErrTokenization))
	assert.Equal(t, "Token Problem With Your Token.", apperr.UserMessage(err, ""))
	assert.Empty(t, f.gateway.charges)

	f.gateway.tokenErr = nil
	f.gateway.chargeErr = Declined(errors.New("card_declined"), "Your card has insufficient funds.")
	_, err = f.service.PayPackage(context.Background(), f.request("50.00"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, ErrDeclined))
	assert.False(t, apperr.Is(err, ErrTokenization))
	assert.False(t, apperr.Is(ErrDeclined, ErrTokenization))
	assert.False(t, apperr.Is(TokenizationFailed(nil, ""), ErrDeclined))
	assert.Equal(t, "Your card has insufficient funds.", apperr.UserMessage(err, declineFallback))

	var bills int64
	require.NoError(t, f.db.Model(&models.BillPaid{}).Count(&bills).Error)
	assert.Equal(t, int64(0), bills)
	assert.Equal(t, []string{"package:token_failed", "package:declined"}, f.counters.outcomes)
}

func TestValidationRunsBeforeGateway(t *testing.T) {
	f := newBillingFixture(t)

	req := f.request("50.00")
	req.Card.Number = "abc"
	_, err := f.service.PayPackage(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	req = f.request("0")
	_, err = f.service.PayBill(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.ErrValidation))

	assert.Empty(t, f.gateway.charges)
}

func TestPackageIsChargedAtCatalogPrice(t *testing.T) {
	f := newBillingFixture(t)

	req := f.request("0.50")
	req.PackageName = "Tampered"
	res, err := f.service.PayPackage(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, f.gateway.charges, 1)
	assert.Equal(t, int64(5000), f.gateway.charges[0].AmountMinor)
	assert.Contains(t, f.gateway.charges[0].Description, "Premium Home")
	assert.True(t, decimal.RequireFromString("50.00").Equal(res.Bill.PackageCost))
	assert.True(t, decimal.RequireFromString("50.00").Equal(res.Order.PackageCost))
}

func TestUnknownPackageRejectedBeforeGateway(t *testing.T) {
	f := newBillingFixture(t)
	retired := &models.Package{Name: "Retired", Speed: "5 Mbps", Price: decimal.RequireFromString("10"), Status: true}
	require.NoError(t, f.db.Create(retired).Error)
	require.NoError(t, f.db.Model(retired).Update("status", false).Error)

	for _, id := range []uint{retired.ID, 9999} {
		req := f.request("50.00")
		req.PackageID = id
		_, err := f.service.PayPackage(context.Background(), req)
		require.Error(t, err)
		assert.True(t, apperr.Is(err, apperr.ErrValidation))
		assert.Equal(t, "The selected package is not available.", apperr.UserMessage(err, ""))

		_, err = f.service.PayBill(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.ErrValidation))
	}
	assert.Empty(t, f.gateway.charges)
	assert.Empty(t, f.counters.outcomes)
}

func TestProviderRejectionPassesMessageThrough(t *testing.T) {
	f := newBillingFixture(t)
	f.gateway.chargeErr = Unavailable(errors.New("invalid_request_error"), "Amount must be at least 50 cents.")

	_, err := f.service.PayBill(context.Background(), f.request("0.10"))
	require.Error(t, err)
	assert.True(t, apperr.Is(err, ErrUnavailable))
	assert.False(t, apperr.Is(err, ErrDeclined))
	assert.Equal(t, "Amount must be at least 50 cents.", apperr.UserMessage(err, declineFallback))
	assert.Equal(t, []string{"bill:provider_failed"}, f.counters.outcomes)
}

func TestToMinorUnitsTruncates(t *testing.T) {
	assert.Equal(t, int64(5000), ToMinorUnits(decimal.RequireFromString("50")))
	assert.Equal(t, int64(1234), ToMinorUnits(decimal.RequireFromString("12.349")))
}
