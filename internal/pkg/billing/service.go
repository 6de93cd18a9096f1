package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/ManuelReschke/NetPortal/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/NetPortal/internal/pkg/shortener"
	"github.com/ManuelReschke/NetPortal/views/invoice"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"
)

const (
	unknownPackageMessage = "The selected package is not available."

	subjectPackage = "Order placed for Package"
	subjectBill    = "Bill Paid"
)

var validate = validator.New()

// GatewayFactory returns the gateway to charge with. It is called once per
// payment so admin changes apply without a restart.
type GatewayFactory func(ctx context.Context) (Gateway, error)

// Archiver copies invoices to long term storage.
type Archiver interface {
	ArchiveInvoice(ctx context.Context, kind, localPath string, at time.Time) (string, error)
}

// OutcomeRecorder counts payment outcomes.
type OutcomeRecorder interface {
	Record(ctx context.Context, kind, outcome string) error
}

// Service turns successful provider charges into order and bill records,
// invoices and confirmation mails.
//
// The financial write is the durability boundary: once the order and bill
// are stored, every later step only logs its failures.
type Service struct {
	repo         Repository
	gateways     GatewayFactory
	invoices     InvoiceStore
	notifier     Notifier
	archiver     Archiver
	counters     OutcomeRecorder
	now          func() time.Time
	currencyCode string
	currencySign string
	siteTitle    string
}

type Option func(*Service)

func WithNotifier(n Notifier) Option        { return func(s *Service) { s.notifier = n } }
func WithArchiver(a Archiver) Option        { return func(s *Service) { s.archiver = a } }
func WithCounters(c OutcomeRecorder) Option { return func(s *Service) { s.counters = c } }
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }
func WithSiteTitle(title string) Option     { return func(s *Service) { s.siteTitle = title } }

// WithCurrency sets the ISO code and display sign. Empty values keep USD/$.
func WithCurrency(code, sign string) Option {
	return func(s *Service) {
		if code != "" {
			s.currencyCode = strings.ToUpper(code)
		}
		if sign != "" {
			s.currencySign = sign
		}
	}
}

// NewService creates a billing service.
func NewService(repo Repository, gateways GatewayFactory, invoices InvoiceStore, opts ...Option) *Service {
	s := &Service{
		repo:         repo,
		gateways:     gateways,
		invoices:     invoices,
		now:          time.Now,
		currencyCode: "USD",
		currencySign: "$",
		siteTitle:    "NetPortal",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StaticGateway always returns g.
func StaticGateway(g Gateway) GatewayFactory {
	return func(context.Context) (Gateway, error) { return g, nil }
}

// StripeFromSettings builds a Stripe gateway from the payment_gateways row,
// falling back to STRIPE_SECRET_KEY.
func StripeFromSettings(repo Repository) GatewayFactory {
	return func(ctx context.Context) (Gateway, error) {
		secret := env.GetEnv("STRIPE_SECRET_KEY", "")
		row, err := repo.FindGateway(ctx, ProviderStripe)
		if err != nil {
			return nil, err
		}
		if row != nil && row.Status {
			info, err := row.Credentials()
			if err != nil {
				return nil, err
			}
			if info.Secret != "" {
				secret = info.Secret
			}
		}
		return NewStripeGateway(secret)
	}
}

// PayPackage charges a package purchase, upserts the user's order, appends
// a bill and moves the user to the package.
func (s *Service) PayPackage(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	return s.pay(ctx, KindPackage, req)
}

// PayBill charges the monthly bill and appends a bill record.
func (s *Service) PayBill(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	return s.pay(ctx, KindBill, req)
}

func (s *Service) pay(ctx context.Context, kind Kind, req PaymentRequest) (*PaymentResult, error) {
	req, err := s.priced(ctx, kind, req)
	if err != nil {
		return nil, err
	}
	if err := validatePaymentRequest(req); err != nil {
		return nil, err
	}

	gw, err := s.gateways(ctx)
	if err != nil {
		log.Errorf("[Billing] gateway unavailable: %v", err)
		return nil, apperr.Internal(err, "resolve payment gateway")
	}

	token, err := gw.Tokenize(ctx, req.Card)
	if err != nil || token == "" {
		log.Warnf("[Billing] tokenization failed for user %d: %v", req.User.ID, err)
		s.record(ctx, kind, counter.OutcomeTokenFailed)
		if err != nil && apperr.Is(err, ErrTokenization) {
			return nil, err
		}
		return nil, TokenizationFailed(err, "")
	}

	now := s.now()
	charge, err := gw.Charge(ctx, ChargeRequest{
		Token:       token,
		Currency:    strings.ToLower(s.currencyCode),
		AmountMinor: ToMinorUnits(req.Price),
		Description: chargeDescription(kind, req.PackageName, now),
	})
	if err != nil {
		switch {
		case apperr.Is(err, ErrDeclined):
			log.Warnf("[Billing] charge declined for user %d: %v", req.User.ID, err)
			s.record(ctx, kind, counter.OutcomeDeclined)
			return nil, err
		case apperr.Is(err, apperr.ErrProvider):
			log.Errorf("[Billing] provider rejected charge for user %d: %v", req.User.ID, err)
			s.record(ctx, kind, counter.OutcomeProviderFailed)
			return nil, err
		}
		log.Errorf("[Billing] charge failed for user %d: %v", req.User.ID, err)
		s.record(ctx, kind, counter.OutcomeInternalFailed)
		return nil, apperr.Internal(err, "charge")
	}

	result, err := s.persist(ctx, kind, req, charge, now)
	if err != nil {
		// The customer was charged but nothing was stored; the charge id in
		// the log is the only trace.
		log.Errorf("[Billing] charge %s for user %d not recorded: %v", charge.ChargeID, req.User.ID, err)
		s.record(ctx, kind, counter.OutcomeInternalFailed)
		return nil, apperr.Internal(err, "record payment")
	}
	s.record(ctx, kind, counter.OutcomeSucceeded)

	s.afterPayment(ctx, kind, req, result, now)
	return result, nil
}

// priced checks the package against the catalog. Packages are charged at
// their catalog price; bills keep the amount the caller resolved.
func (s *Service) priced(ctx context.Context, kind Kind, req PaymentRequest) (PaymentRequest, error) {
	if req.PackageID == 0 {
		return req, validatePaymentRequest(req)
	}
	pkg, err := s.repo.FindPackage(ctx, req.PackageID)
	if err != nil {
		return req, apperr.Internal(err, "load package")
	}
	if pkg == nil || !pkg.Status {
		return req, apperr.Newf("package %d not purchasable", req.PackageID).
			WithHint(unknownPackageMessage).
			Mark(apperr.ErrValidation)
	}
	if kind == KindPackage {
		req.Price = pkg.Price
		req.PackageName = pkg.Name
	}
	return req, nil
}

// persist performs the financial write.
func (s *Service) persist(ctx context.Context, kind Kind, req PaymentRequest, charge *ChargeResult, now time.Time) (*PaymentResult, error) {
	result := &PaymentResult{PackageName: req.PackageName}

	if kind == KindPackage {
		order, err := s.repo.FindOrderByUser(ctx, req.User.ID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			order = &models.PackageOrder{UserID: req.User.ID}
		}
		ref, err := shortener.Reference(now)
		if err != nil {
			return nil, err
		}
		order.PackageID = req.PackageID
		order.PackageCost = req.Price
		order.CurrencyCode = s.currencyCode
		order.CurrencySign = s.currencySign
		order.AttendanceID = ref
		order.PaymentStatus = models.PaymentStatusCompleted
		order.TxnID = charge.TxnID
		order.Method = models.PaymentMethodStripe
		order.Status = 0
		order.InvoiceNumber = ""
		if err := s.repo.SaveOrder(ctx, order); err != nil {
			return nil, err
		}
		result.Order = order
	}

	ref, err := shortener.Reference(now)
	if err != nil {
		return nil, err
	}
	bill := &models.BillPaid{
		UserID:        req.User.ID,
		PackageID:     req.PackageID,
		Kind:          string(kind),
		PackageCost:   req.Price,
		CurrencyCode:  s.currencyCode,
		CurrencySign:  s.currencySign,
		AttendanceID:  ref,
		PaymentStatus: models.PaymentStatusCompleted,
		TxnID:         charge.TxnID,
		Method:        models.PaymentMethodStripe,
		YearMonth:     now.Format("01-2006"),
		FullDate:      now.Format("Jan 02, 2006"),
	}
	if err := s.repo.CreateBill(ctx, bill); err != nil {
		return nil, err
	}
	result.Bill = bill
	return result, nil
}

// afterPayment runs the best effort steps. It never returns an error.
func (s *Service) afterPayment(ctx context.Context, kind Kind, req PaymentRequest, result *PaymentResult, now time.Time) {
	user := req.User

	if kind == KindPackage {
		if err := s.repo.SetActivePackage(ctx, user.ID, req.PackageID); err != nil {
			log.Errorf("[Billing] set active package for user %d: %v", user.ID, err)
		} else {
			id := req.PackageID
			user.ActivePackageID = &id
		}
	}

	file, err := s.invoices.Save(ctx, kind, s.invoiceData(kind, req, result))
	if err != nil {
		log.Errorf("[Billing] invoice for user %d not generated: %v", user.ID, err)
		s.record(ctx, kind, counter.OutcomeInvoiceFailed)
		return
	}
	result.InvoiceFile = file

	if kind == KindPackage {
		err = s.repo.SetOrderInvoice(ctx, result.Order.ID, file)
		result.Order.InvoiceNumber = file
	} else {
		err = s.repo.SetBillInvoice(ctx, result.Bill.ID, file)
		result.Bill.InvoiceNumber = file
	}
	if err != nil {
		log.Errorf("[Billing] store invoice name %s: %v", file, err)
	}

	path := s.invoices.Path(kind, file)
	if s.archiver != nil {
		if key, err := s.archiver.ArchiveInvoice(ctx, string(kind), path, now); err != nil {
			log.Warnf("[Billing] archive invoice %s: %v", file, err)
		} else {
			log.Debugf("[Billing] archived invoice %s as %s", file, key)
		}
	}

	if s.notifier != nil {
		subject := subjectBill
		if kind == KindPackage {
			subject = subjectPackage
		}
		result.NotificationErr = s.notifier.Notify(ctx, Notification{
			To:             user.Email,
			Subject:        subject,
			HTMLBody:       confirmationBody(user.Name),
			AttachmentPath: path,
		})
		if result.NotificationErr != nil {
			log.Warnf("[Billing] confirmation mail to %s failed: %v", user.Email, result.NotificationErr)
			s.record(ctx, kind, counter.OutcomeNotifyFailed)
		}
	}
}

func (s *Service) invoiceData(kind Kind, req PaymentRequest, result *PaymentResult) invoice.Data {
	rec := result.Bill
	title := "Bill Invoice"
	attendance := rec.AttendanceID
	if kind == KindPackage {
		title = "Package Invoice"
		attendance = result.Order.AttendanceID
	}
	amount := req.Price.StringFixed(2)
	return invoice.Data{
		SiteTitle:     s.siteTitle,
		Title:         title,
		AttendanceID:  attendance,
		TxnID:         rec.TxnID,
		Method:        rec.Method,
		PaymentStatus: rec.PaymentStatus,
		FullDate:      rec.FullDate,
		CustomerName:  req.User.Name,
		CustomerEmail: req.User.Email,
		CustomerPhone: req.User.Phone,
		CurrencyCode:  rec.CurrencyCode,
		CurrencySign:  rec.CurrencySign,
		Lines:         []invoice.Line{{Description: req.PackageName + " (" + rec.YearMonth + ")", Amount: amount}},
		Total:         amount,
	}
}

func (s *Service) record(ctx context.Context, kind Kind, outcome string) {
	if s.counters == nil {
		return
	}
	if err := s.counters.Record(ctx, string(kind), outcome); err != nil {
		log.Debugf("[Billing] counter %s/%s: %v", kind, outcome, err)
	}
}

func chargeDescription(kind Kind, packageName string, now time.Time) string {
	if kind == KindPackage {
		return "Package name: " + packageName + " & " + now.Format("Jan 2006") + ", this month bill has paid."
	}
	return now.Format("Jan 2006") + ", This month bill paid. Package name: " + packageName
}

func validatePaymentRequest(req PaymentRequest) error {
	if req.User == nil || req.User.ID == 0 {
		return apperr.New("payment without user").Mark(apperr.ErrValidation)
	}
	if err := validate.Struct(req); err != nil {
		return apperr.Wrap(err, "invalid payment request").
			WithHint(declineFallback).
			Mark(apperr.ErrValidation)
	}
	if !req.Price.IsPositive() {
		return apperr.New("price must be positive").
			WithHint(declineFallback).
			Mark(apperr.ErrValidation)
	}
	return nil
}

// RecordWebhookEvent stores a delivery once per provider event id. Events
// without an id are keyed by a hash of their payload.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (bool, *models.BillingWebhookEvent, error) {
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return false, nil, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.BillingWebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	created, err := s.repo.InsertWebhookEvent(ctx, event)
	if err != nil {
		return false, nil, err
	}
	return created, event, nil
}

// MarkWebhookProcessed stamps the event with the processing time and error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.FinishWebhookEvent(ctx, webhookEventID, errMsg)
}

// NewServiceFromDB wires the default production collaborators.
func NewServiceFromDB(db *gorm.DB, invoiceDir string, opts ...Option) *Service {
	repo := NewRepository(db)
	base := []Option{WithNotifier(NewMailNotifier(repo))}
	return NewService(repo, StripeFromSettings(repo), NewFileInvoiceStore(invoiceDir), append(base, opts...)...)
}
