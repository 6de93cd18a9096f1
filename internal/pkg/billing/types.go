package billing

import (
	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/shopspring/decimal"
)

// Kind selects which flow a payment belongs to.
type Kind string

const (
	KindPackage Kind = models.BillKindPackage
	KindBill    Kind = models.BillKindBill
)

// Card is the raw card data entered by the customer. It is only passed to
// Gateway.Tokenize and never stored or logged.
type Card struct {
	Name     string `validate:"required,max=150"`
	Number   string `validate:"required,numeric,min=12,max=19"`
	ExpMonth string `validate:"required,numeric,min=1,max=2"`
	ExpYear  string `validate:"required,numeric,min=2,max=4"`
	CVC      string `validate:"required,numeric,min=3,max=4"`
}

// PaymentRequest is the input of PayPackage and PayBill.
type PaymentRequest struct {
	User        *models.User `validate:"-"`
	Card        Card
	PackageID   uint            `validate:"required"`
	PackageName string          `validate:"required,max=150"`
	Price       decimal.Decimal `validate:"-"`
}

// ChargeRequest is sent to the gateway after tokenization.
type ChargeRequest struct {
	Token       string
	Currency    string
	AmountMinor int64
	Description string
}

// ChargeResult is the provider response of a successful charge.
type ChargeResult struct {
	ChargeID string
	TxnID    string
	Status   string
}

// PaymentResult is what the caller gets back once the financial write
// succeeded. NotificationErr is informational only.
type PaymentResult struct {
	Order           *models.PackageOrder
	Bill            *models.BillPaid
	PackageName     string
	InvoiceFile     string
	NotificationErr error
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// ToMinorUnits converts a price to cents, truncating sub-cent digits.
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(decimal.NewFromInt(100)).IntPart()
}
