package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	PaymentStatusCompleted = "Completed"
	PaymentMethodStripe    = "Stripe"

	BillKindPackage = "package"
	BillKindBill    = "bill"
)

// PackageOrder is the order row of a package purchase. Financial fields
// are written by a successful charge; afterwards only InvoiceNumber changes.
type PackageOrder struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	PackageID     uint            `gorm:"index" json:"package_id"`
	PackageCost   decimal.Decimal `gorm:"type:decimal(11,2);not null" json:"package_cost"`
	CurrencyCode  string          `gorm:"type:varchar(8)" json:"currency_code"`
	CurrencySign  string          `gorm:"type:varchar(8)" json:"currency_sign"`
	AttendanceID  string          `gorm:"type:varchar(64)" json:"attendance_id"`
	PaymentStatus string          `gorm:"type:varchar(32)" json:"payment_status"`
	TxnID         string          `gorm:"type:varchar(191)" json:"txn_id"`
	Method        string          `gorm:"type:varchar(32)" json:"method"`
	Status        int             `gorm:"default:0" json:"status"`
	InvoiceNumber string          `gorm:"type:varchar(191)" json:"invoice_number"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// BillPaid is an append-only record of a paid bill or package charge.
type BillPaid struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	UserID        uint            `gorm:"index;not null" json:"user_id"`
	PackageID     uint            `gorm:"index" json:"package_id"`
	Kind          string          `gorm:"type:varchar(16);not null;default:'bill'" json:"kind"`
	PackageCost   decimal.Decimal `gorm:"type:decimal(11,2);not null" json:"package_cost"`
	CurrencyCode  string          `gorm:"type:varchar(8)" json:"currency_code"`
	CurrencySign  string          `gorm:"type:varchar(8)" json:"currency_sign"`
	AttendanceID  string          `gorm:"type:varchar(64)" json:"attendance_id"`
	PaymentStatus string          `gorm:"type:varchar(32)" json:"payment_status"`
	TxnID         string          `gorm:"type:varchar(191)" json:"txn_id"`
	Method        string          `gorm:"type:varchar(32)" json:"method"`
	YearMonth     string          `gorm:"column:yearmonth;type:varchar(16);index" json:"yearmonth"`
	FullDate      string          `gorm:"column:fulldate;type:varchar(32)" json:"fulldate"`
	InvoiceNumber string          `gorm:"type:varchar(191)" json:"invoice_number"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (BillPaid) TableName() string {
	return "bill_paids"
}

// PaymentGateway holds provider credentials edited by admins.
type PaymentGateway struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Keyword      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"keyword"`
	Name         string    `gorm:"type:varchar(100)" json:"name"`
	Information  string    `gorm:"type:text" json:"-"`
	CurrencyCode string    `gorm:"type:varchar(8);default:'USD'" json:"currency_code"`
	CurrencySign string    `gorm:"type:varchar(8);default:'$'" json:"currency_sign"`
	Status       bool      `gorm:"default:true" json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// GatewayInformation is the JSON stored in PaymentGateway.Information.
type GatewayInformation struct {
	Key           string `json:"key"`
	Secret        string `json:"secret"`
	WebhookSecret string `json:"webhook_secret"`
}

// Credentials decodes the information column. An empty column yields a zero value.
func (g *PaymentGateway) Credentials() (GatewayInformation, error) {
	var info GatewayInformation
	if g.Information == "" {
		return info, nil
	}
	err := json.Unmarshal([]byte(g.Information), &info)
	return info, err
}

func (g *PaymentGateway) SetCredentials(info GatewayInformation) error {
	raw, err := json.Marshal(info)
	if err != nil {
		return err
	}
	g.Information = string(raw)
	return nil
}
