package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SubscriberAccount mirrors an ISP service account from the external system
// of record. The portal only reads it, apart from status flags.
type SubscriberAccount struct {
	ID               uint            `gorm:"primaryKey" json:"id"`
	MbtUserID        string          `gorm:"type:varchar(100);index" json:"mbt_user_id"`
	AccountID        string          `gorm:"type:varchar(100);uniqueIndex" json:"account_id"`
	Password         string          `gorm:"type:varchar(255)" json:"-"`
	UserName         string          `gorm:"type:varchar(150)" json:"user_name"`
	RealName         string          `gorm:"type:varchar(150)" json:"real_name"`
	Phone            string          `gorm:"type:varchar(50)" json:"phone"`
	PhoneNumber      string          `gorm:"type:varchar(50)" json:"phone_number"`
	Email            string          `gorm:"type:varchar(200)" json:"email"`
	Address          string          `gorm:"type:varchar(255)" json:"address"`
	Area             string          `gorm:"type:varchar(150)" json:"area"`
	Bandwidth        string          `gorm:"type:varchar(50)" json:"bandwidth"`
	MonthlyCost      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"monthly_cost"`
	ServiceType      string          `gorm:"type:varchar(50)" json:"service_type"`
	SubCompany       string          `gorm:"type:varchar(150)" json:"sub_company"`
	Status           string          `gorm:"type:varchar(50)" json:"status"`
	Balance          decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"balance"`
	ExpireTime       *time.Time      `json:"expire_time"`
	InstallationDate *time.Time      `json:"installation_date"`
	StartTime        *time.Time      `json:"start_time"`
	CreateTime       *time.Time      `json:"create_time"`
	RouterType       string          `gorm:"type:varchar(100)" json:"router_type"`
	GPS              string          `gorm:"column:gps;type:varchar(100)" json:"gps"`
	LastOnline       *time.Time      `json:"last_online"`
	LastOffline      *time.Time      `json:"last_offline"`
	OdbBox           string          `gorm:"type:varchar(100)" json:"odb_box"`
	Pon              string          `gorm:"type:varchar(100)" json:"pon"`
	Loid             string          `gorm:"type:varchar(100)" json:"loid"`
	FiberLength      string          `gorm:"type:varchar(50)" json:"fiber_length"`
	OpticalPower     string          `gorm:"type:varchar(50)" json:"optical_power"`
	OdbRxPower       string          `gorm:"type:varchar(50)" json:"odb_rx_power"`
	OdbGPS           string          `gorm:"column:odb_gps;type:varchar(100)" json:"odb_gps"`
	LAN              string          `gorm:"column:lan;type:varchar(100)" json:"lan"`
	SpeedTest        string          `gorm:"type:varchar(100)" json:"speed_test"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ContactPhone prefers the primary phone column over the legacy one.
func (a *SubscriberAccount) ContactPhone() string {
	if a.Phone != "" {
		return a.Phone
	}
	return a.PhoneNumber
}
