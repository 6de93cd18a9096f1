package binding

import (
	"context"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/shopspring/decimal"
)

// Summary is the list representation of a bound account.
type Summary struct {
	ID          uint            `json:"id"`
	BindID      *uint           `json:"bind_id,omitempty"`
	AccountID   string          `json:"account_id"`
	UserName    string          `json:"user_name"`
	RealName    string          `json:"real_name"`
	Phone       string          `json:"phone"`
	Address     string          `json:"address"`
	Package     string          `json:"package"`
	MonthlyCost decimal.Decimal `json:"monthly_cost"`
	ExpireTime  *time.Time      `json:"expire_time"`
	Status      string          `json:"status"`
	Balance     decimal.Decimal `json:"balance"`
	Bandwidth   string          `json:"bandwidth"`
	ServiceType string          `json:"service_type"`
	SubCompany  string          `json:"sub_company"`
}

// Detail adds installation and network fields to Summary.
type Detail struct {
	Summary
	Email            string     `json:"email"`
	Area             string     `json:"area"`
	InstallationDate *time.Time `json:"installation_date"`
	StartTime        *time.Time `json:"start_time"`
	CreateTime       *time.Time `json:"create_time"`
	RouterType       string     `json:"router_type"`
	GPS              string     `json:"gps"`
	LastOnline       *time.Time `json:"last_online"`
	LastOffline      *time.Time `json:"last_offline"`
	OdbBox           string     `json:"odb_box"`
	Pon              string     `json:"pon"`
	Loid             string     `json:"loid"`
	FiberLength      string     `json:"fiber_length"`
	OpticalPower     string     `json:"optical_power"`
	OdbRxPower       string     `json:"odb_rx_power"`
	OdbGPS           string     `json:"odb_gps"`
	LAN              string     `json:"lan"`
	SpeedTest        string     `json:"speed_test"`
}

// Format builds the summary of an account.
func Format(ctx context.Context, namer *PackageNamer, a *models.SubscriberAccount, bindID *uint) Summary {
	return Summary{
		ID:          a.ID,
		BindID:      bindID,
		AccountID:   a.AccountID,
		UserName:    a.UserName,
		RealName:    a.RealName,
		Phone:       a.ContactPhone(),
		Address:     a.Address,
		Package:     namer.Name(ctx, a.Bandwidth, a.MonthlyCost, a.ServiceType),
		MonthlyCost: a.MonthlyCost,
		ExpireTime:  a.ExpireTime,
		Status:      a.Status,
		Balance:     a.Balance,
		Bandwidth:   a.Bandwidth,
		ServiceType: a.ServiceType,
		SubCompany:  a.SubCompany,
	}
}

func FormatDetailed(ctx context.Context, namer *PackageNamer, a *models.SubscriberAccount) Detail {
	return Detail{
		Summary:          Format(ctx, namer, a, nil),
		Email:            a.Email,
		Area:             a.Area,
		InstallationDate: a.InstallationDate,
		StartTime:        a.StartTime,
		CreateTime:       a.CreateTime,
		RouterType:       a.RouterType,
		GPS:              a.GPS,
		LastOnline:       a.LastOnline,
		LastOffline:      a.LastOffline,
		OdbBox:           a.OdbBox,
		Pon:              a.Pon,
		Loid:             a.Loid,
		FiberLength:      a.FiberLength,
		OpticalPower:     a.OpticalPower,
		OdbRxPower:       a.OdbRxPower,
		OdbGPS:           a.OdbGPS,
		LAN:              a.LAN,
		SpeedTest:        a.SpeedTest,
	}
}
