package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Package is a billing plan tied to a bandwidth and cost tier.
type Package struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	LanguageID uint            `gorm:"index" json:"language_id"`
	Name       string          `gorm:"type:varchar(150);not null" json:"name" validate:"required,max=150"`
	Speed      string          `gorm:"type:varchar(50);index" json:"speed" validate:"required,max=50"`
	Price      decimal.Decimal `gorm:"type:decimal(11,2);not null;default:0" json:"price"`
	Time       string          `gorm:"type:varchar(50)" json:"time"`
	Status     bool            `gorm:"default:true" json:"status"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
