package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var contentValidator = validator.New()

// Language scopes all content lists.
type Language struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Code      string    `gorm:"type:varchar(10);uniqueIndex;not null" json:"code"`
	IsDefault bool      `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BlogCategory struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"index" json:"language_id" validate:"required"`
	Name       string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"name" validate:"required,max=150"`
	Slug       string    `gorm:"type:varchar(191);index" json:"slug"`
	Status     bool      `gorm:"default:true" json:"status"`
	Blogs      []Blog    `gorm:"foreignKey:BlogCategoryID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (m *BlogCategory) Validate() error { return contentValidator.Struct(m) }

// Blog is a post shown on the public site, grouped by category.
type Blog struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	LanguageID     uint      `gorm:"index" json:"language_id" validate:"required"`
	BlogCategoryID uint      `gorm:"index;not null" json:"blog_category_id" validate:"required"`
	Title          string    `gorm:"type:varchar(255);not null" json:"title" validate:"required,max=255"`
	Slug           string    `gorm:"type:varchar(255);index" json:"slug"`
	Content        string    `gorm:"type:text" json:"content" validate:"required"`
	MainImage      string    `gorm:"type:varchar(191)" json:"main_image"`
	Serial         int       `gorm:"default:0" json:"serial"`
	Status         bool      `gorm:"default:true" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (m *Blog) Validate() error { return contentValidator.Struct(m) }

type Faq struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"index" json:"language_id" validate:"required"`
	Title      string    `gorm:"type:varchar(150);not null" json:"title" validate:"required,max=150"`
	Content    string    `gorm:"type:text" json:"content" validate:"required"`
	Serial     int       `gorm:"default:0" json:"serial"`
	Status     bool      `gorm:"default:true" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (m *Faq) Validate() error { return contentValidator.Struct(m) }

type Branch struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"index" json:"language_id" validate:"required"`
	BranchName string    `gorm:"type:varchar(150);not null" json:"branch_name" validate:"required,max=150"`
	Iframe     string    `gorm:"type:text" json:"iframe" validate:"required"`
	Manager    string    `gorm:"type:varchar(150)" json:"manager" validate:"max=150"`
	Phone      string    `gorm:"type:varchar(150)" json:"phone" validate:"required,max=150"`
	Email      string    `gorm:"type:varchar(150)" json:"email" validate:"required,max=150"`
	Address    string    `gorm:"type:varchar(255)" json:"address" validate:"required,max=255"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (m *Branch) Validate() error { return contentValidator.Struct(m) }

// Media is a social or partner link with an uploaded icon.
type Media struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"index" json:"language_id" validate:"required"`
	Name       string    `gorm:"type:varchar(150)" json:"name" validate:"max=150"`
	Link       string    `gorm:"type:varchar(150)" json:"link" validate:"max=150"`
	Icon       string    `gorm:"type:varchar(191)" json:"icon"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Media) TableName() string { return "medias" }

func (m *Media) Validate() error { return contentValidator.Struct(m) }

type Offer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"index" json:"language_id" validate:"required"`
	Offer      string    `gorm:"type:varchar(150);not null" json:"offer" validate:"required,max=150"`
	Status     bool      `gorm:"default:true" json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (m *Offer) Validate() error { return contentValidator.Struct(m) }

// SectionTitle holds per-language section headings such as the offer block.
type SectionTitle struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"uniqueIndex" json:"language_id"`
	OfferTitle string    `gorm:"type:varchar(255)" json:"offer_title" validate:"max=255"`
	OfferText  string    `gorm:"type:text" json:"offer_text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type ShippingMethod struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	LanguageID uint            `gorm:"index" json:"language_id" validate:"required"`
	Title      string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"title" validate:"required,max=100"`
	Subtitle   string          `gorm:"type:varchar(255)" json:"subtitle" validate:"max=255"`
	Cost       decimal.Decimal `gorm:"type:decimal(11,2);default:0" json:"cost"`
	Status     bool            `gorm:"default:true" json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func (m *ShippingMethod) Validate() error {
	if err := contentValidator.Struct(m); err != nil {
		return err
	}
	if m.Cost.IsNegative() {
		return ErrNegativeCost
	}
	return nil
}

type Funfact struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	LanguageID uint      `gorm:"index" json:"language_id" validate:"required"`
	Icon       string    `gorm:"type:varchar(191)" json:"icon"`
	Name       string    `gorm:"type:varchar(255)" json:"name" validate:"max=255"`
	Value      string    `gorm:"type:varchar(50)" json:"value" validate:"max=50"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (m *Funfact) Validate() error { return contentValidator.Struct(m) }

// Footer has one row per language.
type Footer struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	LanguageID    uint      `gorm:"uniqueIndex" json:"language_id" validate:"required"`
	CopyrightText string    `gorm:"type:varchar(250)" json:"copyright_text" validate:"max=250"`
	FooterText    string    `gorm:"type:text" json:"footer_text"`
	FooterLogo    string    `gorm:"type:varchar(191)" json:"footer_logo"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (m *Footer) Validate() error { return contentValidator.Struct(m) }
