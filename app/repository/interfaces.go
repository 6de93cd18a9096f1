package repository

import (
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	UpdatePassword(email, hash string) error
	TouchLogin(id uint) error
	Delete(id uint) error
	List(offset, limit int) ([]models.User, error)
	Count() (int64, error)
	Search(query string) ([]models.User, error)
	GetWithStats(offset, limit int) ([]UserWithStats, error)
	SearchWithStats(query string) ([]UserWithStats, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
	ListEmails(activeOnly bool) ([]string, error)
}

// TokenRepository stores personal access tokens of the mobile client.
type TokenRepository interface {
	Create(token *models.PersonalAccessToken) error
	GetByID(id uint) (*models.PersonalAccessToken, error)
	GetByHash(hash string) (*models.PersonalAccessToken, error)
	Touch(token *models.PersonalAccessToken) error
	Delete(id uint) error
	DeleteExpired(now time.Time) (int64, error)
}

// PasswordResetRepository stores pending password reset tokens.
type PasswordResetRepository interface {
	Replace(reset *models.PasswordReset) error
	GetByTokenHash(hash string) (*models.PasswordReset, error)
	DeleteByEmail(email string) error
	DeleteOlderThan(cutoff time.Time) (int64, error)
}

// PackageRepository reads the package catalog and the payment history.
type PackageRepository interface {
	GetByID(id uint) (*models.Package, error)
	ListActive() ([]models.Package, error)
	BillsByUser(userID uint) ([]models.BillPaid, error)
	OrdersByUser(userID uint) ([]models.PackageOrder, error)
	BillByInvoice(userID uint, invoiceNumber string) (*models.BillPaid, error)
	OrderByInvoice(userID uint, invoiceNumber string) (*models.PackageOrder, error)
	RecentBills(limit int) ([]models.BillPaid, error)
}

// GatewayRepository manages payment gateway and email settings rows.
type GatewayRepository interface {
	List() ([]models.PaymentGateway, error)
	GetByKeyword(keyword string) (*models.PaymentGateway, error)
	Save(gateway *models.PaymentGateway) error
	GetEmailSetting() (*models.EmailSetting, error)
	SaveEmailSetting(setting *models.EmailSetting) error
}

// SettingRepository defines the interface for application settings
type SettingRepository interface {
	Get() (*models.AppSettings, error)
	Save(settings *models.AppSettings) error
	GetValue(key string) (string, error)
	SetValue(key, value string) error
}

// LanguageRepository resolves the language content lists are filtered by.
type LanguageRepository interface {
	List() ([]models.Language, error)
	GetByCode(code string) (*models.Language, error)
	Default() (*models.Language, error)
}

// ContentRepository is the CRUD store of one admin content entity. Lists
// are always scoped to a language.
type ContentRepository[T any] interface {
	ListByLanguage(languageID uint) ([]T, error)
	GetByID(id uint) (*T, error)
	Create(item *T) error
	Update(item *T) error
	Delete(id uint) error
	// ExistsExcept reports whether another row than id has column = value.
	ExistsExcept(column, value string, id uint) (bool, error)
}

// UserWithStats represents a user with additional statistics
type UserWithStats struct {
	User         models.User
	BindingCount int64
	BillCount    int64
	TotalPaid    decimal.Decimal
}

// Repositories struct holds all repository instances
type Repositories struct {
	User           UserRepository
	Token          TokenRepository
	PasswordReset  PasswordResetRepository
	Package        PackageRepository
	Gateway        GatewayRepository
	Setting        SettingRepository
	Language       LanguageRepository
	BlogCategory   ContentRepository[models.BlogCategory]
	Faq            ContentRepository[models.Faq]
	Branch         ContentRepository[models.Branch]
	Offer          ContentRepository[models.Offer]
	ShippingMethod ContentRepository[models.ShippingMethod]
	Media          ContentRepository[models.Media]
	Funfact        ContentRepository[models.Funfact]
	Footer         ContentRepository[models.Footer]
	SectionTitle   ContentRepository[models.SectionTitle]
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:           NewUserRepository(db),
		Token:          NewTokenRepository(db),
		PasswordReset:  NewPasswordResetRepository(db),
		Package:        NewPackageRepository(db),
		Gateway:        NewGatewayRepository(db),
		Setting:        NewSettingRepository(db),
		Language:       NewLanguageRepository(db),
		BlogCategory:   NewContentRepository[models.BlogCategory](db, "name ASC"),
		Faq:            NewContentRepository[models.Faq](db, "serial ASC, id ASC"),
		Branch:         NewContentRepository[models.Branch](db, "id DESC"),
		Offer:          NewContentRepository[models.Offer](db, "id DESC"),
		ShippingMethod: NewContentRepository[models.ShippingMethod](db, "id DESC"),
		Media:          NewContentRepository[models.Media](db, "id DESC"),
		Funfact:        NewContentRepository[models.Funfact](db, "id DESC"),
		Footer:         NewContentRepository[models.Footer](db, "id ASC"),
		SectionTitle:   NewContentRepository[models.SectionTitle](db, "id ASC"),
	}
}
