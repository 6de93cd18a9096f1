package billing

import (
	"context"
	"errors"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository provides DB operations used by the billing service.
type Repository interface {
	FindPackage(ctx context.Context, id uint) (*models.Package, error)
	FindOrderByUser(ctx context.Context, userID uint) (*models.PackageOrder, error)
	SaveOrder(ctx context.Context, order *models.PackageOrder) error
	CreateBill(ctx context.Context, bill *models.BillPaid) error
	SetActivePackage(ctx context.Context, userID, packageID uint) error
	SetOrderInvoice(ctx context.Context, orderID uint, file string) error
	SetBillInvoice(ctx context.Context, billID uint, file string) error
	FindGateway(ctx context.Context, keyword string) (*models.PaymentGateway, error)
	FindEmailSetting(ctx context.Context) (*models.EmailSetting, error)
	InsertWebhookEvent(ctx context.Context, event *models.BillingWebhookEvent) (created bool, err error)
	FinishWebhookEvent(ctx context.Context, id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindPackage(ctx context.Context, id uint) (*models.Package, error) {
	var pkg models.Package
	err := r.db.WithContext(ctx).First(&pkg, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// FindOrderByUser returns the oldest order of the user, or nil.
func (r *gormRepository) FindOrderByUser(ctx context.Context, userID uint) (*models.PackageOrder, error) {
	var order models.PackageOrder
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *gormRepository) SaveOrder(ctx context.Context, order *models.PackageOrder) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *gormRepository) CreateBill(ctx context.Context, bill *models.BillPaid) error {
	return r.db.WithContext(ctx).Create(bill).Error
}

func (r *gormRepository) SetActivePackage(ctx context.Context, userID, packageID uint) error {
	return r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).
		Update("active_package_id", packageID).Error
}

func (r *gormRepository) SetOrderInvoice(ctx context.Context, orderID uint, file string) error {
	return r.db.WithContext(ctx).Model(&models.PackageOrder{}).Where("id = ?", orderID).
		Update("invoice_number", file).Error
}

func (r *gormRepository) SetBillInvoice(ctx context.Context, billID uint, file string) error {
	return r.db.WithContext(ctx).Model(&models.BillPaid{}).Where("id = ?", billID).
		Update("invoice_number", file).Error
}

func (r *gormRepository) FindGateway(ctx context.Context, keyword string) (*models.PaymentGateway, error) {
	var gw models.PaymentGateway
	err := r.db.WithContext(ctx).Where("keyword = ?", keyword).First(&gw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &gw, nil
}

func (r *gormRepository) FindEmailSetting(ctx context.Context) (*models.EmailSetting, error) {
	var es models.EmailSetting
	err := r.db.WithContext(ctx).Order("id ASC").First(&es).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &es, nil
}

// InsertWebhookEvent stores event unless the provider already delivered it.
// Either way event ends up holding the stored row.
func (r *gormRepository) InsertWebhookEvent(ctx context.Context, event *models.BillingWebhookEvent) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "provider"}, {Name: "provider_event_id"}},
		DoNothing: true,
	}).Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	err := db.Where(&models.BillingWebhookEvent{Provider: event.Provider, ProviderEventID: event.ProviderEventID}).
		Take(event).Error
	return false, err
}

func (r *gormRepository) FinishWebhookEvent(ctx context.Context, id uint, processingError string) error {
	return r.db.WithContext(ctx).Model(&models.BillingWebhookEvent{ID: id}).
		Select("processed_at", "processing_error").
		Updates(models.BillingWebhookEvent{ProcessedAt: lo.ToPtr(time.Now()), ProcessingError: processingError}).Error
}
