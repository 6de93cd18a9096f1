package repository

import (
	"errors"

	"github.com/ManuelReschke/NetPortal/app/models"
	"gorm.io/gorm"
)

type gatewayRepository struct {
	db *gorm.DB
}

func NewGatewayRepository(db *gorm.DB) GatewayRepository {
	return &gatewayRepository{db: db}
}

func (r *gatewayRepository) List() ([]models.PaymentGateway, error) {
	var gateways []models.PaymentGateway
	err := r.db.Order("id ASC").Find(&gateways).Error
	return gateways, err
}

func (r *gatewayRepository) GetByKeyword(keyword string) (*models.PaymentGateway, error) {
	var gw models.PaymentGateway
	if err := r.db.Where("keyword = ?", keyword).First(&gw).Error; err != nil {
		return nil, err
	}
	return &gw, nil
}

func (r *gatewayRepository) Save(gateway *models.PaymentGateway) error {
	return r.db.Save(gateway).Error
}

// GetEmailSetting returns the single email settings row, or an unsaved
// default when none exists yet.
func (r *gatewayRepository) GetEmailSetting() (*models.EmailSetting, error) {
	var es models.EmailSetting
	err := r.db.Order("id ASC").First(&es).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.EmailSetting{SMTPPort: 587, EmailEncryption: "tls"}, nil
	}
	if err != nil {
		return nil, err
	}
	return &es, nil
}

func (r *gatewayRepository) SaveEmailSetting(setting *models.EmailSetting) error {
	return r.db.Save(setting).Error
}
