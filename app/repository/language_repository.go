package repository

import (
	"errors"

	"github.com/ManuelReschke/NetPortal/app/models"
	"gorm.io/gorm"
)

type languageRepository struct {
	db *gorm.DB
}

func NewLanguageRepository(db *gorm.DB) LanguageRepository {
	return &languageRepository{db: db}
}

func (r *languageRepository) List() ([]models.Language, error) {
	var langs []models.Language
	err := r.db.Order("id ASC").Find(&langs).Error
	return langs, err
}

func (r *languageRepository) GetByCode(code string) (*models.Language, error) {
	var lang models.Language
	if err := r.db.Where("code = ?", code).First(&lang).Error; err != nil {
		return nil, err
	}
	return &lang, nil
}

// Default returns the language flagged as default, or the first one.
func (r *languageRepository) Default() (*models.Language, error) {
	var lang models.Language
	err := r.db.Where("is_default = ?", true).First(&lang).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = r.db.Order("id ASC").First(&lang).Error
	}
	if err != nil {
		return nil, err
	}
	return &lang, nil
}
