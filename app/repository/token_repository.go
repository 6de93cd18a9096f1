package repository

import (
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"gorm.io/gorm"
)

type tokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepository{db: db}
}

func (r *tokenRepository) Create(token *models.PersonalAccessToken) error {
	return r.db.Create(token).Error
}

func (r *tokenRepository) GetByID(id uint) (*models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	if err := r.db.First(&token, id).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *tokenRepository) GetByHash(hash string) (*models.PersonalAccessToken, error) {
	var token models.PersonalAccessToken
	if err := r.db.Where("token = ?", hash).First(&token).Error; err != nil {
		return nil, err
	}
	return &token, nil
}

// Touch records the last usage time.
func (r *tokenRepository) Touch(token *models.PersonalAccessToken) error {
	token.TouchUsage()
	return r.db.Model(token).Update("last_used_at", token.LastUsedAt).Error
}

func (r *tokenRepository) Delete(id uint) error {
	return r.db.Delete(&models.PersonalAccessToken{}, id).Error
}

// DeleteExpired removes tokens whose expiry lies before now.
func (r *tokenRepository) DeleteExpired(now time.Time) (int64, error) {
	res := r.db.Where("expires_at IS NOT NULL AND expires_at < ?", now).Delete(&models.PersonalAccessToken{})
	return res.RowsAffected, res.Error
}
