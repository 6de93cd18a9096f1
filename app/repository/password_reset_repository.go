package repository

import (
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"gorm.io/gorm"
)

type passwordResetRepository struct {
	db *gorm.DB
}

func NewPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

// Replace drops earlier resets of the same email and stores reset.
func (r *passwordResetRepository) Replace(reset *models.PasswordReset) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", reset.Email).Delete(&models.PasswordReset{}).Error; err != nil {
			return err
		}
		return tx.Create(reset).Error
	})
}

func (r *passwordResetRepository) GetByTokenHash(hash string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.db.Where("token_hash = ?", hash).First(&reset).Error; err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) DeleteByEmail(email string) error {
	return r.db.Where("email = ?", email).Delete(&models.PasswordReset{}).Error
}

func (r *passwordResetRepository) DeleteOlderThan(cutoff time.Time) (int64, error) {
	res := r.db.Where("created_at < ?", cutoff).Delete(&models.PasswordReset{})
	return res.RowsAffected, res.Error
}
