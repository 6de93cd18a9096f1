package models

import "time"

const passwordResetTTL = time.Hour

// PasswordReset stores the hash of a reset token mailed to the user.
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"type:varchar(200);index;not null" json:"email"`
	TokenHash string    `gorm:"type:char(64);uniqueIndex;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// NewPasswordReset returns an unsaved reset row and the plain token to mail.
func NewPasswordReset(email string) (*PasswordReset, string, error) {
	token, err := randomHex(32)
	if err != nil {
		return nil, "", err
	}
	return &PasswordReset{Email: email, TokenHash: HashAccessToken(token)}, token, nil
}

func (p *PasswordReset) Expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) > passwordResetTTL
}
