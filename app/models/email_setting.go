package models

import "time"

// EmailSetting is the single row of outbound mail configuration.
type EmailSetting struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	IsSMTP          bool      `gorm:"column:is_smtp;default:false" json:"is_smtp"`
	SMTPHost        string    `gorm:"column:smtp_host;type:varchar(191)" json:"smtp_host" validate:"required_if=IsSMTP true"`
	SMTPPort        int       `gorm:"column:smtp_port;default:587" json:"smtp_port" validate:"omitempty,min=1,max=65535"`
	SMTPUser        string    `gorm:"column:smtp_user;type:varchar(191)" json:"smtp_user"`
	SMTPPass        string    `gorm:"column:smtp_pass;type:varchar(191)" json:"-"`
	EmailEncryption string    `gorm:"type:varchar(10)" json:"email_encryption" validate:"omitempty,oneof=tls ssl none"`
	FromEmail       string    `gorm:"type:varchar(191)" json:"from_email" validate:"omitempty,email"`
	FromName        string    `gorm:"type:varchar(191)" json:"from_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
