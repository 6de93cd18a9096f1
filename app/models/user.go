package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_INACTIVE = "inactive"
	STATUS_DISABLED = "disabled"
)

// User is a portal customer or administrator. BindUserID points at the
// primary SubscriberAccount, ActivePackageID at the last paid package.
type User struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email           string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,min=5,max=200"`
	Phone           string         `gorm:"type:varchar(50);default:''" json:"phone" validate:"max=50"`
	Password        string         `gorm:"type:text" json:"-" validate:"required,min=6"`
	Role            string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status          string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	BindUserID      *uint          `gorm:"index" json:"bind_user_id"`
	ActivePackageID *uint          `gorm:"index" json:"active_package_id"`
	SubCompany      string         `gorm:"type:varchar(150);default:''" json:"sub_company"`
	LastLoginAt     *time.Time     `gorm:"default:null" json:"last_login_at"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

var userValidator = validator.New()

func (u *User) Validate() error {
	return userValidator.Struct(u)
}

// CreateUser builds an active customer with a hashed password. It does not
// persist the user.
func CreateUser(name, email, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &User{Name: name, Email: email, Password: hash, Role: ROLE_USER, Status: STATUS_ACTIVE}
	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(hash), err
}

func (u *User) IsActive() bool { return u.Status == STATUS_ACTIVE }

func (u *User) IsAdmin() bool { return u.Role == ROLE_ADMIN }

// HasPrimaryBinding reports whether a primary subscriber account is set.
func (u *User) HasPrimaryBinding() bool {
	return u.BindUserID != nil && *u.BindUserID != 0
}

// CheckPassword compares password with the stored bcrypt hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
