package models

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Setting is one key/value row of the portal configuration.
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:191;not null;uniqueIndex" json:"key" validate:"required,min=1,max=191"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, integer
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings is the in-memory view of the settings table.
type AppSettings struct {
	SiteTitle           string `json:"site_title" validate:"required,min=1,max=255"`
	SiteDescription     string `json:"site_description" validate:"max=500"`
	CurrencyCode        string `json:"currency_code" validate:"required,len=3"`
	CurrencySign        string `json:"currency_sign" validate:"required,max=5"`
	JobQueueWorkerCount int    `json:"job_queue_worker_count" validate:"min=1,max=20"`
	mu                  sync.RWMutex
}

var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// DefaultAppSettings returns the settings used before anything is stored.
func DefaultAppSettings() *AppSettings {
	return &AppSettings{
		SiteTitle:           "NetPortal",
		SiteDescription:     "Broadband subscriber portal",
		CurrencyCode:        "USD",
		CurrencySign:        "$",
		JobQueueWorkerCount: 3,
	}
}

// GetAppSettings returns the current application settings, never nil.
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	if appSettings == nil {
		return DefaultAppSettings()
	}
	return appSettings
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	loaded := DefaultAppSettings()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, setting := range settings {
		switch setting.Key {
		case "site_title":
			loaded.SiteTitle = setting.Value
		case "site_description":
			loaded.SiteDescription = setting.Value
		case "currency_code":
			loaded.CurrencyCode = strings.ToUpper(setting.Value)
		case "currency_sign":
			loaded.CurrencySign = setting.Value
		case "job_queue_worker_count":
			if n, err := strconv.Atoi(setting.Value); err == nil && n > 0 {
				loaded.JobQueueWorkerCount = n
			}
		}
	}

	appSettings = loaded
	return nil
}

// SaveSettings validates settings, upserts every key in one transaction and
// then makes them the in-memory settings.
func SaveSettings(db *gorm.DB, settings *AppSettings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	rows := []Setting{
		{Key: "site_title", Value: settings.SiteTitle},
		{Key: "site_description", Value: settings.SiteDescription},
		{Key: "currency_code", Value: strings.ToUpper(settings.CurrencyCode)},
		{Key: "currency_sign", Value: settings.CurrencySign},
		{Key: "job_queue_worker_count", Value: strconv.Itoa(settings.JobQueueWorkerCount)},
	}
	for i := range rows {
		rows[i].Type = getSettingType(rows[i].Key)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "type", "updated_at"}),
		}).Create(&rows).Error
	})
	if err != nil {
		return fmt.Errorf("store settings: %w", err)
	}

	settingsMu.Lock()
	appSettings = settings
	settingsMu.Unlock()
	return nil
}

func getSettingType(key string) string {
	if key == "job_queue_worker_count" {
		return "integer"
	}
	return "string"
}

// Validate validates the settings
func (s *AppSettings) Validate() error {
	validate := validator.New()
	return validate.Struct(s)
}

func (s *AppSettings) GetSiteTitle() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.SiteTitle
}

// GetCurrency returns the ISO code and display sign used for charges.
func (s *AppSettings) GetCurrency() (code string, sign string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CurrencyCode, s.CurrencySign
}

func (s *AppSettings) GetJobQueueWorkerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.JobQueueWorkerCount
}
