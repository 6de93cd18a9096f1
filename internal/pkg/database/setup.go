package database

import (
	"fmt"
	"log"
	"time"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const maxRetries = 5
const retryDelay = 5 * time.Second

// DB is the process wide connection set up by SetupDatabase.
var DB *gorm.DB

func GetDB() *gorm.DB {
	return DB
}

// Open connects to the given driver without migrating. Supported drivers
// are "mysql" and "sqlite"; for sqlite the dsn is a file path or
// "file::memory:?cache=shared".
func Open(driver, dsn string) (*gorm.DB, error) {
	// Driver errors are translated so callers can match gorm.ErrDuplicatedKey.
	cfg := &gorm.Config{TranslateError: true}
	if !env.IsDev() {
		cfg.Logger = logger.Default.LogMode(logger.Warn)
	}

	switch driver {
	case "mysql":
		return gorm.Open(mysql.New(mysql.Config{
			DSN:                       dsn,
			DefaultStringSize:         256,
			DisableDatetimePrecision:  true,
			DontSupportRenameIndex:    true,
			DontSupportRenameColumn:   true,
			SkipInitializeWithVersion: false,
		}), cfg)
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate creates or updates all portal tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.SubscriberAccount{},
		&models.BindingLink{},
		&models.BindingEvent{},
		&models.Package{},
		&models.PackageOrder{},
		&models.BillPaid{},
		&models.PaymentGateway{},
		&models.EmailSetting{},
		&models.BillingWebhookEvent{},
		&models.PersonalAccessToken{},
		&models.PasswordReset{},
		&models.Setting{},
		&models.Language{},
		&models.BlogCategory{},
		&models.Blog{},
		&models.Faq{},
		&models.Branch{},
		&models.Media{},
		&models.Offer{},
		&models.SectionTitle{},
		&models.ShippingMethod{},
		&models.Funfact{},
		&models.Footer{},
	)
}

func dsnFromEnv() (string, string) {
	driver := env.GetEnv("DB_DRIVER", "mysql")
	if driver == "sqlite" {
		return driver, env.GetEnv("DB_PATH", "netportal.db")
	}
	// "user:pass@tcp(127.0.0.1:3306)/dbname?charset=utf8mb4&parseTime=True&loc=Local"
	return driver, fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		env.GetEnv("DB_USER", ""),
		env.GetEnv("DB_PASSWORD", ""),
		env.GetEnv("DB_HOST", "127.0.0.1"),
		env.GetEnv("DB_PORT", "3306"),
		env.GetEnv("DB_NAME", ""),
	)
}

func SetupDatabase() {
	var err error
	driver, dsn := dsnFromEnv()

	for i := 0; i < maxRetries; i++ {
		DB, err = Open(driver, dsn)
		if err == nil {
			if err = Migrate(DB); err != nil {
				log.Printf("Auto migration failed: %v", err)
			}
			return
		}

		log.Printf("Failed to connect to database (try %d/%d): %v", i+1, maxRetries, err)
		if i < maxRetries-1 {
			log.Printf("Retry in %v...", retryDelay)
			time.Sleep(retryDelay)
		}
	}

	if err != nil {
		panic(err)
	}
}
