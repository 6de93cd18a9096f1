package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/controllers"
	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/binding"
	"github.com/ManuelReschke/NetPortal/internal/pkg/cache"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/ManuelReschke/NetPortal/internal/pkg/jobqueue"
	"github.com/ManuelReschke/NetPortal/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/NetPortal/internal/pkg/router"
	"github.com/ManuelReschke/NetPortal/internal/pkg/s3backup"
	"github.com/ManuelReschke/NetPortal/internal/pkg/session"
)

func main() {
	app := NewApplication()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		jobqueue.GetManager().Stop()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	session.NewSessionStore()

	db := database.GetDB()
	if err := models.LoadSettings(db); err != nil {
		log.Printf("Failed to load settings, using defaults: %v", err)
	}
	repository.InitializeFactory(db)

	basePath := findBasePath()

	// background jobs: group email, invoice archive, cron maintenance
	manager := jobqueue.GetManager()
	configureArchive(manager.GetQueue())
	manager.Start()

	wireControllers(db, basePath)

	// init fiber app
	app := fiber.New(fiber.Config{
		Views:     html.New(basePath+"views", ".html"),
		BodyLimit: 10 * 1024 * 1024, // icon and logo uploads only
	})

	// ignore favicon requests
	app.Use(favicon.New())

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "change-me"),
		},
	}), monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// admin icons and logos; invoices are served through signed links only
	app.Static("/uploads/icons", basePath+"uploads/icons", fiber.Static{MaxAge: 604800})
	app.Static("/uploads/logos", basePath+"uploads/logos", fiber.Static{MaxAge: 604800})

	// SWAGGER / OPENAPI
	app.Use(swagger.New(swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}))

	// ROUTER
	router.InstallRouter(app)

	return app
}

// findBasePath locates the project root from the working directory.
func findBasePath() string {
	for _, path := range []string{"./", "../../", "../../../"} {
		if _, err := os.Stat(path + "views"); err == nil {
			return path
		}
	}
	panic("Could not find project root directory")
}

// configureArchive attaches the S3 invoice archive to the queue when enabled.
func configureArchive(q *jobqueue.Queue) {
	cfg, err := s3backup.LoadConfig()
	if err != nil {
		log.Printf("Invoice archive disabled: %v", err)
		return
	}
	if !cfg.IsEnabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	client, err := s3backup.NewClient(ctx, cfg)
	if err != nil {
		log.Printf("Invoice archive disabled: %v", err)
		return
	}
	q.SetArchiver(client)
}

func wireControllers(db *gorm.DB, basePath string) {
	settings := models.GetAppSettings()
	invoiceDir := env.GetEnv("INVOICE_DIR", basePath+"storage/invoices")

	billingService := billing.NewServiceFromDB(db, invoiceDir,
		billing.WithArchiver(jobqueue.NewQueuedArchiver(jobqueue.GetManager().GetQueue())),
		billing.WithNotifier(jobqueue.NewQueuedNotifier(jobqueue.GetManager().GetQueue())),
		billing.WithCounters(counter.Default()),
		billing.WithCurrency(settings.CurrencyCode, settings.CurrencySign),
		billing.WithSiteTitle(settings.GetSiteTitle()),
	)

	secret := env.GetEnv("APP_KEY", "")
	if secret == "" {
		if !env.IsDev() {
			panic("APP_KEY must be set")
		}
		secret = "netportal-dev-key"
	}

	controllers.Initialize(controllers.Deps{
		Repos:    repository.GetGlobalFactory().GetRepositories(),
		Bindings: binding.NewService(binding.NewRepository(db), nil),
		Billing:  billingService,
		Invoices: billing.NewFileInvoiceStore(invoiceDir),
		Mail:     controllers.JobQueueMail{},
		Counters: counter.Default(),
		Queue:    jobqueue.GetManager().GetQueue(),
		DB:       db,
		Secret:   secret,
	})
}
