package controllers

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/binding"
	"github.com/ManuelReschke/NetPortal/internal/pkg/jobqueue"
)

// MailQueue queues outgoing mail.
type MailQueue interface {
	Enqueue(to, subject, htmlBody string) error
	EnqueueGroup(audience, subject, htmlBody string) error
}

// CounterSnapshot reads payment outcome counters.
type CounterSnapshot interface {
	Snapshot(ctx context.Context) (map[string]int64, error)
}

// QueueStats reports background queue depth.
type QueueStats interface {
	GetQueueSize(ctx context.Context) (int64, error)
	GetProcessingSize(ctx context.Context) (int64, error)
}

// Deps are the collaborators shared by all controllers.
type Deps struct {
	Repos    *repository.Repositories
	Bindings *binding.Service
	Billing  *billing.Service
	Invoices *billing.FileInvoiceStore
	Mail     MailQueue
	Counters CounterSnapshot
	Queue    QueueStats
	// DB backs the admin payment charts.
	DB *gorm.DB
	// Secret signs invoice download tokens.
	Secret   string
	TokenTTL time.Duration
}

// JobQueueMail sends mail through the background job queue.
type JobQueueMail struct{}

func (JobQueueMail) Enqueue(to, subject, htmlBody string) error {
	_, err := jobqueue.EnqueueEmail(to, subject, htmlBody)
	return err
}

func (JobQueueMail) EnqueueGroup(audience, subject, htmlBody string) error {
	_, err := jobqueue.EnqueueGroupEmail(audience, subject, htmlBody)
	return err
}

var (
	authController         *AuthController
	apiAuthController      *APIAuthController
	bindingAPIController   *BindingAPIController
	userController         *UserController
	paymentController      *PaymentController
	webhookController      *WebhookController
	adminController        *AdminController
	adminContentController *AdminContentController
)

// Initialize builds the global controller instances used by the router.
func Initialize(d Deps) {
	if d.TokenTTL == 0 {
		d.TokenTTL = 90 * 24 * time.Hour
	}
	authController = NewAuthController(d)
	apiAuthController = NewAPIAuthController(d)
	bindingAPIController = NewBindingAPIController(d)
	userController = NewUserController(d)
	paymentController = NewPaymentController(d)
	webhookController = NewWebhookController(d)
	adminController = NewAdminController(d)
	adminContentController = NewAdminContentController(d)
}

func GetAuthController() *AuthController             { return authController }
func GetAPIAuthController() *APIAuthController       { return apiAuthController }
func GetBindingAPIController() *BindingAPIController { return bindingAPIController }
func GetUserController() *UserController             { return userController }
func GetPaymentController() *PaymentController       { return paymentController }
func GetWebhookController() *WebhookController       { return webhookController }
func GetAdminController() *AdminController           { return adminController }
func GetAdminContentController() *AdminContentController {
	return adminContentController
}
