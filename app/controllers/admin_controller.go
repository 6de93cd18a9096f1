package controllers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/lo"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/jobqueue"
	"github.com/ManuelReschke/NetPortal/internal/pkg/statistics"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/NetPortal/internal/pkg/utils"
)

const adminUsersPerPage = 20

// AdminController handles admin-related HTTP requests using repository pattern
type AdminController struct {
	repos    *repository.Repositories
	db       *gorm.DB
	mail     MailQueue
	counters CounterSnapshot
	queue    QueueStats
}

// NewAdminController creates a new admin controller with repository dependencies
func NewAdminController(d Deps) *AdminController {
	return &AdminController{
		repos:    d.Repos,
		db:       d.DB,
		mail:     d.Mail,
		counters: d.Counters,
		queue:    d.Queue,
	}
}

// adminUserRow is one line of the users table.
type adminUserRow struct {
	repository.UserWithStats
	Gravatar string
}

// HandleDashboard renders statistics, payment counters and queue depth.
func (ac *AdminController) HandleDashboard(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	data := fiber.Map{
		"Stats":        statistics.GetStatisticsData(),
		"UserStats":    ac.getLastSevenDaysStats("users"),
		"PaymentStats": ac.getLastSevenDaysStats("payments"),
	}

	if ac.counters != nil {
		if snap, err := ac.counters.Snapshot(ctx); err == nil {
			data["Counters"] = snap
		} else {
			log.Warnf("[Admin] payment counters: %v", err)
		}
	}
	if ac.queue != nil {
		queued, qerr := ac.queue.GetQueueSize(ctx)
		processing, perr := ac.queue.GetProcessingSize(ctx)
		if qerr == nil && perr == nil {
			data["Queue"] = fiber.Map{"Queued": queued, "Processing": processing}
		}
	}

	recent, err := ac.repos.Package.RecentBills(10)
	if err != nil {
		log.Errorf("[Admin] recent bills: %v", err)
	}
	data["RecentBills"] = recent

	return render(c, "admin/dashboard", "Admin Dashboard", data)
}

// HandleUsers renders the user management page. ?q= filters by name or email.
func (ac *AdminController) HandleUsers(c *fiber.Ctx) error {
	query := strings.TrimSpace(c.Query("q"))
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	var (
		users      []repository.UserWithStats
		totalPages = 1
		err        error
	)
	if query != "" {
		users, err = ac.repos.User.SearchWithStats(query)
	} else {
		var total int64
		total, err = ac.repos.User.Count()
		if err == nil {
			totalPages = int((total + adminUsersPerPage - 1) / adminUsersPerPage)
			users, err = ac.repos.User.GetWithStats((page-1)*adminUsersPerPage, adminUsersPerPage)
		}
	}
	if err != nil {
		return ac.handleError(c, "Failed to load users", err)
	}

	rows := lo.Map(users, func(u repository.UserWithStats, _ int) adminUserRow {
		return adminUserRow{UserWithStats: u, Gravatar: utils.AvatarURL(u.User.Email, 40)}
	})
	return render(c, "admin/users", "Users", fiber.Map{
		"Users":      rows,
		"Query":      query,
		"Page":       page,
		"TotalPages": totalPages,
		"Pages":      lo.RangeFrom(1, max(totalPages, 1)),
	})
}

// HandleUserEdit renders the user edit page
func (ac *AdminController) HandleUserEdit(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Redirect("/admin/users")
	}
	user, err := ac.repos.User.GetByID(id)
	if err != nil {
		return redirectWithError(c, "/admin/users", "User not found")
	}
	return render(c, "admin/user_edit", "Edit User", fiber.Map{
		"User":     user,
		"Gravatar": utils.AvatarURL(user.Email, 120),
	})
}

// HandleUserUpdate handles user update with repository pattern
func (ac *AdminController) HandleUserUpdate(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Redirect("/admin/users")
	}
	user, err := ac.repos.User.GetByID(id)
	if err != nil {
		return redirectWithError(c, "/admin/users", "User not found")
	}

	editPath := "/admin/users/edit/" + strconv.FormatUint(uint64(id), 10)
	user.Name = strings.TrimSpace(c.FormValue("name"))
	user.Email = strings.TrimSpace(c.FormValue("email"))
	user.Phone = strings.TrimSpace(c.FormValue("phone"))
	user.Role = c.FormValue("role")
	user.Status = c.FormValue("status")

	if err := formValidator.Struct(user); err != nil {
		return redirectWithError(c, editPath, firstFieldError(err))
	}
	if other, err := ac.repos.User.GetByEmail(user.Email); err == nil && other.ID != user.ID {
		return redirectWithError(c, editPath, "The email has already been taken.")
	}
	if err := ac.repos.User.Update(user); err != nil {
		log.Errorf("[Admin] update user %d: %v", id, err)
		return redirectWithError(c, editPath, "Failed to update user")
	}
	return redirectWithSuccess(c, "/admin/users", "User updated successfully")
}

// HandleUserDelete handles user deletion with repository pattern
func (ac *AdminController) HandleUserDelete(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return c.Redirect("/admin/users")
	}
	if usercontext.GetUserID(c) == id {
		return redirectWithError(c, "/admin/users", "You cannot delete your own account")
	}
	if err := ac.repos.User.Delete(id); err != nil {
		log.Errorf("[Admin] delete user %d: %v", id, err)
		return redirectWithError(c, "/admin/users", "Failed to delete user")
	}
	statistics.ResetCacheUpdateTimer()
	return redirectWithSuccess(c, "/admin/users", "User deleted successfully")
}

// handleError handles errors consistently
func (ac *AdminController) handleError(c *fiber.Ctx, message string, err error) error {
	log.Errorf("[Admin] %s: %v", message, err)
	redirectPath := "/admin"
	if c.Path() == redirectPath {
		redirectPath = "/"
	}
	return redirectWithError(c, redirectPath, message)
}

// getLastSevenDaysStats returns one entry per day, oldest first.
func (ac *AdminController) getLastSevenDaysStats(statsType string) []models.DailyStats {
	now := time.Now()
	startDate := now.AddDate(0, 0, -6).Truncate(24 * time.Hour)
	endDate := now.Truncate(24 * time.Hour).Add(24*time.Hour - time.Nanosecond)

	var (
		stats []models.DailyStats
		err   error
	)
	switch statsType {
	case "users":
		stats, err = ac.repos.User.GetDailyStats(startDate, endDate)
	case "payments":
		if ac.db == nil {
			return fillStatGaps(nil, startDate, 7)
		}
		stats, err = statistics.DailyPayments(ac.db, 7)
	}
	if err != nil {
		log.Warnf("[Admin] daily %s stats: %v", statsType, err)
		stats = nil
	}
	return fillStatGaps(stats, startDate, 7)
}

// fillStatGaps fills missing dates in stats with zero counts
func fillStatGaps(stats []models.DailyStats, startDate time.Time, days int) []models.DailyStats {
	counts := lo.Associate(stats, func(s models.DailyStats) (string, int) { return s.Date, s.Count })
	result := make([]models.DailyStats, days)
	for i := range result {
		date := startDate.AddDate(0, 0, i).Format("2006-01-02")
		result[i] = models.DailyStats{Date: date, Count: counts[date]}
	}
	return result
}

// HandleSettings renders the settings page
func (ac *AdminController) HandleSettings(c *fiber.Ctx) error {
	settings, err := ac.repos.Setting.Get()
	if err != nil {
		return ac.handleError(c, "Failed to get settings", err)
	}
	return render(c, "admin/settings", "Settings", fiber.Map{"Settings": settings})
}

// HandleSettingsUpdate handles settings update with repository pattern
func (ac *AdminController) HandleSettingsUpdate(c *fiber.Ctx) error {
	workers, _ := strconv.Atoi(c.FormValue("job_queue_worker_count"))
	workers = lo.Clamp(workers, 1, 20)

	newSettings := &models.AppSettings{
		SiteTitle:           strings.TrimSpace(c.FormValue("site_title")),
		SiteDescription:     strings.TrimSpace(c.FormValue("site_description")),
		CurrencyCode:        strings.ToUpper(strings.TrimSpace(c.FormValue("currency_code"))),
		CurrencySign:        strings.TrimSpace(c.FormValue("currency_sign")),
		JobQueueWorkerCount: workers,
	}
	if err := formValidator.Struct(newSettings); err != nil {
		return redirectWithError(c, "/admin/settings", firstFieldError(err))
	}
	if err := ac.repos.Setting.Save(newSettings); err != nil {
		log.Errorf("[Admin] save settings: %v", err)
		return redirectWithError(c, "/admin/settings", "Failed to save settings")
	}
	return redirectWithSuccess(c, "/admin/settings", "Settings Updated successfully!")
}

// stripeGateway returns the stripe row, or an unsaved one.
func (ac *AdminController) stripeGateway() (*models.PaymentGateway, error) {
	gw, err := ac.repos.Gateway.GetByKeyword(billing.ProviderStripe)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings := models.GetAppSettings()
		return &models.PaymentGateway{
			Keyword:      billing.ProviderStripe,
			Name:         "Stripe",
			CurrencyCode: settings.CurrencyCode,
			CurrencySign: settings.CurrencySign,
			Status:       true,
		}, nil
	}
	return gw, err
}

func (ac *AdminController) HandleGateways(c *fiber.Ctx) error {
	gw, err := ac.stripeGateway()
	if err != nil {
		return ac.handleError(c, "Failed to load payment gateway", err)
	}
	creds, err := gw.Credentials()
	if err != nil {
		log.Warnf("[Admin] stripe credentials unreadable: %v", err)
	}
	return render(c, "admin/gateways", "Payment Gateways", fiber.Map{
		"Gateway":     gw,
		"Credentials": creds,
	})
}

// HandleGatewaysUpdate stores the stripe credentials. Blank secret fields
// keep the stored value.
func (ac *AdminController) HandleGatewaysUpdate(c *fiber.Ctx) error {
	gw, err := ac.stripeGateway()
	if err != nil {
		return ac.handleError(c, "Failed to load payment gateway", err)
	}
	creds, _ := gw.Credentials()

	key := strings.TrimSpace(c.FormValue("stripe_key"))
	if key == "" {
		return redirectWithError(c, "/admin/gateways", "The stripe key field is required.")
	}
	creds.Key = key
	if secret := strings.TrimSpace(c.FormValue("stripe_secret")); secret != "" {
		creds.Secret = secret
	}
	if whsec := strings.TrimSpace(c.FormValue("stripe_webhook_secret")); whsec != "" {
		creds.WebhookSecret = whsec
	}
	if creds.Secret == "" {
		return redirectWithError(c, "/admin/gateways", "The stripe secret field is required.")
	}
	gw.Status = c.FormValue("status") == "on"
	if err := gw.SetCredentials(creds); err != nil {
		return ac.handleError(c, "Failed to encode credentials", err)
	}
	if err := ac.repos.Gateway.Save(gw); err != nil {
		log.Errorf("[Admin] save stripe gateway: %v", err)
		return redirectWithError(c, "/admin/gateways", "Failed to save payment gateway")
	}
	return redirectWithSuccess(c, "/admin/gateways", "Payment Gateway Updated successfully!")
}

func (ac *AdminController) HandleEmailSettings(c *fiber.Ctx) error {
	es, err := ac.repos.Gateway.GetEmailSetting()
	if err != nil {
		return ac.handleError(c, "Failed to load email settings", err)
	}
	return render(c, "admin/email", "Email Settings", fiber.Map{"Email": es})
}

func (ac *AdminController) HandleEmailSettingsUpdate(c *fiber.Ctx) error {
	es, err := ac.repos.Gateway.GetEmailSetting()
	if err != nil {
		return ac.handleError(c, "Failed to load email settings", err)
	}

	port, err := strconv.Atoi(strings.TrimSpace(c.FormValue("smtp_port", "587")))
	if err != nil {
		return redirectWithError(c, "/admin/email", "The smtp port must be a number.")
	}
	es.IsSMTP = c.FormValue("is_smtp") == "on"
	es.SMTPHost = strings.TrimSpace(c.FormValue("smtp_host"))
	es.SMTPPort = port
	es.SMTPUser = strings.TrimSpace(c.FormValue("smtp_user"))
	if pass := c.FormValue("smtp_pass"); pass != "" {
		es.SMTPPass = pass
	}
	es.EmailEncryption = c.FormValue("email_encryption", "tls")
	es.FromEmail = strings.TrimSpace(c.FormValue("from_email"))
	es.FromName = strings.TrimSpace(c.FormValue("from_name"))

	if err := formValidator.Struct(es); err != nil {
		return redirectWithError(c, "/admin/email", firstFieldError(err))
	}
	if err := ac.repos.Gateway.SaveEmailSetting(es); err != nil {
		log.Errorf("[Admin] save email settings: %v", err)
		return redirectWithError(c, "/admin/email", "Failed to save email settings")
	}
	return redirectWithSuccess(c, "/admin/email", "Email Settings Updated successfully!")
}

type groupEmailForm struct {
	Audience string `json:"audience" validate:"required,oneof=all active"`
	Subject  string `json:"subject" validate:"required,max=255"`
	Message  string `json:"message" validate:"required"`
}

func (ac *AdminController) HandleGroupEmail(c *fiber.Ctx) error {
	return render(c, "admin/group_email", "Group Email", fiber.Map{
		"Audiences": []string{jobqueue.AudienceAll, jobqueue.AudienceActive},
	})
}

// HandleGroupEmailSend queues the mail. Recipients are resolved by the worker.
func (ac *AdminController) HandleGroupEmailSend(c *fiber.Ctx) error {
	form := groupEmailForm{
		Audience: c.FormValue("audience"),
		Subject:  strings.TrimSpace(c.FormValue("subject")),
		Message:  c.FormValue("message"),
	}
	if err := formValidator.Struct(form); err != nil {
		return redirectWithError(c, "/admin/group-email", firstFieldError(err))
	}
	if err := ac.mail.EnqueueGroup(form.Audience, form.Subject, form.Message); err != nil {
		log.Errorf("[Admin] queue group email: %v", err)
		return redirectWithError(c, "/admin/group-email", "Failed to queue the email")
	}
	return redirectWithSuccess(c, "/admin/group-email", "Mail Sent Successfully!")
}
