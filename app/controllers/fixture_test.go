package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
	"github.com/ManuelReschke/NetPortal/internal/pkg/binding"
	"github.com/ManuelReschke/NetPortal/internal/pkg/database"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
)

// testViews are minimal stand-ins for the real templates.
var testViews = fstest.MapFS{
	"layouts/main.html":        {Data: []byte(`{{embed}}`)},
	"payment/success.html":     {Data: []byte(`paid {{.Kind}} {{.PackageName}} {{.InvoiceURL}}`)},
	"admin/content/index.html": {Data: []byte(`{{.Label}}{{range .Rows}}|{{range .Cells}}{{.}};{{end}}{{end}}`)},
	"admin/content/form.html":  {Data: []byte(`{{.Action}}{{range .Fields}}|{{.Name}}={{.Value}}{{end}}`)},
}

type fakeMail struct {
	sent   []string
	groups []string
}

func (m *fakeMail) Enqueue(to, subject, _ string) error {
	m.sent = append(m.sent, to+":"+subject)
	return nil
}

func (m *fakeMail) EnqueueGroup(audience, subject, _ string) error {
	m.groups = append(m.groups, audience+":"+subject)
	return nil
}

type stubGateway struct {
	tokenErr  error
	chargeErr error
	charges   []billing.ChargeRequest
}

func (g *stubGateway) Tokenize(_ context.Context, _ billing.Card) (string, error) {
	if g.tokenErr != nil {
		return "", g.tokenErr
	}
	return "tok_test", nil
}

func (g *stubGateway) Charge(_ context.Context, req billing.ChargeRequest) (*billing.ChargeResult, error) {
	g.charges = append(g.charges, req)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return &billing.ChargeResult{ChargeID: "ch_test", TxnID: "txn_test", Status: "succeeded"}, nil
}

type ctrlFixture struct {
	db      *gorm.DB
	repos   *repository.Repositories
	gateway *stubGateway
	mail    *fakeMail
	deps    Deps
	user    *models.User
	pkg     *models.Package
}

func newCtrlFixture(t *testing.T) *ctrlFixture {
	t.Helper()
	db, err := database.OpenMemory()
	require.NoError(t, err)
	repos := repository.NewRepositories(db)

	user, err := models.CreateUser("Jane Doe", "jane@example.com", "secret123")
	require.NoError(t, err)
	require.NoError(t, repos.User.Create(user))

	pkg := &models.Package{Name: "Premium Home", Speed: "50 Mbps", Price: decimal.RequireFromString("50.00"), Status: true}
	require.NoError(t, db.Create(pkg).Error)

	bindRepo := binding.NewRepository(db)
	gw := &stubGateway{}
	invoices := billing.NewFileInvoiceStore(t.TempDir())
	mail := &fakeMail{}

	f := &ctrlFixture{db: db, repos: repos, gateway: gw, mail: mail, user: user, pkg: pkg}
	f.deps = Deps{
		Repos:    repos,
		Bindings: binding.NewService(bindRepo, binding.NewPackageNamer(bindRepo.FindPackageNameBySpeed, nil, binding.DefaultBusinessThreshold)),
		Billing:  billing.NewService(billing.NewRepository(db), billing.StaticGateway(gw), invoices),
		Invoices: invoices,
		Mail:     mail,
		DB:       db,
		Secret:   "test-secret",
		TokenTTL: time.Hour,
	}
	return f
}

// app returns a Fiber app whose requests run as user. A nil user makes
// requests anonymous.
func (f *ctrlFixture) app(user *models.User, routes func(app *fiber.App)) *fiber.App {
	app := fiber.New(fiber.Config{Views: html.NewFileSystem(http.FS(testViews), ".html")})
	app.Use(func(c *fiber.Ctx) error {
		if user != nil {
			usercontext.Set(c, usercontext.UserContext{
				UserID:     user.ID,
				Username:   user.Name,
				IsLoggedIn: true,
				IsAdmin:    user.IsAdmin(),
			})
		}
		return c.Next()
	})
	routes(app)
	return app
}

func (f *ctrlFixture) account(t *testing.T, accountID, password string) *models.SubscriberAccount {
	t.Helper()
	a := &models.SubscriberAccount{
		AccountID:   accountID,
		MbtUserID:   "M-" + accountID,
		Password:    password,
		UserName:    accountID,
		Bandwidth:   "30 Mbps",
		MonthlyCost: decimal.NewFromInt(1500),
	}
	require.NoError(t, f.db.Create(a).Error)
	return a
}

func (f *ctrlFixture) language(t *testing.T, code string, isDefault bool) *models.Language {
	t.Helper()
	l := &models.Language{Name: strings.ToUpper(code), Code: code, IsDefault: isDefault}
	require.NoError(t, f.db.Create(l).Error)
	return l
}

func postForm(t *testing.T, app *fiber.App, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func doJSON(t *testing.T, app *fiber.App, method, path, body string) *http.Response {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}
