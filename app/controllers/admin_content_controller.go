package controllers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/imageprocessor"
	"github.com/ManuelReschke/NetPortal/internal/pkg/upload"
	"github.com/ManuelReschke/NetPortal/internal/pkg/utils"
)

// formError carries a message that is shown to the admin as is.
type formError string

func (e formError) Error() string { return string(e) }

func formMessage(err error) string {
	var fe formError
	if errors.As(err, &fe) {
		return string(fe)
	}
	return firstFieldError(err)
}

// contentField describes one input of the shared admin form.
type contentField struct {
	Name     string
	Label    string
	Type     string // text, textarea, number, checkbox, file
	Required bool
	Value    string
	Checked  bool
}

type uniqueRule[T any] struct {
	column  string
	value   func(*T) string
	message string
}

// contentResource wires one content model into the shared CRUD pages.
type contentResource[T any] struct {
	label    string
	slug     string
	repo     repository.ContentRepository[T]
	langs    repository.LanguageRepository
	columns  []string
	id       func(*T) uint
	row      func(*T) []string
	fields   []contentField
	values   func(*T) map[string]string
	setLang  func(*T, uint)
	fill     func(c *fiber.Ctx, item *T, creating bool) error
	unique   []uniqueRule[T]
	onDelete func(*T)
	// extra adds template data to the index page.
	extra func(lang *models.Language) fiber.Map
}

type contentRow struct {
	ID    uint
	Cells []string
}

// ContentHandler is the type erased view of a contentResource.
type ContentHandler interface {
	Slug() string
	Index(c *fiber.Ctx) error
	Create(c *fiber.Ctx) error
	Store(c *fiber.Ctx) error
	Edit(c *fiber.Ctx) error
	Update(c *fiber.Ctx) error
	Delete(c *fiber.Ctx) error
}

func (r *contentResource[T]) Slug() string { return r.slug }

func (r *contentResource[T]) base() string { return "/admin/" + r.slug }

func (r *contentResource[T]) withLang(path string, lang *models.Language) string {
	return path + "?language=" + url.QueryEscape(lang.Code)
}

func (r *contentResource[T]) Index(c *fiber.Ctx) error {
	lang, langs, err := resolveLanguage(c, r.langs)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	items, err := r.repo.ListByLanguage(lang.ID)
	if err != nil {
		log.Errorf("[Content] list %s: %v", r.slug, err)
		return redirectWithError(c, "/admin", "Failed to load "+strings.ToLower(r.label)+" entries")
	}
	rows := make([]contentRow, len(items))
	for i := range items {
		rows[i] = contentRow{ID: r.id(&items[i]), Cells: r.row(&items[i])}
	}
	data := fiber.Map{
		"Label":     r.label,
		"Base":      r.base(),
		"Columns":   r.columns,
		"Rows":      rows,
		"Language":  lang,
		"Languages": langs,
	}
	if r.extra != nil {
		for k, v := range r.extra(lang) {
			data[k] = v
		}
	}
	return render(c, "admin/content/index", r.label, data)
}

func (r *contentResource[T]) form(c *fiber.Ctx, lang *models.Language, action string, values map[string]string) error {
	fields := make([]contentField, len(r.fields))
	for i, f := range r.fields {
		f.Value = values[f.Name]
		f.Checked = f.Type == "checkbox" && values[f.Name] == "1"
		fields[i] = f
	}
	return render(c, "admin/content/form", r.label, fiber.Map{
		"Label":     r.label,
		"Base":      r.withLang(r.base(), lang),
		"Action":    r.withLang(action, lang),
		"Fields":    fields,
		"Multipart": hasFileField(fields),
		"Language":  lang,
	})
}

func hasFileField(fields []contentField) bool {
	for _, f := range fields {
		if f.Type == "file" {
			return true
		}
	}
	return false
}

func (r *contentResource[T]) Create(c *fiber.Ctx) error {
	lang, _, err := resolveLanguage(c, r.langs)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	return r.form(c, lang, r.base()+"/store", map[string]string{"status": "1"})
}

func (r *contentResource[T]) Store(c *fiber.Ctx) error {
	lang, _, err := resolveLanguage(c, r.langs)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	back := r.withLang(r.base()+"/create", lang)

	item := new(T)
	r.setLang(item, lang.ID)
	if err := r.fill(c, item, true); err != nil {
		return redirectWithError(c, back, formMessage(err))
	}
	if msg := r.checkUnique(item, 0); msg != "" {
		return redirectWithError(c, back, msg)
	}
	if err := r.repo.Create(item); err != nil {
		log.Errorf("[Content] create %s: %v", r.slug, err)
		return redirectWithError(c, back, "Failed to save "+strings.ToLower(r.label))
	}
	return redirectWithSuccess(c, r.withLang(r.base(), lang), r.label+" Added successfully!")
}

func (r *contentResource[T]) Edit(c *fiber.Ctx) error {
	lang, _, err := resolveLanguage(c, r.langs)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	item, ok := r.find(c)
	if !ok {
		return redirectWithError(c, r.withLang(r.base(), lang), r.label+" not found")
	}
	return r.form(c, lang, fmt.Sprintf("%s/update/%d", r.base(), r.id(item)), r.values(item))
}

func (r *contentResource[T]) Update(c *fiber.Ctx) error {
	lang, _, err := resolveLanguage(c, r.langs)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	item, ok := r.find(c)
	if !ok {
		return redirectWithError(c, r.withLang(r.base(), lang), r.label+" not found")
	}
	id := r.id(item)
	back := r.withLang(fmt.Sprintf("%s/edit/%d", r.base(), id), lang)

	if err := r.fill(c, item, false); err != nil {
		return redirectWithError(c, back, formMessage(err))
	}
	if msg := r.checkUnique(item, id); msg != "" {
		return redirectWithError(c, back, msg)
	}
	if err := r.repo.Update(item); err != nil {
		log.Errorf("[Content] update %s %d: %v", r.slug, id, err)
		return redirectWithError(c, back, "Failed to save "+strings.ToLower(r.label))
	}
	return redirectWithSuccess(c, r.withLang(r.base(), lang), r.label+" Updated successfully!")
}

func (r *contentResource[T]) Delete(c *fiber.Ctx) error {
	lang, _, err := resolveLanguage(c, r.langs)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	index := r.withLang(r.base(), lang)
	item, ok := r.find(c)
	if !ok {
		return redirectWithError(c, index, r.label+" not found")
	}
	if err := r.repo.Delete(r.id(item)); err != nil {
		log.Errorf("[Content] delete %s: %v", r.slug, err)
		return redirectWithError(c, index, "Failed to delete "+strings.ToLower(r.label))
	}
	if r.onDelete != nil {
		r.onDelete(item)
	}
	return redirectWithSuccess(c, index, r.label+" Deleted successfully!")
}

func (r *contentResource[T]) find(c *fiber.Ctx) (*T, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}
	item, err := r.repo.GetByID(id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Content] get %s %d: %v", r.slug, id, err)
		}
		return nil, false
	}
	return item, true
}

func (r *contentResource[T]) checkUnique(item *T, id uint) string {
	for _, rule := range r.unique {
		taken, err := r.repo.ExistsExcept(rule.column, rule.value(item), id)
		if err != nil {
			log.Errorf("[Content] unique %s.%s: %v", r.slug, rule.column, err)
			return "Failed to save " + strings.ToLower(r.label)
		}
		if taken {
			return rule.message
		}
	}
	return ""
}

// resolveLanguage picks ?language=code, then the form value, then the
// default language.
func resolveLanguage(c *fiber.Ctx, langs repository.LanguageRepository) (*models.Language, []models.Language, error) {
	all, err := langs.List()
	if err != nil {
		return nil, nil, err
	}
	code := c.Query("language")
	if code == "" {
		code = c.FormValue("language")
	}
	if code != "" {
		if lang, err := langs.GetByCode(code); err == nil {
			return lang, all, nil
		}
	}
	lang, err := langs.Default()
	return lang, all, err
}

func formBool(c *fiber.Ctx, name string) bool {
	v := c.FormValue(name)
	return v == "1" || v == "on" || v == "true"
}

func boolValue(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func statusLabel(b bool) string {
	if b {
		return "Publish"
	}
	return "Unpublish"
}

// AdminContentController serves the CRUD pages of the public site content.
type AdminContentController struct {
	repos     *repository.Repositories
	resources []ContentHandler
	iconsDir  string
	logosDir  string
}

func NewAdminContentController(d Deps) *AdminContentController {
	ac := &AdminContentController{
		repos:    d.Repos,
		iconsDir: imageprocessor.IconsDir,
		logosDir: imageprocessor.LogosDir,
	}
	ac.resources = []ContentHandler{
		ac.blogCategories(),
		ac.faqs(),
		ac.branches(),
		ac.offers(),
		ac.shippingMethods(),
		ac.medias(),
		ac.funfacts(),
	}
	return ac
}

// Resources lists the CRUD resources for route registration.
func (ac *AdminContentController) Resources() []ContentHandler {
	return ac.resources
}

// storeImage processes an optional upload and returns the stored file name,
// or "" when the field was left empty.
func (ac *AdminContentController) storeImage(c *fiber.Ctx, field, dir string, maxW, maxH int) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil || fh == nil || fh.Size == 0 {
		return "", nil
	}
	f, err := upload.OpenImage(fh)
	if err != nil {
		return "", formError(err.Error())
	}
	defer f.Close()

	v, err := imageprocessor.ProcessUpload(f, dir, maxW, maxH)
	if err != nil {
		log.Warnf("[Content] process %s: %v", field, err)
		return "", formError("The image could not be processed.")
	}
	return v.File, nil
}

// replaceIcon stores a new icon and drops the previous one.
func (ac *AdminContentController) replaceIcon(c *fiber.Ctx, current *string, required bool) error {
	file, err := ac.storeImage(c, "icon", ac.iconsDir, imageprocessor.MaxIconSize, imageprocessor.MaxIconSize)
	if err != nil {
		return err
	}
	if file == "" {
		if required && *current == "" {
			return formError("The icon field is required.")
		}
		return nil
	}
	imageprocessor.Remove(ac.iconsDir, *current)
	*current = file
	return nil
}

func (ac *AdminContentController) blogCategories() *contentResource[models.BlogCategory] {
	return &contentResource[models.BlogCategory]{
		label:   "Blog Category",
		slug:    "blog-categories",
		repo:    ac.repos.BlogCategory,
		langs:   ac.repos.Language,
		columns: []string{"Name", "Slug", "Status"},
		id:      func(m *models.BlogCategory) uint { return m.ID },
		row: func(m *models.BlogCategory) []string {
			return []string{m.Name, m.Slug, statusLabel(m.Status)}
		},
		fields: []contentField{
			{Name: "name", Label: "Name", Type: "text", Required: true},
			{Name: "status", Label: "Published", Type: "checkbox"},
		},
		values: func(m *models.BlogCategory) map[string]string {
			return map[string]string{"name": m.Name, "status": boolValue(m.Status)}
		},
		setLang: func(m *models.BlogCategory, id uint) { m.LanguageID = id },
		fill: func(c *fiber.Ctx, m *models.BlogCategory, _ bool) error {
			m.Name = strings.TrimSpace(c.FormValue("name"))
			m.Slug = utils.MakeSlug(m.Name)
			m.Status = formBool(c, "status")
			return m.Validate()
		},
		unique: []uniqueRule[models.BlogCategory]{
			{column: "name", value: func(m *models.BlogCategory) string { return m.Name }, message: "The name has already been taken."},
			{column: "slug", value: func(m *models.BlogCategory) string { return m.Slug }, message: "Title already taken!"},
		},
	}
}

func (ac *AdminContentController) faqs() *contentResource[models.Faq] {
	return &contentResource[models.Faq]{
		label:   "Faq",
		slug:    "faqs",
		repo:    ac.repos.Faq,
		langs:   ac.repos.Language,
		columns: []string{"Title", "Serial", "Status"},
		id:      func(m *models.Faq) uint { return m.ID },
		row: func(m *models.Faq) []string {
			return []string{m.Title, strconv.Itoa(m.Serial), statusLabel(m.Status)}
		},
		fields: []contentField{
			{Name: "title", Label: "Title", Type: "text", Required: true},
			{Name: "content", Label: "Content", Type: "textarea", Required: true},
			{Name: "serial", Label: "Serial", Type: "number"},
			{Name: "status", Label: "Published", Type: "checkbox"},
		},
		values: func(m *models.Faq) map[string]string {
			return map[string]string{
				"title":   m.Title,
				"content": m.Content,
				"serial":  strconv.Itoa(m.Serial),
				"status":  boolValue(m.Status),
			}
		},
		setLang: func(m *models.Faq, id uint) { m.LanguageID = id },
		fill: func(c *fiber.Ctx, m *models.Faq, _ bool) error {
			m.Title = strings.TrimSpace(c.FormValue("title"))
			m.Content = strings.TrimSpace(c.FormValue("content"))
			m.Serial, _ = strconv.Atoi(c.FormValue("serial", "0"))
			m.Status = formBool(c, "status")
			return m.Validate()
		},
	}
}

func (ac *AdminContentController) branches() *contentResource[models.Branch] {
	return &contentResource[models.Branch]{
		label:   "Branch",
		slug:    "branches",
		repo:    ac.repos.Branch,
		langs:   ac.repos.Language,
		columns: []string{"Branch", "Manager", "Phone", "Email"},
		id:      func(m *models.Branch) uint { return m.ID },
		row: func(m *models.Branch) []string {
			return []string{m.BranchName, m.Manager, m.Phone, m.Email}
		},
		fields: []contentField{
			{Name: "branch_name", Label: "Branch Name", Type: "text", Required: true},
			{Name: "manager", Label: "Manager", Type: "text"},
			{Name: "phone", Label: "Phone", Type: "text", Required: true},
			{Name: "email", Label: "Email", Type: "text", Required: true},
			{Name: "address", Label: "Address", Type: "text", Required: true},
			{Name: "iframe", Label: "Map Iframe", Type: "textarea", Required: true},
		},
		values: func(m *models.Branch) map[string]string {
			return map[string]string{
				"branch_name": m.BranchName,
				"manager":     m.Manager,
				"phone":       m.Phone,
				"email":       m.Email,
				"address":     m.Address,
				"iframe":      m.Iframe,
			}
		},
		setLang: func(m *models.Branch, id uint) { m.LanguageID = id },
		fill: func(c *fiber.Ctx, m *models.Branch, _ bool) error {
			m.BranchName = strings.TrimSpace(c.FormValue("branch_name"))
			m.Manager = strings.TrimSpace(c.FormValue("manager"))
			m.Phone = strings.TrimSpace(c.FormValue("phone"))
			m.Email = strings.TrimSpace(c.FormValue("email"))
			m.Address = strings.TrimSpace(c.FormValue("address"))
			m.Iframe = strings.TrimSpace(c.FormValue("iframe"))
			return m.Validate()
		},
	}
}

func (ac *AdminContentController) offers() *contentResource[models.Offer] {
	return &contentResource[models.Offer]{
		label:   "Offer",
		slug:    "offers",
		repo:    ac.repos.Offer,
		langs:   ac.repos.Language,
		columns: []string{"Offer", "Status"},
		id:      func(m *models.Offer) uint { return m.ID },
		row:     func(m *models.Offer) []string { return []string{m.Offer, statusLabel(m.Status)} },
		fields: []contentField{
			{Name: "offer", Label: "Offer", Type: "text", Required: true},
			{Name: "status", Label: "Published", Type: "checkbox"},
		},
		values: func(m *models.Offer) map[string]string {
			return map[string]string{"offer": m.Offer, "status": boolValue(m.Status)}
		},
		setLang: func(m *models.Offer, id uint) { m.LanguageID = id },
		fill: func(c *fiber.Ctx, m *models.Offer, _ bool) error {
			m.Offer = strings.TrimSpace(c.FormValue("offer"))
			m.Status = formBool(c, "status")
			return m.Validate()
		},
		extra: func(lang *models.Language) fiber.Map {
			section := models.SectionTitle{LanguageID: lang.ID}
			if rows, err := ac.repos.SectionTitle.ListByLanguage(lang.ID); err == nil && len(rows) > 0 {
				section = rows[0]
			}
			return fiber.Map{"OfferSection": section}
		},
	}
}

func (ac *AdminContentController) shippingMethods() *contentResource[models.ShippingMethod] {
	return &contentResource[models.ShippingMethod]{
		label:   "Shipping Method",
		slug:    "shipping-methods",
		repo:    ac.repos.ShippingMethod,
		langs:   ac.repos.Language,
		columns: []string{"Title", "Subtitle", "Cost", "Status"},
		id:      func(m *models.ShippingMethod) uint { return m.ID },
		row: func(m *models.ShippingMethod) []string {
			return []string{m.Title, m.Subtitle, m.Cost.StringFixed(2), statusLabel(m.Status)}
		},
		fields: []contentField{
			{Name: "title", Label: "Title", Type: "text", Required: true},
			{Name: "subtitle", Label: "Subtitle", Type: "text"},
			{Name: "cost", Label: "Cost", Type: "number", Required: true},
			{Name: "status", Label: "Published", Type: "checkbox"},
		},
		values: func(m *models.ShippingMethod) map[string]string {
			return map[string]string{
				"title":    m.Title,
				"subtitle": m.Subtitle,
				"cost":     m.Cost.StringFixed(2),
				"status":   boolValue(m.Status),
			}
		},
		setLang: func(m *models.ShippingMethod, id uint) { m.LanguageID = id },
		fill: func(c *fiber.Ctx, m *models.ShippingMethod, _ bool) error {
			m.Title = strings.TrimSpace(c.FormValue("title"))
			m.Subtitle = strings.TrimSpace(c.FormValue("subtitle"))
			cost, err := decimal.NewFromString(strings.TrimSpace(c.FormValue("cost")))
			if err != nil {
				return formError("The cost must be a number.")
			}
			m.Cost = cost
			m.Status = formBool(c, "status")
			return m.Validate()
		},
		unique: []uniqueRule[models.ShippingMethod]{
			{column: "title", value: func(m *models.ShippingMethod) string { return m.Title }, message: "The title has already been taken."},
		},
	}
}

func (ac *AdminContentController) medias() *contentResource[models.Media] {
	return &contentResource[models.Media]{
		label:   "Media",
		slug:    "medias",
		repo:    ac.repos.Media,
		langs:   ac.repos.Language,
		columns: []string{"Icon", "Name", "Link"},
		id:      func(m *models.Media) uint { return m.ID },
		row:     func(m *models.Media) []string { return []string{m.Icon, m.Name, m.Link} },
		fields: []contentField{
			{Name: "icon", Label: "Icon", Type: "file"},
			{Name: "name", Label: "Name", Type: "text"},
			{Name: "link", Label: "Link", Type: "text"},
		},
		values: func(m *models.Media) map[string]string {
			return map[string]string{"icon": m.Icon, "name": m.Name, "link": m.Link}
		},
		setLang: func(m *models.Media, id uint) { m.LanguageID = id },
		fill: func(c *fiber.Ctx, m *models.Media, creating bool) error {
			m.Name = strings.TrimSpace(c.FormValue("name"))
			m.Link = strings.TrimSpace(c.FormValue("link"))
			if err := m.Validate(); err != nil {
				return err
			}
			return ac.replaceIcon(c, &m.Icon, creating)
		},
		onDelete: func(m *models.Media) { imageprocessor.Remove(ac.iconsDir, m.Icon) },
	}
}

func (ac *AdminContentController) funfacts() *contentResource[models.Funfact] {
	return &contentResource[models.Funfact]{
		label:   "Funfact",
		slug:    "funfacts",
		repo:    ac.repos.Funfact,
		langs:   ac.repos.Language,
		columns: []string{"Icon", "Name", "Value"},
		id:      func(m *models.Funfact) uint { return m.ID },
		row:     func(m *models.Funfact) []string { return []string{m.Icon, m.Name, m.Value} },
		fields: []contentField{
			{Name: "icon", Label: "Icon", Type: "file"},
			{Name: "name", Label: "Name", Type: "text"},
			{Name: "value", Label: "Value", Type: "text"},
		},
		values: func(m *models.Funfact) map[string]string {
			return map[string]string{"icon": m.Icon, "name": m.Name, "value": m.Value}
		},
		setLang: func(m *models.Funfact, id uint) { m.LanguageID = id },
		fill: func(c *fiber.Ctx, m *models.Funfact, creating bool) error {
			m.Name = strings.TrimSpace(c.FormValue("name"))
			m.Value = strings.TrimSpace(c.FormValue("value"))
			if err := m.Validate(); err != nil {
				return err
			}
			return ac.replaceIcon(c, &m.Icon, creating)
		},
		onDelete: func(m *models.Funfact) { imageprocessor.Remove(ac.iconsDir, m.Icon) },
	}
}

// footerFor returns the footer row of a language, or an unsaved one.
func (ac *AdminContentController) footerFor(langID uint) (*models.Footer, error) {
	rows, err := ac.repos.Footer.ListByLanguage(langID)
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return &rows[0], nil
	}
	return &models.Footer{LanguageID: langID}, nil
}

func (ac *AdminContentController) HandleFooter(c *fiber.Ctx) error {
	lang, langs, err := resolveLanguage(c, ac.repos.Language)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	footer, err := ac.footerFor(lang.ID)
	if err != nil {
		log.Errorf("[Content] footer: %v", err)
		return redirectWithError(c, "/admin", "Failed to load footer")
	}
	return render(c, "admin/footer", "Footer", fiber.Map{
		"Footer":    footer,
		"Language":  lang,
		"Languages": langs,
	})
}

// HandleFooterUpdate upserts the footer of the selected language.
func (ac *AdminContentController) HandleFooterUpdate(c *fiber.Ctx) error {
	lang, _, err := resolveLanguage(c, ac.repos.Language)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	back := "/admin/footer?language=" + url.QueryEscape(lang.Code)
	footer, err := ac.footerFor(lang.ID)
	if err != nil {
		log.Errorf("[Content] footer: %v", err)
		return redirectWithError(c, back, "Failed to load footer")
	}

	footer.CopyrightText = strings.TrimSpace(c.FormValue("copyright_text"))
	footer.FooterText = strings.TrimSpace(c.FormValue("footer_text"))
	if err := footer.Validate(); err != nil {
		return redirectWithError(c, back, formMessage(err))
	}
	logo, err := ac.storeImage(c, "footer_logo", ac.logosDir, imageprocessor.MaxLogoWidth, imageprocessor.MaxLogoHeight)
	if err != nil {
		return redirectWithError(c, back, formMessage(err))
	}
	if logo != "" {
		imageprocessor.Remove(ac.logosDir, footer.FooterLogo)
		footer.FooterLogo = logo
	}

	if footer.ID == 0 {
		err = ac.repos.Footer.Create(footer)
	} else {
		err = ac.repos.Footer.Update(footer)
	}
	if err != nil {
		log.Errorf("[Content] save footer: %v", err)
		return redirectWithError(c, back, "Failed to save footer")
	}
	return redirectWithSuccess(c, back, "Footer Updated successfully!")
}

// HandleOfferSection upserts the offer heading of the selected language.
func (ac *AdminContentController) HandleOfferSection(c *fiber.Ctx) error {
	lang, _, err := resolveLanguage(c, ac.repos.Language)
	if err != nil {
		return redirectWithError(c, "/admin", "Please add a language first.")
	}
	back := "/admin/offers?language=" + url.QueryEscape(lang.Code)

	rows, err := ac.repos.SectionTitle.ListByLanguage(lang.ID)
	if err != nil {
		log.Errorf("[Content] section titles: %v", err)
		return redirectWithError(c, back, "Failed to save offer section")
	}
	section := &models.SectionTitle{LanguageID: lang.ID}
	if len(rows) > 0 {
		section = &rows[0]
	}
	section.OfferTitle = strings.TrimSpace(c.FormValue("offer_title"))
	section.OfferText = strings.TrimSpace(c.FormValue("offer_text"))
	if section.OfferTitle == "" {
		return redirectWithError(c, back, "The offer title field is required.")
	}
	if len(section.OfferTitle) > 255 {
		return redirectWithError(c, back, "The offer title may not be greater than 255 characters.")
	}

	if section.ID == 0 {
		err = ac.repos.SectionTitle.Create(section)
	} else {
		err = ac.repos.SectionTitle.Update(section)
	}
	if err != nil {
		log.Errorf("[Content] save offer section: %v", err)
		return redirectWithError(c, back, "Failed to save offer section")
	}
	return redirectWithSuccess(c, back, "Offer Section Updated successfully!")
}

func HandleAdminFooter(c *fiber.Ctx) error { return GetAdminContentController().HandleFooter(c) }
func HandleAdminFooterUpdate(c *fiber.Ctx) error {
	return GetAdminContentController().HandleFooterUpdate(c)
}
func HandleAdminOfferSection(c *fiber.Ctx) error {
	return GetAdminContentController().HandleOfferSection(c)
}
