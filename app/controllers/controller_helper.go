package controllers

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
	"github.com/ManuelReschke/NetPortal/internal/pkg/viewmodel"
)

const mainLayout = "layouts/main"

var errNotLoggedIn = errors.New("not logged in")

// formValidator reports json/form field names instead of Go field names.
var formValidator = newFormValidator()

func newFormValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// fieldErrors maps validation errors to {field: message}.
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return out
	}
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = fieldMessage(fe)
		}
	}
	return out
}

// firstFieldError returns one message for flash output.
func firstFieldError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return fieldMessage(verrs[0])
	}
	if errors.Is(err, models.ErrNegativeCost) {
		return "The cost must be at least 0."
	}
	return "The given data was invalid."
}

func fieldMessage(fe validator.FieldError) string {
	field := humanize(fe.Field())
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("The %s field is required.", field)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", field, fe.Param())
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", field)
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match.", humanize(fe.Param()))
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid.", field)
	default:
		return fmt.Sprintf("The %s is invalid.", field)
	}
}

// humanize turns "account_id" or "BranchName" into "account id" / "branch name".
func humanize(name string) string {
	if strings.Contains(name, "_") {
		return strings.ReplaceAll(name, "_", " ")
	}
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte(' ')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

func jsonSuccess(c *fiber.Ctx, status int, message string, data any) error {
	body := fiber.Map{"status": "success", "message": message}
	if data != nil {
		body["data"] = data
	}
	return c.Status(status).JSON(body)
}

func jsonError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": message})
}

func jsonValidationError(c *fiber.Ctx, errs map[string]string) error {
	return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
		"status":  "error",
		"message": "Validation failed.",
		"errors":  errs,
	})
}

func csrfToken(c *fiber.Ctx) string {
	token, _ := c.Locals(usercontext.KeyCSRF).(string)
	return token
}

// render executes view inside the main layout.
func render(c *fiber.Ctx, view, page string, data fiber.Map) error {
	userCtx := usercontext.GetUserContext(c)
	if data == nil {
		data = fiber.Map{}
	}
	data["Layout"] = viewmodel.Layout{
		Page:          page,
		SiteTitle:     models.GetAppSettings().GetSiteTitle(),
		FromProtected: userCtx.IsLoggedIn,
		Msg:           flash.Get(c),
		Username:      userCtx.Username,
		IsAdmin:       userCtx.IsAdmin,
		CSRF:          csrfToken(c),
		Year:          time.Now().Year(),
	}
	return c.Render(view, data, mainLayout)
}

func redirectWithError(c *fiber.Ctx, path, message string) error {
	return flash.WithError(c, fiber.Map{"type": "error", "message": message}).Redirect(path)
}

// redirectWithWarning is used for payment failures.
func redirectWithWarning(c *fiber.Ctx, path, message string) error {
	return flash.WithError(c, fiber.Map{"type": "warning", "message": message}).Redirect(path)
}

func redirectWithSuccess(c *fiber.Ctx, path, message string) error {
	return flash.WithSuccess(c, fiber.Map{"type": "success", "message": message}).Redirect(path)
}

// paramID parses a positive numeric route parameter.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// currentUser loads the user of the session or access token.
func currentUser(c *fiber.Ctx, users repository.UserRepository) (*models.User, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn || userCtx.UserID == 0 {
		return nil, errNotLoggedIn
	}
	return users.GetByID(userCtx.UserID)
}
