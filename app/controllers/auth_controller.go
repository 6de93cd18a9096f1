package controllers

import (
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/constants"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/ManuelReschke/NetPortal/internal/pkg/hcaptcha"
	"github.com/ManuelReschke/NetPortal/internal/pkg/session"
	"github.com/ManuelReschke/NetPortal/internal/pkg/statistics"
)

const (
	loginFailedMessage  = "These credentials do not match our records."
	forgotAnswerMessage = "If your email exists in our system, you will receive a password reset link."
	captchaFailed       = "Captcha validation failed. Please try again."
)

type AuthController struct {
	users  repository.UserRepository
	resets repository.PasswordResetRepository
	mail   MailQueue
}

func NewAuthController(d Deps) *AuthController {
	return &AuthController{users: d.Repos.User, resets: d.Repos.PasswordReset, mail: d.Mail}
}

type registerForm struct {
	Name                 string `json:"name" validate:"required,min=3,max=150"`
	Email                string `json:"email" validate:"required,email,max=200"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

type resetForm struct {
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
}

func (ac *AuthController) ShowLogin(c *fiber.Ctx) error {
	return render(c, "auth/login", "Login", nil)
}

func (ac *AuthController) Login(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.FormValue("email"))
	user, err := ac.users.GetByEmail(email)
	if err != nil || !user.CheckPassword(c.FormValue("password")) {
		return redirectWithError(c, constants.LoginRoute, loginFailedMessage)
	}
	if !user.IsActive() {
		return redirectWithError(c, constants.LoginRoute, "Your account is not active.")
	}

	if err := session.LoginUser(c, user.ID, user.Name, user.IsAdmin()); err != nil {
		log.Errorf("[Auth] session for user %d: %v", user.ID, err)
		return redirectWithError(c, constants.LoginRoute, "Something went wrong. Please try again.")
	}
	if err := ac.users.TouchLogin(user.ID); err != nil {
		log.Warnf("[Auth] touch login for user %d: %v", user.ID, err)
	}

	target := constants.DashboardPath
	if user.IsAdmin() {
		target = constants.AdminRoute
	}
	return redirectWithSuccess(c, target, "Welcome back, "+user.Name+"!")
}

func (ac *AuthController) Logout(c *fiber.Ctx) error {
	if err := session.LogoutUser(c); err != nil {
		log.Warnf("[Auth] logout: %v", err)
	}
	return redirectWithSuccess(c, constants.LoginRoute, "You have been logged out.")
}

func (ac *AuthController) ShowRegister(c *fiber.Ctx) error {
	return render(c, "auth/register", "Register", fiber.Map{"HCaptchaSiteKey": hcaptcha.SiteKey()})
}

func (ac *AuthController) Register(c *fiber.Ctx) error {
	if !captchaPassed(c) {
		return redirectWithError(c, "/register", captchaFailed)
	}

	form := registerForm{
		Name:                 strings.TrimSpace(c.FormValue("name")),
		Email:                strings.TrimSpace(c.FormValue("email")),
		Password:             c.FormValue("password"),
		PasswordConfirmation: c.FormValue("password_confirmation"),
	}
	if err := formValidator.Struct(form); err != nil {
		return redirectWithError(c, "/register", firstFieldError(err))
	}
	if _, err := ac.users.GetByEmail(form.Email); err == nil {
		return redirectWithError(c, "/register", "The email has already been taken.")
	}

	user, err := models.CreateUser(form.Name, form.Email, form.Password)
	if err != nil {
		return redirectWithError(c, "/register", firstFieldError(err))
	}
	if err := ac.users.Create(user); err != nil {
		log.Errorf("[Auth] register %s: %v", form.Email, err)
		return redirectWithError(c, "/register", "Something went wrong. Please try again.")
	}

	statistics.ResetCacheUpdateTimer()
	return redirectWithSuccess(c, constants.LoginRoute, "Registration successful. Please log in.")
}

func (ac *AuthController) ShowForgotPassword(c *fiber.Ctx) error {
	return render(c, "auth/forgot", "Forgot Password", fiber.Map{"HCaptchaSiteKey": hcaptcha.SiteKey()})
}

// ForgotPassword answers the same way whether or not the email is known.
func (ac *AuthController) ForgotPassword(c *fiber.Ctx) error {
	if !captchaPassed(c) {
		return redirectWithError(c, "/forgot-password", captchaFailed)
	}

	email := strings.TrimSpace(c.FormValue("email"))
	user, err := ac.users.GetByEmail(email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] forgot password lookup: %v", err)
		}
		return redirectWithSuccess(c, "/forgot-password", forgotAnswerMessage)
	}

	reset, token, err := models.NewPasswordReset(user.Email)
	if err == nil {
		err = ac.resets.Replace(reset)
	}
	if err != nil {
		log.Errorf("[Auth] password reset for user %d: %v", user.ID, err)
		return redirectWithSuccess(c, "/forgot-password", forgotAnswerMessage)
	}

	if err := ac.mail.Enqueue(user.Email, "Reset your password", resetMailBody(user.Name, token)); err != nil {
		log.Errorf("[Auth] queue reset mail for user %d: %v", user.ID, err)
	}
	return redirectWithSuccess(c, "/forgot-password", forgotAnswerMessage)
}

func resetMailBody(name, token string) string {
	link := strings.TrimRight(env.GetEnv("APP_URL", "http://localhost:4000"), "/") + "/reset-password/" + token
	return fmt.Sprintf(
		`<p>Hello %s,</p><p>Use the link below to choose a new password. It is valid for one hour.</p><p><a href="%s">%s</a></p>`,
		html.EscapeString(name), link, link,
	)
}

func (ac *AuthController) ShowResetPassword(c *fiber.Ctx) error {
	if _, err := ac.validReset(c.Params("token")); err != nil {
		return redirectWithError(c, "/forgot-password", err.Error())
	}
	return render(c, "auth/reset", "Reset Password", fiber.Map{"Token": c.Params("token")})
}

func (ac *AuthController) ResetPassword(c *fiber.Ctx) error {
	token := c.Params("token")
	reset, err := ac.validReset(token)
	if err != nil {
		return redirectWithError(c, "/forgot-password", err.Error())
	}

	form := resetForm{Password: c.FormValue("password"), PasswordConfirmation: c.FormValue("password_confirmation")}
	if err := formValidator.Struct(form); err != nil {
		return redirectWithError(c, "/reset-password/"+token, firstFieldError(err))
	}
	hash, err := models.HashPassword(form.Password)
	if err == nil {
		err = ac.users.UpdatePassword(reset.Email, hash)
	}
	if err != nil {
		log.Errorf("[Auth] reset password: %v", err)
		return redirectWithError(c, "/reset-password/"+token, "Something went wrong. Please try again.")
	}
	if err := ac.resets.DeleteByEmail(reset.Email); err != nil {
		log.Warnf("[Auth] delete reset tokens: %v", err)
	}
	return redirectWithSuccess(c, constants.LoginRoute, "Your password has been reset.")
}

func (ac *AuthController) validReset(token string) (*models.PasswordReset, error) {
	invalid := errors.New("This password reset link is invalid or has expired.")
	if token == "" {
		return nil, invalid
	}
	reset, err := ac.resets.GetByTokenHash(models.HashAccessToken(token))
	if err != nil || reset.Expired(time.Now()) {
		return nil, invalid
	}
	return reset, nil
}

func captchaPassed(c *fiber.Ctx) bool {
	if !hcaptcha.Enabled() {
		return true
	}
	if err := hcaptcha.Verify(c.UserContext(), c.FormValue("h-captcha-response"), c.IP()); err != nil {
		log.Warnf("[Auth] captcha from %s: %v", c.IP(), err)
		return false
	}
	return true
}

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		return GetAuthController().Login(c)
	}
	return GetAuthController().ShowLogin(c)
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		return GetAuthController().Register(c)
	}
	return GetAuthController().ShowRegister(c)
}

func HandleAuthForgotPassword(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		return GetAuthController().ForgotPassword(c)
	}
	return GetAuthController().ShowForgotPassword(c)
}

func HandleAuthResetPassword(c *fiber.Ctx) error {
	if c.Method() == fiber.MethodPost {
		return GetAuthController().ResetPassword(c)
	}
	return GetAuthController().ShowResetPassword(c)
}

func HandleAuthLogout(c *fiber.Ctx) error { return GetAuthController().Logout(c) }
