package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/usercontext"
)

// APIAuthController issues and revokes personal access tokens for the
// mobile client.
type APIAuthController struct {
	users  repository.UserRepository
	tokens repository.TokenRepository
	ttl    time.Duration
}

func NewAPIAuthController(d Deps) *APIAuthController {
	return &APIAuthController{users: d.Repos.User, tokens: d.Repos.Token, ttl: d.TokenTTL}
}

type tokenRequest struct {
	Email      string `json:"email" form:"email" validate:"required,email,max=200"`
	Password   string `json:"password" form:"password" validate:"required"`
	DeviceName string `json:"device_name" form:"device_name" validate:"max=191"`
}

// HandleIssueToken exchanges email and password for a bearer token.
func (ac *APIAuthController) HandleIssueToken(c *fiber.Ctx) error {
	var req tokenRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonValidationError(c, map[string]string{"email": "The request body is invalid."})
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := formValidator.Struct(req); err != nil {
		return jsonValidationError(c, fieldErrors(err))
	}

	user, err := ac.users.GetByEmail(req.Email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Errorf("[Auth] token login lookup failed: %v", err)
			return jsonError(c, fiber.StatusInternalServerError, "Login failed.")
		}
		return jsonError(c, fiber.StatusUnauthorized, "Invalid credentials.")
	}
	if !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "Invalid credentials.")
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "User inactive.")
	}

	name := req.DeviceName
	if name == "" {
		name = "mobile"
	}
	pat, secret, err := models.NewPersonalAccessToken(user.ID, name, ac.ttl)
	if err != nil {
		log.Errorf("[Auth] token generation failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Login failed.")
	}
	if err := ac.tokens.Create(pat); err != nil {
		log.Errorf("[Auth] token store failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "Login failed.")
	}
	if err := ac.users.TouchLogin(user.ID); err != nil {
		log.Warnf("[Auth] touch login for user %d: %v", user.ID, err)
	}

	return jsonSuccess(c, fiber.StatusCreated, "Token created successfully", fiber.Map{
		"token":      pat.PlainTextToken(secret),
		"token_type": "Bearer",
		"expires_at": formatTimePtr(pat.ExpiresAt),
		"user": fiber.Map{
			"id":    user.ID,
			"name":  user.Name,
			"email": user.Email,
			"phone": user.Phone,
		},
	})
}

// HandleRevokeToken deletes the token the request authenticated with.
func (ac *APIAuthController) HandleRevokeToken(c *fiber.Ctx) error {
	caller := usercontext.GetUserContext(c)
	if !caller.ViaToken() {
		return jsonError(c, fiber.StatusUnauthorized, "Unauthenticated.")
	}
	if err := ac.tokens.Delete(caller.TokenID); err != nil {
		log.Errorf("[Auth] revoke token %d failed: %v", caller.TokenID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to revoke token.")
	}
	return jsonSuccess(c, fiber.StatusOK, "Token revoked successfully", nil)
}

func formatTimePtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func HandleAPIIssueToken(c *fiber.Ctx) error  { return GetAPIAuthController().HandleIssueToken(c) }
func HandleAPIRevokeToken(c *fiber.Ctx) error { return GetAPIAuthController().HandleRevokeToken(c) }
