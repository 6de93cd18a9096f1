package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/NetPortal/app/repository"
	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/binding"
)

// BindingAPIController serves the mobile binding endpoints.
type BindingAPIController struct {
	users    repository.UserRepository
	bindings *binding.Service
}

func NewBindingAPIController(d Deps) *BindingAPIController {
	return &BindingAPIController{users: d.Repos.User, bindings: d.Bindings}
}

type bindRequest struct {
	AccountID string `json:"account_id" form:"account_id" validate:"required,max=100"`
	Password  string `json:"password" form:"password" validate:"required,max=191"`
}

// HandleList returns every account bound to the caller.
func (bc *BindingAPIController) HandleList(c *fiber.Ctx) error {
	user, err := currentUser(c, bc.users)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Unauthenticated.")
	}

	summaries, err := bc.bindings.List(c.UserContext(), user)
	if err != nil {
		log.Errorf("[Binding] list for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to retrieve bound users.")
	}

	return jsonSuccess(c, fiber.StatusOK, "Bound users retrieved successfully", fiber.Map{
		"bind_users": summaries,
		"count":      len(summaries),
	})
}

// HandleShow returns the detailed view of one account.
func (bc *BindingAPIController) HandleShow(c *fiber.Ctx) error {
	user, err := currentUser(c, bc.users)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Unauthenticated.")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Bound user not found.")
	}

	detail, err := bc.bindings.Detail(c.UserContext(), user, id)
	switch {
	case err == nil:
	case apperr.Is(err, binding.ErrAccountNotFound):
		return jsonError(c, fiber.StatusNotFound, "Bound user not found.")
	case apperr.Is(err, binding.ErrForbidden):
		return jsonError(c, fiber.StatusForbidden, apperr.UserMessage(err, "You do not have access to this account."))
	default:
		log.Errorf("[Binding] detail %d for user %d failed: %v", id, user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "Failed to retrieve bound user.")
	}

	return jsonSuccess(c, fiber.StatusOK, "Bound user retrieved successfully", fiber.Map{"bind_user": detail})
}

// HandleBind binds an account after checking its credential. Accepts JSON
// or form bodies.
func (bc *BindingAPIController) HandleBind(c *fiber.Ctx) error {
	user, err := currentUser(c, bc.users)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Unauthenticated.")
	}

	var req bindRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonValidationError(c, map[string]string{"account_id": "The request body is invalid."})
	}
	if err := formValidator.Struct(req); err != nil {
		return jsonValidationError(c, fieldErrors(err))
	}

	link, summary, err := bc.bindings.Bind(c.UserContext(), user, req.AccountID, req.Password)
	if err != nil {
		status := apperr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Errorf("[Binding] bind for user %d failed: %v", user.ID, err)
		}
		return jsonError(c, status, apperr.UserMessage(err, "Failed to bind account."))
	}

	return jsonSuccess(c, fiber.StatusCreated, "Account bound successfully", fiber.Map{
		"bind_user": summary,
		"bind_id":   link.ID,
	})
}

// HandleUnbind removes one of the caller's bindings.
func (bc *BindingAPIController) HandleUnbind(c *fiber.Ctx) error {
	user, err := currentUser(c, bc.users)
	if err != nil {
		return jsonError(c, fiber.StatusUnauthorized, "Unauthenticated.")
	}
	id, ok := paramID(c, "id")
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "Binding not found.")
	}

	if err := bc.bindings.Unbind(c.UserContext(), user, id); err != nil {
		status := apperr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Errorf("[Binding] unbind %d for user %d failed: %v", id, user.ID, err)
		}
		return jsonError(c, status, apperr.UserMessage(err, "Failed to unbind account."))
	}

	return jsonSuccess(c, fiber.StatusOK, "Account unbound successfully", nil)
}

func HandleAPIBindingsList(c *fiber.Ctx) error  { return GetBindingAPIController().HandleList(c) }
func HandleAPIBindingShow(c *fiber.Ctx) error   { return GetBindingAPIController().HandleShow(c) }
func HandleAPIBindingCreate(c *fiber.Ctx) error { return GetBindingAPIController().HandleBind(c) }
func HandleAPIBindingDelete(c *fiber.Ctx) error { return GetBindingAPIController().HandleUnbind(c) }
