package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
)

// WebhookController receives provider callbacks.
type WebhookController struct {
	billing *billing.Service
}

func NewWebhookController(d Deps) *WebhookController {
	return &WebhookController{billing: d.Billing}
}

// HandleStripe verifies and records a Stripe event. Replayed events are
// acknowledged without being applied twice.
func (wc *WebhookController) HandleStripe(c *fiber.Ctx) error {
	payload := append([]byte(nil), c.Body()...)
	outcome, err := wc.billing.HandleStripeWebhook(c.UserContext(), payload, c.Get("Stripe-Signature"))
	if err != nil {
		status := apperr.HTTPStatus(err)
		if status >= fiber.StatusInternalServerError {
			log.Errorf("[Webhook] stripe event failed: %v", err)
		} else {
			status = fiber.StatusBadRequest
		}
		return c.Status(status).JSON(fiber.Map{"ok": false, "error": apperr.UserMessage(err, "Invalid webhook payload.")})
	}
	if outcome.Duplicate {
		log.Infof("[Webhook] duplicate stripe event %s ignored", outcome.EventID)
	}
	return c.JSON(fiber.Map{"ok": true, "duplicate": outcome.Duplicate})
}

func HandleStripeWebhook(c *fiber.Ctx) error { return GetWebhookController().HandleStripe(c) }
