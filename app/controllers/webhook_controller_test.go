package controllers

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/ManuelReschke/NetPortal/app/models"
	"github.com/ManuelReschke/NetPortal/internal/pkg/billing"
)

func TestStripeWebhook(t *testing.T) {
	f := newCtrlFixture(t)
	gw := &models.PaymentGateway{Keyword: billing.ProviderStripe, Name: "Stripe", Status: true}
	require.NoError(t, gw.SetCredentials(models.GatewayInformation{WebhookSecret: "whsec_ctrl"}))
	require.NoError(t, f.db.Create(gw).Error)

	app := f.app(nil, func(app *fiber.App) {
		app.Post("/webhooks/stripe", NewWebhookController(f.deps).HandleStripe)
	})

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(`{"id":"evt_ctrl","object":"event","type":"charge.succeeded","data":{"object":{}}}`),
		Secret:    "whsec_ctrl",
		Timestamp: time.Now(),
	})
	send := func(sig string) (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set("Stripe-Signature", sig)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		return resp.StatusCode, readBody(t, resp)
	}

	status, body := send(signed.Header)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"ok":true,"duplicate":false}`, body)

	status, body = send(signed.Header)
	assert.Equal(t, fiber.StatusOK, status)
	assert.JSONEq(t, `{"ok":true,"duplicate":true}`, body)

	status, _ = send("t=1,v1=deadbeef")
	assert.Equal(t, fiber.StatusBadRequest, status)
}
