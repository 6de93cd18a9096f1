package billing

import (
	"context"
	"strings"

	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/ManuelReschke/NetPortal/internal/pkg/env"
	"github.com/cockroachdb/errors"
	"github.com/gofiber/fiber/v2/log"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var ErrWebhookSignature = errors.New("stripe webhook signature invalid")

func invalidSignature() error {
	return apperr.Classify(ErrWebhookSignature, apperr.ErrValidation, "Invalid webhook signature or payload")
}

// WebhookOutcome is the result of handling one delivery.
type WebhookOutcome struct {
	EventID   string
	EventType string
	Duplicate bool
}

// StripeWebhookSecret returns the signing secret from the gateway row, or
// STRIPE_WEBHOOK_SECRET.
func (s *Service) StripeWebhookSecret(ctx context.Context) string {
	row, err := s.repo.FindGateway(ctx, ProviderStripe)
	if err == nil && row != nil {
		if info, err := row.Credentials(); err == nil && info.WebhookSecret != "" {
			return info.WebhookSecret
		}
	}
	return env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
}

// ParseStripeEvent verifies the Stripe-Signature header against payload.
func ParseStripeEvent(payload []byte, signature, secret string) (*stripe.Event, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, invalidSignature()
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		log.Warnf("[Billing] stripe webhook verification failed: %v", err)
		return nil, invalidSignature()
	}
	return &event, nil
}

// HandleStripeWebhook verifies and records a delivery. Redeliveries of an
// already stored event are reported as duplicates and not processed again.
func (s *Service) HandleStripeWebhook(ctx context.Context, payload []byte, signature string) (*WebhookOutcome, error) {
	event, err := ParseStripeEvent(payload, signature, s.StripeWebhookSecret(ctx))
	if err != nil {
		return nil, err
	}

	created, stored, err := s.RecordWebhookEvent(ctx, WebhookEventInput{
		Provider:        ProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	})
	if err != nil {
		return nil, apperr.Internal(err, "record stripe webhook")
	}

	outcome := &WebhookOutcome{EventID: event.ID, EventType: string(event.Type), Duplicate: !created}
	if !created {
		return outcome, nil
	}

	log.Infof("[Billing] stripe webhook %s (%s) recorded", event.ID, event.Type)
	if err := s.MarkWebhookProcessed(ctx, stored.ID, nil); err != nil {
		log.Errorf("[Billing] mark webhook %d processed: %v", stored.ID, err)
	}
	return outcome, nil
}
