package billing

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/stripe/stripe-go/v82"
)

// StripeGateway charges cards through the Stripe tokens and charges API.
type StripeGateway struct {
	client *stripe.Client
}

// NewStripeGateway creates a gateway for the given secret key. Options are
// passed to the Stripe client, e.g. to point it at another backend.
func NewStripeGateway(secretKey string, opts ...stripe.ClientOption) (*StripeGateway, error) {
	if strings.TrimSpace(secretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}
	return &StripeGateway{client: stripe.NewClient(secretKey, opts...)}, nil
}

// stripeError extracts the API error Stripe returned, if any.
func stripeError(err error) (*stripe.Error, bool) {
	var se *stripe.Error
	if errors.As(err, &se) && se != nil {
		return se, true
	}
	return nil, false
}

func (g *StripeGateway) Tokenize(ctx context.Context, card Card) (string, error) {
	params := &stripe.TokenCreateParams{}
	params.AddExtra("card[name]", card.Name)
	params.AddExtra("card[number]", card.Number)
	params.AddExtra("card[exp_month]", card.ExpMonth)
	params.AddExtra("card[exp_year]", card.ExpYear)
	params.AddExtra("card[cvc]", card.CVC)

	token, err := g.client.V1Tokens.Create(ctx, params)
	if err != nil {
		// Card errors explain what is wrong with the card; anything else
		// gets the generic token message.
		if se, ok := stripeError(err); ok && se.Type == stripe.ErrorTypeCard {
			return "", TokenizationFailed(err, se.Msg)
		}
		return "", TokenizationFailed(err, "")
	}
	if token == nil || token.ID == "" {
		return "", TokenizationFailed(nil, "")
	}
	return token.ID, nil
}

func (g *StripeGateway) Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.ChargeCreateParams{
		Amount:      stripe.Int64(req.AmountMinor),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
	}
	params.AddExtra("source", req.Token)

	charge, err := g.client.V1Charges.Create(ctx, params)
	if err != nil {
		se, ok := stripeError(err)
		switch {
		case ok && se.Type == stripe.ErrorTypeCard:
			return nil, Declined(err, se.Msg)
		case ok && se.Msg != "":
			return nil, Unavailable(err, se.Msg)
		}
		return nil, errors.Wrap(err, "stripe charge")
	}

	if charge.Status != stripe.ChargeStatusSucceeded {
		return nil, Declined(nil, charge.FailureMessage)
	}

	txnID := charge.ID
	if charge.BalanceTransaction != nil && charge.BalanceTransaction.ID != "" {
		txnID = charge.BalanceTransaction.ID
	}
	return &ChargeResult{
		ChargeID: charge.ID,
		TxnID:    txnID,
		Status:   string(charge.Status),
	}, nil
}
