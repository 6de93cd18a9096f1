package billing

import (
	"context"

	"github.com/ManuelReschke/NetPortal/internal/pkg/apperr"
	"github.com/cockroachdb/errors"
)

const (
	ProviderStripe = "stripe"

	tokenFailureMessage = "Token Problem With Your Token."
	declineFallback     = "Please Enter Valid Credit Card Informations."
)

// Sentinels identify the failing payment step. Errors returned by gateways
// carry one of them plus the apperr.ErrProvider category.
var (
	ErrTokenization = errors.New("card tokenization failed")
	ErrDeclined     = errors.New("charge declined")
	ErrUnavailable  = errors.New("payment provider unavailable")
)

// Gateway is the card payment provider.
type Gateway interface {
	// Tokenize exchanges card data for a single use token id.
	Tokenize(ctx context.Context, card Card) (string, error)
	// Charge captures the amount against a token.
	Charge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
}

// TokenizationFailed marks err as a failed tokenization. A non empty
// providerMsg replaces the generic token message shown to the customer.
func TokenizationFailed(err error, providerMsg string) error {
	return providerError(err, "tokenize card", ErrTokenization, providerMsg, tokenFailureMessage)
}

// Declined marks err as a declined charge. A non empty providerMsg becomes
// the message shown to the customer.
func Declined(err error, providerMsg string) error {
	return providerError(err, "charge", ErrDeclined, providerMsg, declineFallback)
}

// Unavailable marks a provider side failure that is neither a card problem
// nor a decline, such as a rejected API request.
func Unavailable(err error, providerMsg string) error {
	return providerError(err, "provider request", ErrUnavailable, providerMsg, declineFallback)
}

func providerError(err error, op string, step error, providerMsg, fallback string) error {
	if err == nil {
		err = errors.Newf("%s not successful", op)
	}
	hint := providerMsg
	if hint == "" {
		hint = fallback
	}
	return apperr.Wrap(err, op).WithHint(hint).Mark(step, apperr.ErrProvider)
}
