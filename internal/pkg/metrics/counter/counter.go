package counter

import (
	"context"
	"strconv"

	"github.com/ManuelReschke/NetPortal/internal/pkg/cache"
	"github.com/redis/go-redis/v9"
)

const paymentCountersKey = "payments:counters"

// Payment outcomes.
const (
	OutcomeSucceeded      = "succeeded"
	OutcomeDeclined       = "declined"
	OutcomeTokenFailed    = "token_failed"
	OutcomeProviderFailed = "provider_failed"
	OutcomeNotifyFailed   = "notify_failed"
	OutcomeInvoiceFailed  = "invoice_failed"
	OutcomeInternalFailed = "internal_failed"
)

// PaymentCounters keeps per flow and outcome totals in a Redis hash.
type PaymentCounters struct {
	client redis.UniversalClient
}

func NewPaymentCounters(client redis.UniversalClient) *PaymentCounters {
	return &PaymentCounters{client: client}
}

// Default uses the shared cache client.
func Default() *PaymentCounters {
	return NewPaymentCounters(cache.GetClient())
}

func field(kind, outcome string) string {
	return kind + ":" + outcome
}

// Record increments the counter for kind and outcome.
func (p *PaymentCounters) Record(ctx context.Context, kind, outcome string) error {
	return p.client.HIncrBy(ctx, paymentCountersKey, field(kind, outcome), 1).Err()
}

// Snapshot returns all counters keyed by "kind:outcome".
func (p *PaymentCounters) Snapshot(ctx context.Context) (map[string]int64, error) {
	raw, err := p.client.HGetAll(ctx, paymentCountersKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(raw))
	for k, v := range raw {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[k] = n
	}
	return out, nil
}

// Reset removes all counters.
func (p *PaymentCounters) Reset(ctx context.Context) error {
	return p.client.Del(ctx, paymentCountersKey).Err()
}
