package payment

import (
	"context"
	"fmt"

	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// Sender initiates a transfer on one payment rail
type Sender interface {
	SendPayout(ctx context.Context, payout *wallet.PayoutRequest) (string, error)
}

// RoutingGateway dispatches payouts to the rail matching their method.
// Bank transfers and checks are settled manually and never reach a rail.
type RoutingGateway struct {
	stripe Sender
	paypal Sender
}

// NewRoutingGateway creates a gateway routing between Stripe and PayPal.
// Either rail may be nil when not configured.
func NewRoutingGateway(stripe, paypal Sender) *RoutingGateway {
	return &RoutingGateway{stripe: stripe, paypal: paypal}
}

// SendPayout routes the payout to its method's rail
func (g *RoutingGateway) SendPayout(ctx context.Context, payout *wallet.PayoutRequest) (string, error) {
	switch payout.Method {
	case wallet.PayoutMethodStripe:
		if g.stripe == nil {
			return "", fmt.Errorf("payment: stripe gateway not configured")
		}
		return g.stripe.SendPayout(ctx, payout)
	case wallet.PayoutMethodPaypal:
		if g.paypal == nil {
			return "", fmt.Errorf("payment: paypal gateway not configured")
		}
		return g.paypal.SendPayout(ctx, payout)
	default:
		return "", fmt.Errorf("payment: method %s has no gateway", payout.Method)
	}
}
