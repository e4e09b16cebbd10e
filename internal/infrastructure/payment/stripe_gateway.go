package payment

import (
	"context"
	"fmt"

	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/transfer"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"
)

// StripeGateway sends payouts as Stripe transfers to connected accounts.
// The payout's Destination must be an acct_ ID.
type StripeGateway struct {
	config *StripeConfig
	logger *zap.Logger
}

// StripeConfig holds Stripe payout credentials
type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// Validate validates the Stripe configuration
func (c *StripeConfig) Validate() error {
	if c.SecretKey == "" {
		return fmt.Errorf("stripe: secret key is required")
	}
	return nil
}

// NewStripeGateway creates a new Stripe payout gateway
func NewStripeGateway(config *StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	stripe.Key = config.SecretKey

	return &StripeGateway{
		config: config,
		logger: logger,
	}, nil
}

// SendPayout creates a transfer for the payout's net amount and returns the
// transfer ID as the gateway reference
func (g *StripeGateway) SendPayout(ctx context.Context, payout *wallet.PayoutRequest) (string, error) {
	net := payout.NetAmount()

	// Stripe amounts are integer cents
	cents := net.Mul(oneHundred).IntPart()
	if cents <= 0 {
		return "", fmt.Errorf("stripe: net payout amount must be positive, got %s", net)
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(cents),
		Currency:    stripe.String(string(stripe.CurrencyUSD)),
		Destination: stripe.String(payout.Destination),
	}
	params.Context = ctx
	params.Metadata = map[string]string{
		"payout_request_id": payout.ID.String(),
		"user_id":           payout.UserID.String(),
	}

	t, err := transfer.New(params)
	if err != nil {
		g.logger.Error("Stripe transfer failed",
			zap.String("payout_id", payout.ID.String()),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to create transfer: %w", err)
	}

	g.logger.Info("Stripe transfer created",
		zap.String("payout_id", payout.ID.String()),
		zap.String("transfer_id", t.ID),
		zap.Int64("amount_cents", cents))

	return t.ID, nil
}

// VerifyWebhook validates a webhook payload signature and returns the event
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	if g.config.WebhookSecret == "" {
		return stripe.Event{}, fmt.Errorf("stripe: webhook secret not configured")
	}
	event, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe: webhook verification failed: %w", err)
	}
	return event, nil
}
