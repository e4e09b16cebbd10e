package handler

import (
	"encoding/json"
	"io"
	"net/http"

	walletapp "github.com/czachandrew/tru-server/internal/application/wallet"
	"github.com/czachandrew/tru-server/internal/infrastructure/payment"
	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"
)

// Maximum webhook payload size (64KB - Stripe webhooks are typically small)
const maxWebhookPayloadSize = 65536

// StripeWebhookHandler handles Stripe webhook endpoints.
// These endpoints are called by Stripe and do not require authentication;
// the payload signature is verified instead.
type StripeWebhookHandler struct {
	BaseHandler
	gateway     *payment.StripeGateway
	withdrawals *walletapp.WithdrawalService
	logger      *zap.Logger
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(gateway *payment.StripeGateway, withdrawals *walletapp.WithdrawalService, logger *zap.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		gateway:     gateway,
		withdrawals: withdrawals,
		logger:      logger,
	}
}

// StripeWebhookResponse represents the response for Stripe webhook
//
//	@Description	Stripe webhook response
type StripeWebhookResponse struct {
	Received  bool   `json:"received" example:"true"`
	EventID   string `json:"event_id,omitempty" example:"evt_1234567890"`
	EventType string `json:"event_type,omitempty" example:"transfer.paid"`
	Message   string `json:"message,omitempty" example:"Webhook processed successfully"`
}

// HandleStripeWebhook godoc
//
//	@ID				handleStripeWebhook
//	@Summary		Handle Stripe webhook
//	@Description	Process transfer status events from Stripe to settle payouts
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			Stripe-Signature	header		string	true	"Stripe webhook signature"
//	@Success		200					{object}	StripeWebhookResponse
//	@Failure		400					{object}	ErrorResponse
//	@Failure		500					{object}	ErrorResponse
//	@Router			/webhooks/stripe [post]
func (h *StripeWebhookHandler) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookPayloadSize+1))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}
	if len(payload) > maxWebhookPayloadSize {
		h.BadRequest(c, "Payload too large")
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		h.BadRequest(c, "Missing Stripe-Signature header")
		return
	}

	event, err := h.gateway.VerifyWebhook(payload, signature)
	if err != nil {
		h.logger.Warn("Stripe webhook verification failed", zap.Error(err))
		h.BadRequest(c, "Invalid webhook signature")
		return
	}

	if err := h.processEvent(c, event); err != nil {
		h.logger.Error("Stripe webhook processing failed",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, StripeWebhookResponse{
		Received:  true,
		EventID:   event.ID,
		EventType: string(event.Type),
		Message:   "Webhook processed successfully",
	})
}

func (h *StripeWebhookHandler) processEvent(c *gin.Context, event stripe.Event) error {
	ctx := c.Request.Context()

	switch event.Type {
	case "transfer.paid":
		transferID, err := transferIDFromEvent(event)
		if err != nil {
			return err
		}
		return h.withdrawals.ConfirmFromGateway(ctx, transferID)

	case "transfer.failed", "transfer.reversed":
		transferID, err := transferIDFromEvent(event)
		if err != nil {
			return err
		}
		return h.withdrawals.FailFromGateway(ctx, transferID, string(event.Type))

	default:
		// Unhandled event types are acknowledged so Stripe stops retrying
		h.logger.Debug("Ignoring Stripe event", zap.String("event_type", string(event.Type)))
		return nil
	}
}

func transferIDFromEvent(event stripe.Event) (string, error) {
	var transfer stripe.Transfer
	if err := json.Unmarshal(event.Data.Raw, &transfer); err != nil {
		return "", err
	}
	return transfer.ID, nil
}
