package referral

import (
	"context"
	"fmt"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"go.uber.org/zap"
)

// EarningConfirmedHandler handles EarningConfirmedEvent and splits the
// settled amount across the earning user's active referral allocations
type EarningConfirmedHandler struct {
	disbursementService *DisbursementService
	logger              *zap.Logger
}

// NewEarningConfirmedHandler creates a new handler for confirmed earnings
func NewEarningConfirmedHandler(disbursementService *DisbursementService, logger *zap.Logger) *EarningConfirmedHandler {
	return &EarningConfirmedHandler{
		disbursementService: disbursementService,
		logger:              logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *EarningConfirmedHandler) EventTypes() []string {
	return []string{wallet.EventTypeEarningConfirmed}
}

// Handle allocates referral disbursements from a settled earning.
// Allocation is idempotent per source transaction, so event redelivery is
// harmless.
func (h *EarningConfirmedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	confirmed, ok := event.(*wallet.EarningConfirmedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", wallet.EventTypeEarningConfirmed),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			wallet.EventTypeEarningConfirmed, event.EventType())
	}

	disbursements, err := h.disbursementService.AllocateFromTransaction(
		ctx, confirmed.UserID, confirmed.TransactionID, confirmed.Amount)
	if err != nil {
		h.logger.Error("failed to allocate referral disbursements",
			zap.String("user_id", confirmed.UserID.String()),
			zap.String("transaction_id", confirmed.TransactionID.String()),
			zap.Error(err),
		)
		return err
	}

	if len(disbursements) > 0 {
		h.logger.Info("allocated referral disbursements",
			zap.String("user_id", confirmed.UserID.String()),
			zap.String("transaction_id", confirmed.TransactionID.String()),
			zap.Int("count", len(disbursements)),
		)
	}
	return nil
}
