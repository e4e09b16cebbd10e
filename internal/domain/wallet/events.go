package wallet

import (
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeWallet        = "Wallet"
	AggregateTypePayoutRequest = "PayoutRequest"
)

// Event type constants
const (
	EventTypeEarningProjected = "EarningProjected"
	EventTypeEarningConfirmed = "EarningConfirmed"
	EventTypePayoutRequested  = "PayoutRequested"
	EventTypePayoutCompleted  = "PayoutCompleted"
	EventTypePayoutFailed     = "PayoutFailed"
)

// EarningProjectedEvent is published when a conversion produces a pending earning
type EarningProjectedEvent struct {
	shared.BaseDomainEvent
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewEarningProjectedEvent creates a new EarningProjectedEvent
func NewEarningProjectedEvent(w *Wallet, tx *Transaction) *EarningProjectedEvent {
	return &EarningProjectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEarningProjected, AggregateTypeWallet, w.ID),
		UserID:          w.UserID,
		TransactionID:   tx.ID,
		Amount:          tx.Amount,
	}
}

// EarningConfirmedEvent is published when a projected earning settles.
// Referral disbursement allocation listens for this.
type EarningConfirmedEvent struct {
	shared.BaseDomainEvent
	UserID        uuid.UUID       `json:"user_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Amount        decimal.Decimal `json:"amount"`
	Adjustment    decimal.Decimal `json:"adjustment"`
}

// NewEarningConfirmedEvent creates a new EarningConfirmedEvent
func NewEarningConfirmedEvent(w *Wallet, tx *Transaction, adjustment decimal.Decimal) *EarningConfirmedEvent {
	return &EarningConfirmedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEarningConfirmed, AggregateTypeWallet, w.ID),
		UserID:          w.UserID,
		TransactionID:   tx.ID,
		Amount:          tx.Amount,
		Adjustment:      adjustment,
	}
}

// PayoutRequestedEvent is published when a user requests a withdrawal
type PayoutRequestedEvent struct {
	shared.BaseDomainEvent
	UserID   uuid.UUID       `json:"user_id"`
	PayoutID uuid.UUID       `json:"payout_id"`
	Method   PayoutMethod    `json:"method"`
	Amount   decimal.Decimal `json:"amount"`
}

// NewPayoutRequestedEvent creates a new PayoutRequestedEvent
func NewPayoutRequestedEvent(p *PayoutRequest) *PayoutRequestedEvent {
	return &PayoutRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutRequested, AggregateTypePayoutRequest, p.ID),
		UserID:          p.UserID,
		PayoutID:        p.ID,
		Method:          p.Method,
		Amount:          p.Amount,
	}
}

// PayoutCompletedEvent is published when a payout settles at the gateway
type PayoutCompletedEvent struct {
	shared.BaseDomainEvent
	UserID     uuid.UUID       `json:"user_id"`
	PayoutID   uuid.UUID       `json:"payout_id"`
	NetAmount  decimal.Decimal `json:"net_amount"`
	GatewayRef string          `json:"gateway_ref"`
}

// NewPayoutCompletedEvent creates a new PayoutCompletedEvent
func NewPayoutCompletedEvent(p *PayoutRequest) *PayoutCompletedEvent {
	return &PayoutCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutCompleted, AggregateTypePayoutRequest, p.ID),
		UserID:          p.UserID,
		PayoutID:        p.ID,
		NetAmount:       p.NetAmount(),
		GatewayRef:      p.GatewayReference,
	}
}

// PayoutFailedEvent is published when the gateway rejects a payout
type PayoutFailedEvent struct {
	shared.BaseDomainEvent
	UserID    uuid.UUID `json:"user_id"`
	PayoutID  uuid.UUID `json:"payout_id"`
	Reason    string    `json:"reason"`
	WillRetry bool      `json:"will_retry"`
}

// NewPayoutFailedEvent creates a new PayoutFailedEvent
func NewPayoutFailedEvent(p *PayoutRequest) *PayoutFailedEvent {
	return &PayoutFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePayoutFailed, AggregateTypePayoutRequest, p.ID),
		UserID:          p.UserID,
		PayoutID:        p.ID,
		Reason:          p.LastError,
		WillRetry:       p.CanRetry(),
	}
}
