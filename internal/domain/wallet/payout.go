package wallet

import (
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PayoutMethod enumerates the supported withdrawal rails
type PayoutMethod string

const (
	PayoutMethodStripe       PayoutMethod = "stripe"
	PayoutMethodPaypal       PayoutMethod = "paypal"
	PayoutMethodBankTransfer PayoutMethod = "bank_transfer"
	PayoutMethodCheck        PayoutMethod = "check"
)

// Per-method minimum withdrawal amounts (USD)
var payoutMinimums = map[PayoutMethod]decimal.Decimal{
	PayoutMethodStripe:       decimal.NewFromInt(10),
	PayoutMethodPaypal:       decimal.NewFromInt(10),
	PayoutMethodBankTransfer: decimal.NewFromInt(25),
	PayoutMethodCheck:        decimal.NewFromInt(50),
}

// Per-method flat fees (USD)
var payoutFees = map[PayoutMethod]decimal.Decimal{
	PayoutMethodStripe:       decimal.NewFromFloat(0.25),
	PayoutMethodPaypal:       decimal.NewFromFloat(0.30),
	PayoutMethodBankTransfer: decimal.NewFromFloat(5.00),
	PayoutMethodCheck:        decimal.NewFromFloat(2.50),
}

// ValidPayoutMethod reports whether the method is supported
func ValidPayoutMethod(m PayoutMethod) bool {
	_, ok := payoutMinimums[m]
	return ok
}

// MinimumFor returns the minimum withdrawal amount for a method
func MinimumFor(m PayoutMethod) decimal.Decimal {
	return payoutMinimums[m]
}

// FeeFor returns the flat fee charged for a method
func FeeFor(m PayoutMethod) decimal.Decimal {
	return payoutFees[m]
}

// PayoutStatus tracks a payout request's lifecycle
type PayoutStatus string

const (
	PayoutStatusPending    PayoutStatus = "pending"
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
	PayoutStatusCancelled  PayoutStatus = "cancelled"
)

// DefaultMaxPayoutRetries bounds automatic payout retries
const DefaultMaxPayoutRetries = 3

// payoutRetryBase is the first retry delay; each attempt doubles it
const payoutRetryBase = time.Hour

// PayoutRequest is a user's request to move wallet funds out of the
// platform. Stripe and PayPal requests are processed automatically; bank
// transfers and checks wait for admin approval.
type PayoutRequest struct {
	shared.OwnedAggregateRoot
	Amount decimal.Decimal `gorm:"type:decimal(12,2);not null"` // gross, before fee
	Fee    decimal.Decimal `gorm:"type:decimal(8,2);not null"`
	Method PayoutMethod    `gorm:"type:varchar(20);not null"`
	Status PayoutStatus    `gorm:"type:varchar(20);not null;default:'pending';index"`
	// Destination is the method-specific target: Stripe account ID, PayPal
	// email, masked bank account or mailing address
	Destination      string `gorm:"type:varchar(254);not null"`
	GatewayReference string `gorm:"type:varchar(100);index"` // e.g. Stripe transfer ID
	RetryCount       int    `gorm:"not null;default:0"`
	MaxRetries       int    `gorm:"not null;default:3"`
	NextRetryAt      *time.Time
	LastError        string `gorm:"type:varchar(500)"`
	ProcessedAt      *time.Time
}

// TableName returns the table name for GORM
func (PayoutRequest) TableName() string {
	return "payout_requests"
}

// NewPayoutRequest creates a payout request, validating the method minimum
func NewPayoutRequest(userID uuid.UUID, method PayoutMethod, amount decimal.Decimal, destination string) (*PayoutRequest, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	if !ValidPayoutMethod(method) {
		return nil, shared.NewDomainError("INVALID_METHOD", "Unsupported payout method")
	}
	if amount.LessThan(MinimumFor(method)) {
		return nil, shared.ErrBelowMinimum
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, shared.NewDomainError("INVALID_DESTINATION", "Payout destination is required")
	}

	return &PayoutRequest{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Amount:             amount,
		Fee:                FeeFor(method),
		Method:             method,
		Status:             PayoutStatusPending,
		Destination:        destination,
		MaxRetries:         DefaultMaxPayoutRetries,
	}, nil
}

// NetAmount returns the amount actually sent after the fee
func (p *PayoutRequest) NetAmount() decimal.Decimal {
	return p.Amount.Sub(p.Fee)
}

// TotalDebit returns what leaves the wallet: amount plus nothing — the fee
// is carved out of the gross amount, not added on top
func (p *PayoutRequest) TotalDebit() decimal.Decimal {
	return p.Amount
}

// RequiresApproval reports whether an admin must approve before processing
func (p *PayoutRequest) RequiresApproval() bool {
	return p.Method == PayoutMethodBankTransfer || p.Method == PayoutMethodCheck
}

// MarkProcessing moves the request into the gateway pipeline
func (p *PayoutRequest) MarkProcessing() error {
	if p.Status != PayoutStatusPending && p.Status != PayoutStatusFailed {
		return shared.ErrInvalidState
	}
	p.Status = PayoutStatusProcessing
	p.LastError = ""
	p.touch()
	return nil
}

// Complete records a successful payout
func (p *PayoutRequest) Complete(gatewayRef string) error {
	if p.Status != PayoutStatusProcessing {
		return shared.ErrInvalidState
	}
	now := time.Now()
	p.Status = PayoutStatusCompleted
	p.GatewayReference = gatewayRef
	p.ProcessedAt = &now
	p.NextRetryAt = nil
	p.touch()
	return nil
}

// Fail records a gateway failure and schedules a retry when attempts
// remain; the caller refunds the wallet once retries are exhausted
func (p *PayoutRequest) Fail(reason string, now time.Time) {
	p.Status = PayoutStatusFailed
	p.LastError = reason
	p.RetryCount++
	if p.CanRetry() {
		next := now.Add(payoutRetryBase << uint(p.RetryCount-1))
		p.NextRetryAt = &next
	} else {
		p.NextRetryAt = nil
	}
	p.touch()
}

// CanRetry reports whether automatic retries remain
func (p *PayoutRequest) CanRetry() bool {
	return p.RetryCount < p.MaxRetries
}

// ReadyForRetry reports whether a failed request should be retried now
func (p *PayoutRequest) ReadyForRetry(now time.Time) bool {
	return p.Status == PayoutStatusFailed && p.CanRetry() &&
		p.NextRetryAt != nil && !now.Before(*p.NextRetryAt)
}

// Cancel voids the request; only pending requests can be cancelled
func (p *PayoutRequest) Cancel() error {
	if p.Status != PayoutStatusPending {
		return shared.ErrInvalidState
	}
	p.Status = PayoutStatusCancelled
	p.touch()
	return nil
}

// Reject is an admin rejection of a pending approval-required request
func (p *PayoutRequest) Reject(reason string) error {
	if p.Status != PayoutStatusPending {
		return shared.ErrInvalidState
	}
	p.Status = PayoutStatusCancelled
	p.LastError = reason
	p.touch()
	return nil
}

func (p *PayoutRequest) touch() {
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
