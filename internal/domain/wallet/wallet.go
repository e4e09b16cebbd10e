package wallet

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Default wallet parameters
var (
	// DefaultRevenueShareRate is the base share of affiliate revenue paid
	// to the referring user (15%)
	DefaultRevenueShareRate = decimal.NewFromFloat(0.15)

	// DefaultMinCashout is the smallest balance a user may cash out
	DefaultMinCashout = decimal.NewFromInt(25)
)

// Wallet tracks a user's earnings balances. Projected earnings sit in
// PendingBalance until the platform confirms settlement, then move to
// AvailableBalance.
type Wallet struct {
	shared.OwnedAggregateRoot
	AvailableBalance decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PendingBalance   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	LifetimeEarnings decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	RevenueShareRate decimal.Decimal `gorm:"type:decimal(6,4);not null;default:0.15"`
	ActivityScore    decimal.Decimal `gorm:"type:decimal(4,2);not null;default:1"`
	MinCashout       decimal.Decimal `gorm:"type:decimal(8,2);not null;default:25"`
}

// TableName returns the table name for GORM
func (Wallet) TableName() string {
	return "wallets"
}

// NewWallet creates a wallet for a user with default parameters
func NewWallet(userID uuid.UUID) (*Wallet, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	return &Wallet{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		AvailableBalance:   decimal.Zero,
		PendingBalance:     decimal.Zero,
		LifetimeEarnings:   decimal.Zero,
		RevenueShareRate:   DefaultRevenueShareRate,
		ActivityScore:      decimal.NewFromInt(1),
		MinCashout:         DefaultMinCashout,
	}, nil
}

// ProjectEarning adds a projected (unsettled) earning to the pending balance
func (w *Wallet) ProjectEarning(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Projected earning must be positive")
	}
	w.PendingBalance = w.PendingBalance.Add(amount)
	w.touch()
	return nil
}

// ConfirmEarning settles a projected earning: the projected amount leaves
// pending and the settled amount lands in available. The returned
// adjustment (settled - projected) is non-zero when the platform reported a
// different final figure.
func (w *Wallet) ConfirmEarning(projected, settled decimal.Decimal) (decimal.Decimal, error) {
	if !projected.IsPositive() || settled.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Invalid confirmation amounts")
	}
	if projected.GreaterThan(w.PendingBalance) {
		return decimal.Zero, shared.NewDomainError("PENDING_MISMATCH", "Projected amount exceeds pending balance")
	}

	w.PendingBalance = w.PendingBalance.Sub(projected)
	w.AvailableBalance = w.AvailableBalance.Add(settled)
	w.LifetimeEarnings = w.LifetimeEarnings.Add(settled)
	w.touch()

	return settled.Sub(projected), nil
}

// CancelProjection removes a projected earning that will never settle
func (w *Wallet) CancelProjection(amount decimal.Decimal) error {
	if amount.GreaterThan(w.PendingBalance) {
		return shared.NewDomainError("PENDING_MISMATCH", "Amount exceeds pending balance")
	}
	w.PendingBalance = w.PendingBalance.Sub(amount)
	w.touch()
	return nil
}

// Debit removes funds from the available balance (withdrawals and fees)
func (w *Wallet) Debit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Debit amount must be positive")
	}
	if amount.GreaterThan(w.AvailableBalance) {
		return shared.ErrInsufficientBalance
	}
	w.AvailableBalance = w.AvailableBalance.Sub(amount)
	w.touch()
	return nil
}

// Credit returns funds to the available balance (failed payout refunds,
// bonuses, referral disbursements)
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Credit amount must be positive")
	}
	w.AvailableBalance = w.AvailableBalance.Add(amount)
	w.touch()
	return nil
}

// CanCashOut reports whether the amount clears both the wallet minimum and
// the available balance
func (w *Wallet) CanCashOut(amount decimal.Decimal) error {
	if amount.LessThan(w.MinCashout) {
		return shared.ErrBelowMinimum
	}
	if amount.GreaterThan(w.AvailableBalance) {
		return shared.ErrInsufficientBalance
	}
	return nil
}

// UpdateActivity stores a freshly computed activity score and the revenue
// share rate derived from it
func (w *Wallet) UpdateActivity(score, rate decimal.Decimal) {
	w.ActivityScore = score
	w.RevenueShareRate = rate
	w.touch()
}

func (w *Wallet) touch() {
	w.UpdatedAt = time.Now()
	w.IncrementVersion()
}
