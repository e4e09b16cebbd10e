package wallet

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates the wallet ledger entry kinds
type TransactionType string

const (
	TransactionEarningProjected     TransactionType = "EARNING_PROJECTED"
	TransactionEarningConfirmed     TransactionType = "EARNING_CONFIRMED"
	TransactionEarningAdjusted      TransactionType = "EARNING_ADJUSTED"
	TransactionWithdrawal           TransactionType = "WITHDRAWAL"
	TransactionWithdrawalFee        TransactionType = "WITHDRAWAL_FEE"
	TransactionReferralDisbursement TransactionType = "REFERRAL_DISBURSEMENT"
	TransactionBonus                TransactionType = "BONUS"
)

// TransactionStatus tracks a ledger entry's settlement state
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Transaction is one immutable-ish wallet ledger entry. Amounts are signed:
// earnings positive, withdrawals and fees negative.
type Transaction struct {
	shared.OwnedAggregateRoot
	Type   TransactionType   `gorm:"type:varchar(30);not null;index"`
	Status TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	Amount decimal.Decimal   `gorm:"type:decimal(12,2);not null"`
	// Balance snapshots taken after the entry applied
	AvailableAfter decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	PendingAfter   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Description    string          `gorm:"type:varchar(500)"`
	// SourceLinkID ties earnings back to the affiliate link that produced them
	SourceLinkID *uuid.UUID `gorm:"type:uuid;index"`
	OrderRef     string     `gorm:"type:varchar(100);index"`
	Metadata     string     `gorm:"type:jsonb;default:'{}'"`
	ConfirmedAt  *time.Time
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "wallet_transactions"
}

// NewTransaction creates a ledger entry for a user
func NewTransaction(userID uuid.UUID, txType TransactionType, amount decimal.Decimal, description string) (*Transaction, error) {
	if userID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Transaction amount cannot be zero")
	}

	return &Transaction{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(userID),
		Type:               txType,
		Status:             TransactionStatusPending,
		Amount:             amount,
		Description:        description,
		Metadata:           "{}",
	}, nil
}

// SnapshotBalances records the wallet balances after this entry applied
func (t *Transaction) SnapshotBalances(w *Wallet) {
	t.AvailableAfter = w.AvailableBalance
	t.PendingAfter = w.PendingBalance
}

// AttachSource ties the entry to the affiliate link and order it came from
func (t *Transaction) AttachSource(linkID uuid.UUID, orderRef string) {
	t.SourceLinkID = &linkID
	t.OrderRef = orderRef
}

// Confirm settles the entry
func (t *Transaction) Confirm() error {
	if t.Status != TransactionStatusPending {
		return shared.ErrInvalidState
	}
	now := time.Now()
	t.Status = TransactionStatusConfirmed
	t.ConfirmedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// Cancel voids a pending entry
func (t *Transaction) Cancel() error {
	if t.Status != TransactionStatusPending {
		return shared.ErrInvalidState
	}
	t.Status = TransactionStatusCancelled
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// Fail marks a pending entry as failed
func (t *Transaction) Fail() error {
	if t.Status != TransactionStatusPending {
		return shared.ErrInvalidState
	}
	t.Status = TransactionStatusFailed
	t.UpdatedAt = time.Now()
	t.IncrementVersion()
	return nil
}

// IsEarning reports whether the entry adds to the user's earnings
func (t *Transaction) IsEarning() bool {
	switch t.Type {
	case TransactionEarningProjected, TransactionEarningConfirmed,
		TransactionEarningAdjusted, TransactionReferralDisbursement, TransactionBonus:
		return true
	}
	return false
}
