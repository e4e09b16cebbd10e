package referral

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DisbursementStatus tracks a referral disbursement's lifecycle
type DisbursementStatus string

const (
	DisbursementStatusPending   DisbursementStatus = "pending"
	DisbursementStatusAllocated DisbursementStatus = "allocated"
	DisbursementStatusPaid      DisbursementStatus = "paid"
	DisbursementStatusCancelled DisbursementStatus = "cancelled"
)

// Disbursement is one slice of a confirmed earning routed to a referral
// code's owner. Pending while the source earning is projected; allocated
// once it settles; paid when funds actually move.
type Disbursement struct {
	shared.BaseAggregateRoot
	ReferralCodeID uuid.UUID `gorm:"type:uuid;not null;index"`
	// FromUserID is the user whose earning is being shared
	FromUserID uuid.UUID `gorm:"type:uuid;not null;index"`
	// Exactly one recipient is set, mirroring ReferralCode ownership
	RecipientUserID *uuid.UUID `gorm:"type:uuid;index"`
	OrganizationID  *uuid.UUID `gorm:"type:uuid;index"`
	// SourceTransactionID is the wallet ledger entry this slice came from
	SourceTransactionID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Amount              decimal.Decimal    `gorm:"type:decimal(12,2);not null"`
	Status              DisbursementStatus `gorm:"type:varchar(20);not null;default:'pending';index"`
	PaidAt              *time.Time
}

// TableName returns the table name for GORM
func (Disbursement) TableName() string {
	return "referral_disbursements"
}

// NewDisbursement creates a pending disbursement against a projected earning
func NewDisbursement(code *ReferralCode, fromUserID, sourceTxID uuid.UUID, amount decimal.Decimal) (*Disbursement, error) {
	if fromUserID == uuid.Nil || sourceTxID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_REFERENCE", "Source user and transaction are required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Disbursement amount must be positive")
	}

	return &Disbursement{
		BaseAggregateRoot:   shared.NewBaseAggregateRoot(),
		ReferralCodeID:      code.ID,
		FromUserID:          fromUserID,
		RecipientUserID:     code.OwnerUserID,
		OrganizationID:      code.OrganizationID,
		SourceTransactionID: sourceTxID,
		Amount:              amount,
		Status:              DisbursementStatusPending,
	}, nil
}

// Allocate locks in the disbursement once the source earning settles. The
// settled amount may differ from the projection.
func (d *Disbursement) Allocate(settledAmount decimal.Decimal) error {
	if d.Status != DisbursementStatusPending {
		return shared.ErrInvalidState
	}
	if !settledAmount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Settled amount must be positive")
	}
	d.Amount = settledAmount
	d.Status = DisbursementStatusAllocated
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// MarkPaid records that funds moved to the recipient
func (d *Disbursement) MarkPaid() error {
	if d.Status != DisbursementStatusAllocated {
		return shared.ErrInvalidState
	}
	now := time.Now()
	d.Status = DisbursementStatusPaid
	d.PaidAt = &now
	d.UpdatedAt = now
	d.IncrementVersion()
	return nil
}

// Cancel voids a disbursement whose source earning never settled
func (d *Disbursement) Cancel() error {
	if d.Status == DisbursementStatusPaid {
		return shared.ErrInvalidState
	}
	d.Status = DisbursementStatusCancelled
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}
