package referral

import (
	"github.com/czachandrew/tru-server/internal/domain/shared"
)

// Event types for the referral context
const (
	EventTypeCodeCreated           = "referral.code_created"
	EventTypeCodeAttached          = "referral.code_attached"
	EventTypeDisbursementAllocated = "referral.disbursement_allocated"

	AggregateTypeReferralCode     = "ReferralCode"
	AggregateTypeUserReferralCode = "UserReferralCode"
	AggregateTypeDisbursement     = "Disbursement"
)

// CodeCreatedEvent is published when a new referral code is issued
type CodeCreatedEvent struct {
	shared.BaseDomainEvent
	Code string `json:"code"`
}

// NewCodeCreatedEvent creates a code created event
func NewCodeCreatedEvent(code *ReferralCode) *CodeCreatedEvent {
	return &CodeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodeCreated, AggregateTypeReferralCode, code.ID),
		Code:            code.Code,
	}
}

// CodeAttachedEvent is published when a user adds a code to their allocations
type CodeAttachedEvent struct {
	shared.BaseDomainEvent
	UserID     string `json:"user_id"`
	CodeID     string `json:"code_id"`
	Percentage string `json:"percentage"`
}

// NewCodeAttachedEvent creates a code attached event
func NewCodeAttachedEvent(link *UserReferralCode) *CodeAttachedEvent {
	return &CodeAttachedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCodeAttached, AggregateTypeUserReferralCode, link.ID),
		UserID:          link.UserID.String(),
		CodeID:          link.ReferralCodeID.String(),
		Percentage:      link.Percentage.String(),
	}
}

// DisbursementAllocatedEvent is published when a disbursement settles
type DisbursementAllocatedEvent struct {
	shared.BaseDomainEvent
	ReferralCodeID string `json:"referral_code_id"`
	Amount         string `json:"amount"`
}

// NewDisbursementAllocatedEvent creates a disbursement allocated event
func NewDisbursementAllocatedEvent(d *Disbursement) *DisbursementAllocatedEvent {
	return &DisbursementAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDisbursementAllocated, AggregateTypeDisbursement, d.ID),
		ReferralCodeID:  d.ReferralCodeID.String(),
		Amount:          d.Amount.String(),
	}
}
