package referral

import (
	"time"

	"github.com/czachandrew/tru-server/internal/domain/referral"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AttachCodeRequest adds a referral code to the caller's allocations
type AttachCodeRequest struct {
	Code       string          `json:"code" binding:"required,max=16"`
	Percentage decimal.Decimal `json:"percentage" binding:"required"`
}

// UpdateAllocationRequest changes the slice routed to an attached code
type UpdateAllocationRequest struct {
	Percentage decimal.Decimal `json:"percentage" binding:"required"`
}

// CreateOrganizationRequest registers a referral organization
type CreateOrganizationRequest struct {
	Name        string `json:"name" binding:"required,max=200"`
	PayoutEmail string `json:"payout_email" binding:"required,email"`
	Type        string `json:"type" binding:"required,oneof=church school nonprofit other"`
}

// CodeResponse represents a referral code in API responses
type CodeResponse struct {
	ID             uuid.UUID  `json:"id"`
	Code           string     `json:"code"`
	OwnerUserID    *uuid.UUID `json:"owner_user_id,omitempty"`
	OrganizationID *uuid.UUID `json:"organization_id,omitempty"`
	IsActive       bool       `json:"is_active"`
	CreatedAt      time.Time  `json:"created_at"`
}

// AllocationResponse represents one attached code in API responses
type AllocationResponse struct {
	ID             uuid.UUID       `json:"id"`
	ReferralCodeID uuid.UUID       `json:"referral_code_id"`
	Percentage     decimal.Decimal `json:"percentage"`
	IsActive       bool            `json:"is_active"`
}

// AllocationSummaryResponse is a user's allocation set with the totals
type AllocationSummaryResponse struct {
	Allocations []AllocationResponse `json:"allocations"`
	TotalShared decimal.Decimal      `json:"total_shared"`
	UserShare   decimal.Decimal      `json:"user_share"`
}

// OrganizationResponse represents an organization in API responses
type OrganizationResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Type            string          `json:"type"`
	PayoutEmail     string          `json:"payout_email"`
	MinPayoutAmount decimal.Decimal `json:"min_payout_amount"`
	IsVerified      bool            `json:"is_verified"`
	CreatedAt       time.Time       `json:"created_at"`
}

// DisbursementResponse represents a referral disbursement in API responses
type DisbursementResponse struct {
	ID                  uuid.UUID       `json:"id"`
	ReferralCodeID      uuid.UUID       `json:"referral_code_id"`
	FromUserID          uuid.UUID       `json:"from_user_id"`
	RecipientUserID     *uuid.UUID      `json:"recipient_user_id,omitempty"`
	OrganizationID      *uuid.UUID      `json:"organization_id,omitempty"`
	SourceTransactionID uuid.UUID       `json:"source_transaction_id"`
	Amount              decimal.Decimal `json:"amount"`
	Status              string          `json:"status"`
	PaidAt              *time.Time      `json:"paid_at,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
}

// OrgPayoutResponse summarizes an organization payout run
type OrgPayoutResponse struct {
	OrganizationID uuid.UUID       `json:"organization_id"`
	Total          decimal.Decimal `json:"total"`
	Disbursements  int             `json:"disbursements"`
}

// ToCodeResponse converts a domain referral code to CodeResponse
func ToCodeResponse(c *referral.ReferralCode) CodeResponse {
	return CodeResponse{
		ID:             c.ID,
		Code:           c.Code,
		OwnerUserID:    c.OwnerUserID,
		OrganizationID: c.OrganizationID,
		IsActive:       c.IsActive,
		CreatedAt:      c.CreatedAt,
	}
}

// ToAllocationResponse converts an attached code to AllocationResponse
func ToAllocationResponse(l *referral.UserReferralCode) AllocationResponse {
	return AllocationResponse{
		ID:             l.ID,
		ReferralCodeID: l.ReferralCodeID,
		Percentage:     l.Percentage,
		IsActive:       l.IsActive,
	}
}

// ToAllocationSummaryResponse converts an allocation set with its totals
func ToAllocationSummaryResponse(set referral.AllocationSet) AllocationSummaryResponse {
	allocations := make([]AllocationResponse, 0, len(set))
	for i := range set {
		if set[i].IsActive {
			allocations = append(allocations, ToAllocationResponse(&set[i]))
		}
	}
	return AllocationSummaryResponse{
		Allocations: allocations,
		TotalShared: set.Total(),
		UserShare:   set.UserShare(),
	}
}

// ToOrganizationResponse converts a domain organization to OrganizationResponse
func ToOrganizationResponse(o *referral.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:              o.ID,
		Name:            o.Name,
		Type:            string(o.Type),
		PayoutEmail:     o.PayoutEmail,
		MinPayoutAmount: o.MinPayoutAmount,
		IsVerified:      o.IsVerified,
		CreatedAt:       o.CreatedAt,
	}
}

// ToDisbursementResponse converts a domain disbursement to DisbursementResponse
func ToDisbursementResponse(d *referral.Disbursement) DisbursementResponse {
	return DisbursementResponse{
		ID:                  d.ID,
		ReferralCodeID:      d.ReferralCodeID,
		FromUserID:          d.FromUserID,
		RecipientUserID:     d.RecipientUserID,
		OrganizationID:      d.OrganizationID,
		SourceTransactionID: d.SourceTransactionID,
		Amount:              d.Amount,
		Status:              string(d.Status),
		PaidAt:              d.PaidAt,
		CreatedAt:           d.CreatedAt,
	}
}
