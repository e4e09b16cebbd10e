package referral

import (
	"context"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CodeRepository defines the interface for referral code persistence
type CodeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReferralCode, error)
	FindByCode(ctx context.Context, code string) (*ReferralCode, error)
	FindByOwner(ctx context.Context, ownerUserID uuid.UUID) ([]ReferralCode, error)
	FindByOrganization(ctx context.Context, orgID uuid.UUID) ([]ReferralCode, error)
	Save(ctx context.Context, code *ReferralCode) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// AllocationRepository defines the interface for user code allocations
type AllocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*UserReferralCode, error)
	FindActiveByUser(ctx context.Context, userID uuid.UUID) (AllocationSet, error)
	FindByUserAndCode(ctx context.Context, userID, codeID uuid.UUID) (*UserReferralCode, error)
	Save(ctx context.Context, link *UserReferralCode) error
}

// OrganizationRepository defines the interface for organization persistence
type OrganizationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Organization, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Organization, error)
	Save(ctx context.Context, org *Organization) error
}

// DisbursementRepository defines the interface for disbursement persistence
type DisbursementRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Disbursement, error)
	FindBySourceTransaction(ctx context.Context, txID uuid.UUID) ([]Disbursement, error)
	FindByRecipient(ctx context.Context, recipientUserID uuid.UUID, filter shared.Filter) ([]Disbursement, error)
	FindByOrganization(ctx context.Context, orgID uuid.UUID, filter shared.Filter) ([]Disbursement, error)
	// SumAllocatedForOrganization totals allocated-but-unpaid amounts, used
	// against the organization's minimum payout threshold
	SumAllocatedForOrganization(ctx context.Context, orgID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, d *Disbursement) error
}
