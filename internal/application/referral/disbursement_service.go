package referral

import (
	"context"
	"fmt"

	appwallet "github.com/czachandrew/tru-server/internal/application/wallet"
	"github.com/czachandrew/tru-server/internal/domain/referral"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/czachandrew/tru-server/internal/domain/wallet"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DisbursementService routes slices of confirmed earnings to the owners of
// the referral codes the earning user has attached
type DisbursementService struct {
	codeRepo      referral.CodeRepository
	allocRepo     referral.AllocationRepository
	orgRepo       referral.OrganizationRepository
	disbRepo      referral.DisbursementRepository
	walletService *appwallet.WalletService
	eventBus      shared.EventPublisher
}

// NewDisbursementService creates a new DisbursementService
func NewDisbursementService(
	codeRepo referral.CodeRepository,
	allocRepo referral.AllocationRepository,
	orgRepo referral.OrganizationRepository,
	disbRepo referral.DisbursementRepository,
	walletService *appwallet.WalletService,
	eventBus shared.EventPublisher,
) *DisbursementService {
	return &DisbursementService{
		codeRepo:      codeRepo,
		allocRepo:     allocRepo,
		orgRepo:       orgRepo,
		disbRepo:      disbRepo,
		walletService: walletService,
		eventBus:      eventBus,
	}
}

// AllocateFromTransaction splits a settled earning across the earning user's
// active allocations. User recipients are paid into their wallets
// immediately; organization slices accumulate until the organization clears
// its payout threshold.
func (s *DisbursementService) AllocateFromTransaction(ctx context.Context, fromUserID, sourceTxID uuid.UUID, settledAmount decimal.Decimal) ([]DisbursementResponse, error) {
	if !settledAmount.IsPositive() {
		return nil, nil
	}

	// idempotent against event redelivery
	existing, err := s.disbRepo.FindBySourceTransaction(ctx, sourceTxID)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		responses := make([]DisbursementResponse, 0, len(existing))
		for i := range existing {
			responses = append(responses, ToDisbursementResponse(&existing[i]))
		}
		return responses, nil
	}

	set, err := s.allocRepo.FindActiveByUser(ctx, fromUserID)
	if err != nil {
		return nil, err
	}

	responses := make([]DisbursementResponse, 0, len(set))
	for i := range set {
		alloc := &set[i]
		if !alloc.IsActive {
			continue
		}

		slice := settledAmount.Mul(alloc.Percentage).Div(hundred).Round(2)
		if !slice.IsPositive() {
			continue
		}

		code, err := s.codeRepo.FindByID(ctx, alloc.ReferralCodeID)
		if err != nil {
			return responses, err
		}
		if !code.IsActive {
			continue
		}

		d, err := referral.NewDisbursement(code, fromUserID, sourceTxID, slice)
		if err != nil {
			return responses, err
		}
		if err := d.Allocate(slice); err != nil {
			return responses, err
		}

		if _, err := s.walletService.Debit(ctx, fromUserID, wallet.TransactionReferralDisbursement,
			slice, fmt.Sprintf("Referral share to %s", code.Code), d.ID.String()); err != nil {
			return responses, err
		}

		if d.RecipientUserID != nil {
			if _, err := s.walletService.Credit(ctx, *d.RecipientUserID, wallet.TransactionReferralDisbursement,
				slice, fmt.Sprintf("Referral share from code %s", code.Code), d.ID.String()); err != nil {
				return responses, err
			}
			if err := d.MarkPaid(); err != nil {
				return responses, err
			}
		}

		if err := s.disbRepo.Save(ctx, d); err != nil {
			return responses, err
		}
		s.publish(ctx, referral.NewDisbursementAllocatedEvent(d))
		responses = append(responses, ToDisbursementResponse(d))
	}

	return responses, nil
}

// CancelForTransaction voids unpaid disbursements when the source earning
// is cancelled
func (s *DisbursementService) CancelForTransaction(ctx context.Context, sourceTxID uuid.UUID) error {
	disbursements, err := s.disbRepo.FindBySourceTransaction(ctx, sourceTxID)
	if err != nil {
		return err
	}

	for i := range disbursements {
		d := &disbursements[i]
		if d.Status == referral.DisbursementStatusPaid || d.Status == referral.DisbursementStatusCancelled {
			continue
		}
		if err := d.Cancel(); err != nil {
			return err
		}
		if err := s.disbRepo.Save(ctx, d); err != nil {
			return err
		}
	}
	return nil
}

// ForRecipient lists disbursements received by a user
func (s *DisbursementService) ForRecipient(ctx context.Context, userID uuid.UUID, filter shared.Filter) ([]DisbursementResponse, error) {
	disbursements, err := s.disbRepo.FindByRecipient(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]DisbursementResponse, 0, len(disbursements))
	for i := range disbursements {
		responses = append(responses, ToDisbursementResponse(&disbursements[i]))
	}
	return responses, nil
}

// PayOrganization marks an organization's accumulated disbursements paid
// once they clear the payout threshold. The actual transfer goes out to the
// organization's payout email through the operations process.
func (s *DisbursementService) PayOrganization(ctx context.Context, orgID uuid.UUID) (*OrgPayoutResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsVerified {
		return nil, shared.NewDomainError("ORG_NOT_VERIFIED", "Organization must be verified before payouts")
	}

	total, err := s.disbRepo.SumAllocatedForOrganization(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if total.LessThan(org.MinPayoutAmount) {
		return nil, shared.ErrBelowMinimum
	}

	filter := shared.DefaultFilter()
	disbursements, err := s.disbRepo.FindByOrganization(ctx, orgID, filter)
	if err != nil {
		return nil, err
	}

	result := &OrgPayoutResponse{OrganizationID: orgID}
	for i := range disbursements {
		d := &disbursements[i]
		if d.Status != referral.DisbursementStatusAllocated {
			continue
		}
		if err := d.MarkPaid(); err != nil {
			return result, err
		}
		if err := s.disbRepo.Save(ctx, d); err != nil {
			return result, err
		}
		result.Total = result.Total.Add(d.Amount)
		result.Disbursements++
	}
	return result, nil
}

func (s *DisbursementService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, event)
}
