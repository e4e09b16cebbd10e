package referral

import (
	"context"
	"errors"

	"github.com/czachandrew/tru-server/internal/domain/referral"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// codeGenerationAttempts bounds retries on a code collision
const codeGenerationAttempts = 5

// CodeService manages referral codes and user allocations
type CodeService struct {
	codeRepo  referral.CodeRepository
	allocRepo referral.AllocationRepository
	orgRepo   referral.OrganizationRepository
	eventBus  shared.EventPublisher
}

// NewCodeService creates a new CodeService
func NewCodeService(
	codeRepo referral.CodeRepository,
	allocRepo referral.AllocationRepository,
	orgRepo referral.OrganizationRepository,
	eventBus shared.EventPublisher,
) *CodeService {
	return &CodeService{
		codeRepo:  codeRepo,
		allocRepo: allocRepo,
		orgRepo:   orgRepo,
		eventBus:  eventBus,
	}
}

// CreateUserCode issues a new code owned by the user
func (s *CodeService) CreateUserCode(ctx context.Context, ownerID uuid.UUID) (*CodeResponse, error) {
	code, err := s.uniqueCode(ctx, func() (*referral.ReferralCode, error) {
		return referral.NewUserReferralCode(ownerID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.codeRepo.Save(ctx, code); err != nil {
		return nil, err
	}
	s.publish(ctx, referral.NewCodeCreatedEvent(code))

	response := ToCodeResponse(code)
	return &response, nil
}

// CreateOrganizationCode issues a new code owned by a verified organization
func (s *CodeService) CreateOrganizationCode(ctx context.Context, orgID uuid.UUID) (*CodeResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if !org.IsVerified {
		return nil, shared.NewDomainError("ORG_NOT_VERIFIED", "Organization must be verified before issuing codes")
	}

	code, err := s.uniqueCode(ctx, func() (*referral.ReferralCode, error) {
		return referral.NewOrganizationReferralCode(orgID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.codeRepo.Save(ctx, code); err != nil {
		return nil, err
	}
	s.publish(ctx, referral.NewCodeCreatedEvent(code))

	response := ToCodeResponse(code)
	return &response, nil
}

// GetByCode resolves a user-entered code
func (s *CodeService) GetByCode(ctx context.Context, code string) (*CodeResponse, error) {
	found, err := s.codeRepo.FindByCode(ctx, referral.NormalizeCode(code))
	if err != nil {
		return nil, err
	}
	response := ToCodeResponse(found)
	return &response, nil
}

// OwnedBy lists the codes a user has issued
func (s *CodeService) OwnedBy(ctx context.Context, ownerID uuid.UUID) ([]CodeResponse, error) {
	codes, err := s.codeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	responses := make([]CodeResponse, 0, len(codes))
	for i := range codes {
		responses = append(responses, ToCodeResponse(&codes[i]))
	}
	return responses, nil
}

// Attach adds a code to the user's allocation set at the given percentage.
// The combined giveaway stays within the allocation cap.
func (s *CodeService) Attach(ctx context.Context, userID uuid.UUID, req AttachCodeRequest) (*AllocationSummaryResponse, error) {
	code, err := s.codeRepo.FindByCode(ctx, referral.NormalizeCode(req.Code))
	if err != nil {
		return nil, err
	}
	if !code.IsActive {
		return nil, shared.NewDomainError("CODE_INACTIVE", "Referral code is no longer active")
	}
	if code.IsOwnedByUser(userID) {
		return nil, shared.NewDomainError("SELF_REFERRAL", "You cannot attach your own referral code")
	}

	current, err := s.allocRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	link, err := s.allocRepo.FindByUserAndCode(ctx, userID, code.ID)
	switch {
	case err == nil:
		if link.IsActive {
			return nil, shared.NewDomainError("ALREADY_ATTACHED", "Code is already attached")
		}
		link.IsActive = true
		if err := link.SetPercentage(req.Percentage); err != nil {
			return nil, err
		}
	case errors.Is(err, shared.ErrNotFound):
		link, err = referral.NewUserReferralCodeLink(userID, code.ID, req.Percentage)
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	candidate := append(append(referral.AllocationSet{}, current...), *link)
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	if err := s.allocRepo.Save(ctx, link); err != nil {
		return nil, err
	}
	s.publish(ctx, referral.NewCodeAttachedEvent(link))

	response := ToAllocationSummaryResponse(candidate)
	return &response, nil
}

// SetAllocation changes the percentage routed to an attached code
func (s *CodeService) SetAllocation(ctx context.Context, userID, codeID uuid.UUID, req UpdateAllocationRequest) (*AllocationSummaryResponse, error) {
	link, err := s.allocRepo.FindByUserAndCode(ctx, userID, codeID)
	if err != nil {
		return nil, err
	}
	if !link.IsActive {
		return nil, shared.NewDomainError("NOT_ATTACHED", "Code is not attached")
	}

	current, err := s.allocRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidate := make(referral.AllocationSet, 0, len(current))
	for i := range current {
		if current[i].ID != link.ID {
			candidate = append(candidate, current[i])
		}
	}
	if err := link.SetPercentage(req.Percentage); err != nil {
		return nil, err
	}
	candidate = append(candidate, *link)
	if err := candidate.Validate(); err != nil {
		return nil, err
	}

	if err := s.allocRepo.Save(ctx, link); err != nil {
		return nil, err
	}

	response := ToAllocationSummaryResponse(candidate)
	return &response, nil
}

// Detach removes a code from the user's allocation set
func (s *CodeService) Detach(ctx context.Context, userID, codeID uuid.UUID) (*AllocationSummaryResponse, error) {
	link, err := s.allocRepo.FindByUserAndCode(ctx, userID, codeID)
	if err != nil {
		return nil, err
	}

	link.Deactivate()
	if err := s.allocRepo.Save(ctx, link); err != nil {
		return nil, err
	}

	set, err := s.allocRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToAllocationSummaryResponse(set)
	return &response, nil
}

// Allocations returns the user's active allocation set with the totals
func (s *CodeService) Allocations(ctx context.Context, userID uuid.UUID) (*AllocationSummaryResponse, error) {
	set, err := s.allocRepo.FindActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	response := ToAllocationSummaryResponse(set)
	return &response, nil
}

// DeactivateCode retires a code; existing allocations stop accruing
func (s *CodeService) DeactivateCode(ctx context.Context, codeID uuid.UUID) error {
	code, err := s.codeRepo.FindByID(ctx, codeID)
	if err != nil {
		return err
	}
	code.Deactivate()
	return s.codeRepo.Save(ctx, code)
}

// uniqueCode generates codes until one clears the uniqueness check
func (s *CodeService) uniqueCode(ctx context.Context, build func() (*referral.ReferralCode, error)) (*referral.ReferralCode, error) {
	for i := 0; i < codeGenerationAttempts; i++ {
		code, err := build()
		if err != nil {
			return nil, err
		}
		exists, err := s.codeRepo.ExistsByCode(ctx, code.Code)
		if err != nil {
			return nil, err
		}
		if !exists {
			return code, nil
		}
	}
	return nil, shared.NewDomainError("CODE_COLLISION", "Could not generate a unique referral code")
}

func (s *CodeService) publish(ctx context.Context, event shared.DomainEvent) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, event)
}
