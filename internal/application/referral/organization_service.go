package referral

import (
	"context"

	"github.com/czachandrew/tru-server/internal/domain/referral"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrganizationService manages referral organizations
type OrganizationService struct {
	orgRepo  referral.OrganizationRepository
	disbRepo referral.DisbursementRepository
}

// NewOrganizationService creates a new OrganizationService
func NewOrganizationService(orgRepo referral.OrganizationRepository, disbRepo referral.DisbursementRepository) *OrganizationService {
	return &OrganizationService{orgRepo: orgRepo, disbRepo: disbRepo}
}

// Create registers a new organization; it starts unverified
func (s *OrganizationService) Create(ctx context.Context, req CreateOrganizationRequest) (*OrganizationResponse, error) {
	org, err := referral.NewOrganization(req.Name, req.PayoutEmail, referral.OrganizationType(req.Type))
	if err != nil {
		return nil, err
	}

	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	response := ToOrganizationResponse(org)
	return &response, nil
}

// GetByID returns an organization by its ID
func (s *OrganizationService) GetByID(ctx context.Context, id uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOrganizationResponse(org)
	return &response, nil
}

// List returns organizations with pagination
func (s *OrganizationService) List(ctx context.Context, filter shared.Filter) ([]OrganizationResponse, error) {
	orgs, err := s.orgRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	responses := make([]OrganizationResponse, 0, len(orgs))
	for i := range orgs {
		responses = append(responses, ToOrganizationResponse(&orgs[i]))
	}
	return responses, nil
}

// Verify marks an organization as vetted for payouts
func (s *OrganizationService) Verify(ctx context.Context, id uuid.UUID) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	org.Verify()
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	response := ToOrganizationResponse(org)
	return &response, nil
}

// SetMinPayout adjusts an organization's accumulation threshold
func (s *OrganizationService) SetMinPayout(ctx context.Context, id uuid.UUID, amount decimal.Decimal) (*OrganizationResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := org.SetMinPayout(amount); err != nil {
		return nil, err
	}
	if err := s.orgRepo.Save(ctx, org); err != nil {
		return nil, err
	}

	response := ToOrganizationResponse(org)
	return &response, nil
}

// PendingBalance returns the allocated-but-unpaid total accrued to an
// organization, measured against its payout threshold
func (s *OrganizationService) PendingBalance(ctx context.Context, id uuid.UUID) (decimal.Decimal, error) {
	if _, err := s.orgRepo.FindByID(ctx, id); err != nil {
		return decimal.Zero, err
	}
	return s.disbRepo.SumAllocatedForOrganization(ctx, id)
}
