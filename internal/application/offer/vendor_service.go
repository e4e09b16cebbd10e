package offer

import (
	"context"
	"errors"

	"github.com/czachandrew/tru-server/internal/domain/offer"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorService handles vendor-related business operations
type VendorService struct {
	vendorRepo offer.VendorRepository
}

// NewVendorService creates a new VendorService
func NewVendorService(vendorRepo offer.VendorRepository) *VendorService {
	return &VendorService{vendorRepo: vendorRepo}
}

// Create registers a new vendor
func (s *VendorService) Create(ctx context.Context, req CreateVendorRequest) (*VendorResponse, error) {
	if _, err := s.vendorRepo.FindByName(ctx, req.Name); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Vendor name is taken")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	vendor, err := offer.NewVendor(req.Name, offer.VendorType(req.Type))
	if err != nil {
		return nil, err
	}
	vendor.ContactEmail = req.ContactEmail
	vendor.Website = req.Website
	if req.DefaultCommissionRate != nil {
		if err := vendor.SetCommissionRate(*req.DefaultCommissionRate); err != nil {
			return nil, err
		}
	}

	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, err
	}

	response := ToVendorResponse(vendor)
	return &response, nil
}

// GetByID retrieves a vendor by ID
func (s *VendorService) GetByID(ctx context.Context, id uuid.UUID) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToVendorResponse(vendor)
	return &response, nil
}

// GetBySlug retrieves a vendor by slug
func (s *VendorService) GetBySlug(ctx context.Context, slug string) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	response := ToVendorResponse(vendor)
	return &response, nil
}

// List retrieves all vendors
func (s *VendorService) List(ctx context.Context) ([]VendorResponse, error) {
	vendors, err := s.vendorRepo.FindAll(ctx, shared.DefaultFilter())
	if err != nil {
		return nil, err
	}

	responses := make([]VendorResponse, 0, len(vendors))
	for i := range vendors {
		responses = append(responses, ToVendorResponse(&vendors[i]))
	}
	return responses, nil
}

// SetCommissionRate updates a vendor's default commission percentage
func (s *VendorService) SetCommissionRate(ctx context.Context, id uuid.UUID, rate decimal.Decimal) (*VendorResponse, error) {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := vendor.SetCommissionRate(rate); err != nil {
		return nil, err
	}
	if err := s.vendorRepo.Save(ctx, vendor); err != nil {
		return nil, err
	}

	response := ToVendorResponse(vendor)
	return &response, nil
}

// Deactivate hides the vendor and its offers from listings
func (s *VendorService) Deactivate(ctx context.Context, id uuid.UUID) error {
	vendor, err := s.vendorRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	vendor.Deactivate()
	return s.vendorRepo.Save(ctx, vendor)
}
