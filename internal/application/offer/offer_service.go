package offer

import (
	"context"
	"errors"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/offer"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// OfferService handles offer-related business operations
type OfferService struct {
	offerRepo   offer.Repository
	vendorRepo  offer.VendorRepository
	productRepo catalog.ProductRepository
	eventBus    shared.EventPublisher
}

// NewOfferService creates a new OfferService
func NewOfferService(
	offerRepo offer.Repository,
	vendorRepo offer.VendorRepository,
	productRepo catalog.ProductRepository,
	eventBus shared.EventPublisher,
) *OfferService {
	return &OfferService{
		offerRepo:   offerRepo,
		vendorRepo:  vendorRepo,
		productRepo: productRepo,
		eventBus:    eventBus,
	}
}

// Create lists a vendor's price for a product. A vendor gets one offer per
// product; price refreshes go through UpdatePrice instead.
func (s *OfferService) Create(ctx context.Context, req CreateOfferRequest) (*OfferResponse, error) {
	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.IsSellable() {
		return nil, shared.NewDomainError("PRODUCT_NOT_SELLABLE", "Offers can only be attached to active products")
	}

	vendor, err := s.vendorRepo.FindByID(ctx, req.VendorID)
	if err != nil {
		return nil, err
	}
	if !vendor.IsActive {
		return nil, shared.NewDomainError("VENDOR_INACTIVE", "Vendor is deactivated")
	}

	existing, err := s.offerRepo.FindByProductAndVendor(ctx, req.ProductID, req.VendorID)
	if err == nil && existing.IsActive {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Vendor already has an offer on this product")
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	rate := vendor.DefaultCommissionRate
	if req.CommissionRate != nil {
		rate = *req.CommissionRate
	}

	o, err := offer.NewOffer(req.ProductID, req.VendorID, offer.OfferType(req.Type), req.SellingPrice, rate)
	if err != nil {
		return nil, err
	}

	if req.Availability != "" {
		o.SetStock(req.StockQuantity, offer.Availability(req.Availability))
	}
	o.OfferURL = req.OfferURL

	if o.Type == offer.OfferTypeQuote {
		if req.ExpiresAt == nil {
			return nil, shared.NewDomainError("MISSING_EXPIRY", "Quote offers need an expiry")
		}
		if err := o.SetExpiry(*req.ExpiresAt); err != nil {
			return nil, err
		}
	} else if req.ExpiresAt != nil {
		return nil, shared.NewDomainError("UNEXPECTED_EXPIRY", "Only quote offers expire")
	}

	if err := s.offerRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)

	response := ToOfferResponse(o)
	return &response, nil
}

// GetByID retrieves an offer by ID
func (s *OfferService) GetByID(ctx context.Context, id uuid.UUID) (*OfferResponse, error) {
	o, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToOfferResponse(o)
	return &response, nil
}

// GetByProduct returns active offers for a product, cheapest first
func (s *OfferService) GetByProduct(ctx context.Context, productID uuid.UUID) ([]OfferResponse, error) {
	offers, err := s.offerRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	responses := make([]OfferResponse, 0, len(offers))
	for i := range offers {
		responses = append(responses, ToOfferResponse(&offers[i]))
	}
	return responses, nil
}

// BestOffer returns the cheapest in-stock offer for a product
func (s *OfferService) BestOffer(ctx context.Context, productID uuid.UUID) (*OfferResponse, error) {
	offers, err := s.offerRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	for i := range offers {
		if offers[i].Availability == offer.AvailabilityInStock {
			response := ToOfferResponse(&offers[i])
			return &response, nil
		}
	}
	return nil, shared.ErrNotFound
}

// UpdatePrice records a fresh price observation
func (s *OfferService) UpdatePrice(ctx context.Context, id uuid.UUID, req UpdatePriceRequest) (*OfferResponse, error) {
	o, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := o.UpdatePrice(req.SellingPrice); err != nil {
		return nil, err
	}
	if err := s.offerRepo.Save(ctx, o); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, o)

	response := ToOfferResponse(o)
	return &response, nil
}

// UpdateStock refreshes stock quantity and availability
func (s *OfferService) UpdateStock(ctx context.Context, id uuid.UUID, req UpdateStockRequest) (*OfferResponse, error) {
	o, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	o.SetStock(req.StockQuantity, offer.Availability(req.Availability))
	if err := s.offerRepo.Save(ctx, o); err != nil {
		return nil, err
	}

	response := ToOfferResponse(o)
	return &response, nil
}

// PriceHistory returns the recorded price points for an offer
func (s *OfferService) PriceHistory(ctx context.Context, id uuid.UUID) ([]PricePointResponse, error) {
	o, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	points, err := o.History()
	if err != nil {
		return nil, err
	}

	responses := make([]PricePointResponse, 0, len(points))
	for _, p := range points {
		responses = append(responses, PricePointResponse{Price: p.Price, Timestamp: p.Timestamp})
	}
	return responses, nil
}

// Deactivate hides an offer from listings
func (s *OfferService) Deactivate(ctx context.Context, id uuid.UUID) error {
	o, err := s.offerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	o.Deactivate()
	return s.offerRepo.Save(ctx, o)
}

// ExpireQuotes deactivates quote offers past their expiry. Run from the
// scheduler.
func (s *OfferService) ExpireQuotes(ctx context.Context, limit int) (*ExpireQuotesResponse, error) {
	if limit <= 0 {
		limit = 100
	}

	quotes, err := s.offerRepo.FindExpiredQuotes(ctx, time.Now(), limit)
	if err != nil {
		return nil, err
	}

	result := &ExpireQuotesResponse{}
	for i := range quotes {
		quotes[i].Deactivate()
		if err := s.offerRepo.Save(ctx, &quotes[i]); err != nil {
			return result, err
		}
		result.Expired++
	}
	return result, nil
}

func (s *OfferService) publishEvents(ctx context.Context, o *offer.Offer) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, o.GetDomainEvents()...)
	o.ClearDomainEvents()
}
