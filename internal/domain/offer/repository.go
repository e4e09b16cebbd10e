package offer

import (
	"context"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository defines the interface for offer persistence
type Repository interface {
	// FindByID finds an offer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Offer, error)

	// FindByProduct finds active offers for a product, cheapest first
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Offer, error)

	// FindByProductAndVendor finds a vendor's offer on a product
	FindByProductAndVendor(ctx context.Context, productID, vendorID uuid.UUID) (*Offer, error)

	// FindExpiredQuotes finds active quote offers past their expiry
	FindExpiredQuotes(ctx context.Context, now time.Time, limit int) ([]Offer, error)

	// FindAll finds all offers matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Offer, error)

	// Save creates or updates an offer
	Save(ctx context.Context, offer *Offer) error

	// Delete deletes an offer
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts offers matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// VendorRepository defines the interface for vendor persistence
type VendorRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Vendor, error)
	FindByName(ctx context.Context, name string) (*Vendor, error)
	FindBySlug(ctx context.Context, slug string) (*Vendor, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Vendor, error)
	Save(ctx context.Context, vendor *Vendor) error
	Delete(ctx context.Context, id uuid.UUID) error
}
