package affiliate

import (
	"context"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// LinkRepository defines the interface for affiliate link persistence
type LinkRepository interface {
	// FindByID finds a link by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*AffiliateLink, error)

	// FindByProductAndPlatform finds the unique link for a product on a platform
	FindByProductAndPlatform(ctx context.Context, productID uuid.UUID, platform Platform) (*AffiliateLink, error)

	// FindByProduct finds all links for a product
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]AffiliateLink, error)

	// FindByPlatformID finds links by marketplace identifier (ASIN)
	FindByPlatformID(ctx context.Context, platform Platform, platformID string) ([]AffiliateLink, error)

	// FindNeedingRegeneration finds active links with empty or failed URLs
	// that are not currently processing
	FindNeedingRegeneration(ctx context.Context, limit int) ([]AffiliateLink, error)

	// FindAll finds all links matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]AffiliateLink, error)

	// Save creates or updates a link
	Save(ctx context.Context, link *AffiliateLink) error

	// Delete deletes a link
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts links matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// AssociationRepository defines the interface for product association persistence
type AssociationRepository interface {
	// FindByID finds an association by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*ProductAssociation, error)

	// FindBySource finds associations from a source product, highest
	// confidence first
	FindBySource(ctx context.Context, sourceProductID uuid.UUID, limit int) ([]ProductAssociation, error)

	// FindByPair finds the association for an exact (source, target, type) triple
	FindByPair(ctx context.Context, sourceID, targetID uuid.UUID, assocType AssociationType) (*ProductAssociation, error)

	// Save creates or updates an association
	Save(ctx context.Context, assoc *ProductAssociation) error

	// Delete deletes an association
	Delete(ctx context.Context, id uuid.UUID) error
}
