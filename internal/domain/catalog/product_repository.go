package catalog

import (
	"context"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)

	// FindByPartNumber finds a product by manufacturer and part number
	FindByPartNumber(ctx context.Context, manufacturerID uuid.UUID, partNumber string) (*Product, error)

	// FindByPartNumberAny finds products matching a part number across all
	// manufacturers
	FindByPartNumberAny(ctx context.Context, partNumber string) ([]Product, error)

	// FindAll finds all products matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Product, error)

	// FindFeatured finds featured active products
	FindFeatured(ctx context.Context, limit int) ([]Product, error)

	// FindByCategory finds all products in a specific category
	FindByCategory(ctx context.Context, categoryID uuid.UUID, filter shared.Filter) ([]Product, error)

	// FindByStatus finds products by status
	FindByStatus(ctx context.Context, status ProductStatus, filter shared.Filter) ([]Product, error)

	// FindByIDs finds multiple products by their IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]Product, error)

	// SearchByName finds products whose name or description matches the terms
	SearchByName(ctx context.Context, query string, limit int) ([]Product, error)

	// Save creates or updates a product
	Save(ctx context.Context, product *Product) error

	// Delete deletes a product
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts products matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// ExistsByPartNumber checks if a product with the given part number
	// exists for the manufacturer
	ExistsByPartNumber(ctx context.Context, manufacturerID uuid.UUID, partNumber string) (bool, error)
}

// ManufacturerRepository defines the interface for manufacturer persistence
type ManufacturerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Manufacturer, error)
	FindByName(ctx context.Context, name string) (*Manufacturer, error)
	FindBySlug(ctx context.Context, slug string) (*Manufacturer, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Manufacturer, error)
	Save(ctx context.Context, manufacturer *Manufacturer) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context, filter shared.Filter) (int64, error)
}

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Category, error)
	FindChildren(ctx context.Context, parentID uuid.UUID) ([]Category, error)
	FindRoots(ctx context.Context) ([]Category, error)
	Save(ctx context.Context, category *Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	HasProducts(ctx context.Context, categoryID uuid.UUID) (bool, error)
}
