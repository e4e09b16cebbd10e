package catalog

import (
	"context"
	"errors"

	"github.com/czachandrew/tru-server/internal/domain/catalog"
	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductService handles product-related business operations
type ProductService struct {
	productRepo      catalog.ProductRepository
	manufacturerRepo catalog.ManufacturerRepository
	categoryRepo     catalog.CategoryRepository
	eventBus         shared.EventPublisher
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	manufacturerRepo catalog.ManufacturerRepository,
	categoryRepo catalog.CategoryRepository,
	eventBus shared.EventPublisher,
) *ProductService {
	return &ProductService{
		productRepo:      productRepo,
		manufacturerRepo: manufacturerRepo,
		categoryRepo:     categoryRepo,
		eventBus:         eventBus,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	manufacturerID, err := s.resolveManufacturer(ctx, req.ManufacturerID, req.ManufacturerName)
	if err != nil {
		return nil, err
	}

	exists, err := s.productRepo.ExistsByPartNumber(ctx, manufacturerID, req.PartNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this part number already exists")
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
	}

	product, err := catalog.NewProduct(manufacturerID, req.PartNumber, req.Name)
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := product.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		product.SetCategory(req.CategoryID)
	}
	if req.MainImage != "" || req.Images != "" {
		product.SetImages(req.MainImage, req.Images)
	}
	if req.Specifications != "" {
		product.SetSpecifications(req.Specifications)
	}
	if req.Source != "" {
		product.Source = catalog.ProductSource(req.Source)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// GetByPartNumber retrieves products by part number across manufacturers
func (s *ProductService) GetByPartNumber(ctx context.Context, partNumber string) ([]ProductResponse, error) {
	products, err := s.productRepo.FindByPartNumberAny(ctx, partNumber)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses, nil
}

// Exists reports whether a part number is already in the catalog for the
// given manufacturer
func (s *ProductService) Exists(ctx context.Context, manufacturerID uuid.UUID, partNumber string) (*ProductExistsResponse, error) {
	product, err := s.productRepo.FindByPartNumber(ctx, manufacturerID, partNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return &ProductExistsResponse{Exists: false}, nil
		}
		return nil, err
	}
	return &ProductExistsResponse{Exists: true, ProductID: &product.ID}, nil
}

// List retrieves a list of products with filtering and pagination
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	domainFilter := s.toDomainFilter(filter)

	products, err := s.productRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}

	paginated := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &paginated, nil
}

// Featured retrieves featured active products
func (s *ProductService) Featured(ctx context.Context, limit int) ([]ProductResponse, error) {
	if limit <= 0 || limit > 50 {
		limit = 12
	}
	products, err := s.productRepo.FindFeatured(ctx, limit)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i]))
	}
	return responses, nil
}

// Update updates an existing product
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Description != nil {
		name := product.Name
		description := product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, description); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	if req.MainImage != nil || req.Images != nil {
		mainImage := product.MainImage
		images := product.Images
		if req.MainImage != nil {
			mainImage = *req.MainImage
		}
		if req.Images != nil {
			images = *req.Images
		}
		product.SetImages(mainImage, images)
	}

	if req.Specifications != nil {
		product.SetSpecifications(*req.Specifications)
	}

	if req.IsDemo != nil {
		if err := product.SetDemo(*req.IsDemo); err != nil {
			return nil, err
		}
	}
	if req.IsFeatured != nil {
		product.SetFeatured(*req.IsFeatured)
	}

	if req.Status != nil {
		if err := product.ChangeStatus(catalog.ProductStatus(*req.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// RecordFutureDemand registers consumer interest in a product we cannot
// monetize yet and returns the updated record
func (s *ProductService) RecordFutureDemand(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.RecordFutureDemand()

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// Delete deletes a product
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}
	return s.productRepo.Delete(ctx, productID)
}

// resolveManufacturer returns the manufacturer ID from the request,
// creating the manufacturer by name when no ID was given
func (s *ProductService) resolveManufacturer(ctx context.Context, id *uuid.UUID, name string) (uuid.UUID, error) {
	if id != nil {
		if _, err := s.manufacturerRepo.FindByID(ctx, *id); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return uuid.Nil, shared.NewDomainError("INVALID_MANUFACTURER", "Manufacturer not found")
			}
			return uuid.Nil, err
		}
		return *id, nil
	}

	if name == "" {
		return uuid.Nil, shared.NewDomainError("INVALID_MANUFACTURER", "Manufacturer ID or name is required")
	}

	existing, err := s.manufacturerRepo.FindByName(ctx, name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return uuid.Nil, err
	}

	manufacturer, err := catalog.NewManufacturer(name)
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.manufacturerRepo.Save(ctx, manufacturer); err != nil {
		return uuid.Nil, err
	}
	return manufacturer.ID, nil
}

func (s *ProductService) toDomainFilter(filter ProductListFilter) shared.Filter {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		domainFilter.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		domainFilter.OrderDir = filter.OrderDir
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.CategoryID != nil {
		domainFilter.Filters["category_id"] = *filter.CategoryID
	}
	if filter.Featured != nil {
		domainFilter.Filters["is_featured"] = *filter.Featured
	}
	if filter.Demo != nil {
		domainFilter.Filters["is_demo"] = *filter.Demo
	}
	return domainFilter
}

func (s *ProductService) publishEvents(ctx context.Context, product *catalog.Product) {
	if s.eventBus == nil {
		return
	}
	_ = s.eventBus.Publish(ctx, product.GetDomainEvents()...)
	product.ClearDomainEvents()
}
