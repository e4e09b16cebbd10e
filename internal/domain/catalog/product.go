package catalog

import (
	"regexp"
	"strings"
	"time"

	"github.com/czachandrew/tru-server/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusPending      ProductStatus = "pending"
	ProductStatusDiscontinued ProductStatus = "discontinued"
	// ProductStatusFutureOpportunity marks products we do not carry yet but
	// track demand for (clicks on placeholder listings)
	ProductStatusFutureOpportunity ProductStatus = "future_opportunity"
)

// ProductSource records where a product record originated
type ProductSource string

const (
	ProductSourceManual  ProductSource = "manual"
	ProductSourceAmazon  ProductSource = "amazon"
	ProductSourceScraper ProductSource = "scraper"
	ProductSourceImport  ProductSource = "import"
)

// asinRe matches Amazon Standard Identification Numbers
var asinRe = regexp.MustCompile(`^B[0-9A-Z]{9}$`)

// IsASIN reports whether the given part number is actually an ASIN
func IsASIN(partNumber string) bool {
	return asinRe.MatchString(strings.ToUpper(strings.TrimSpace(partNumber)))
}

// Product represents a catalog product, identified by its manufacturer and
// part number. It is the aggregate root for product-related operations.
type Product struct {
	shared.BaseAggregateRoot
	ManufacturerID uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_product_mfr_part,priority:1"`
	PartNumber     string        `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_mfr_part,priority:2"`
	Name           string        `gorm:"type:varchar(300);not null"`
	Slug           string        `gorm:"type:varchar(320);not null;index"`
	Description    string        `gorm:"type:text"`
	CategoryID     *uuid.UUID    `gorm:"type:uuid;index"`
	MainImage      string        `gorm:"type:varchar(500)"`
	Images         string        `gorm:"type:jsonb;default:'[]'"` // JSON array of additional image URLs
	Specifications string        `gorm:"type:jsonb;default:'{}'"` // JSON map of technical attributes
	Status         ProductStatus `gorm:"type:varchar(30);not null;default:'active';index"`
	Source         ProductSource `gorm:"type:varchar(20);not null;default:'manual'"`
	IsDemo         bool          `gorm:"not null;default:false;index"`
	IsFeatured     bool          `gorm:"not null;default:false;index"`
	IsPlaceholder  bool          `gorm:"not null;default:false"`
	// FutureDemandCount counts consumer interest in products we cannot
	// monetize yet
	FutureDemandCount int `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(manufacturerID uuid.UUID, partNumber, name string) (*Product, error) {
	partNumber, err := normalizePartNumber(partNumber)
	if err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}
	if manufacturerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MANUFACTURER", "Manufacturer is required")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ManufacturerID:    manufacturerID,
		PartNumber:        partNumber,
		Name:              name,
		Slug:              Slugify(name),
		Status:            ProductStatusActive,
		Source:            ProductSourceManual,
		Images:            "[]",
		Specifications:    "{}",
	}

	product.AddDomainEvent(NewProductCreatedEvent(product))

	return product, nil
}

// NewPlaceholderProduct creates a thin product record from an external
// source (typically an Amazon listing found during search). Placeholders may
// have empty descriptions and are upgraded as richer data arrives.
func NewPlaceholderProduct(manufacturerID uuid.UUID, partNumber, name string, source ProductSource) (*Product, error) {
	product, err := NewProduct(manufacturerID, partNumber, name)
	if err != nil {
		return nil, err
	}

	product.Source = source
	product.IsPlaceholder = true

	return product, nil
}

// Update updates the product's basic information
func (p *Product) Update(name, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}

	p.Name = name
	p.Slug = Slugify(name)
	p.Description = description
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))

	return nil
}

// SetCategory sets the product category
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductUpdatedEvent(p))
}

// SetImages replaces the product's image set
func (p *Product) SetImages(mainImage string, imagesJSON string) {
	p.MainImage = mainImage
	if imagesJSON == "" {
		imagesJSON = "[]"
	}
	p.Images = imagesJSON
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// SetSpecifications replaces the product's technical attributes
func (p *Product) SetSpecifications(specsJSON string) {
	if specsJSON == "" {
		specsJSON = "{}"
	}
	p.Specifications = specsJSON
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// ChangeStatus transitions the product to a new status
func (p *Product) ChangeStatus(status ProductStatus) error {
	switch status {
	case ProductStatusActive, ProductStatusPending, ProductStatusDiscontinued, ProductStatusFutureOpportunity:
	default:
		return shared.NewDomainError("INVALID_STATUS", "Unknown product status")
	}
	if p.IsDemo && status != ProductStatusActive {
		return shared.NewDomainError("DEMO_MUST_BE_ACTIVE", "Demo products must remain active")
	}

	oldStatus := p.Status
	if oldStatus == status {
		return nil
	}

	p.Status = status
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewProductStatusChangedEvent(p, oldStatus, status))

	return nil
}

// SetDemo marks or unmarks the product as a demo product. Demo products are
// always active and rank first in consumer matching.
func (p *Product) SetDemo(demo bool) error {
	if demo && p.Status != ProductStatusActive {
		if err := p.ChangeStatus(ProductStatusActive); err != nil {
			return err
		}
	}

	p.IsDemo = demo
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// SetFeatured toggles the featured flag
func (p *Product) SetFeatured(featured bool) {
	p.IsFeatured = featured
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// PromoteFromPlaceholder upgrades a placeholder once real data is attached
func (p *Product) PromoteFromPlaceholder(name, description string) error {
	if !p.IsPlaceholder {
		return shared.ErrInvalidState
	}
	if err := p.Update(name, description); err != nil {
		return err
	}
	p.IsPlaceholder = false
	return nil
}

// RecordFutureDemand increments the demand counter for products we cannot
// monetize yet and flips active placeholders into future opportunities
func (p *Product) RecordFutureDemand() {
	p.FutureDemandCount++
	if p.IsPlaceholder && p.Status == ProductStatusActive && !p.IsDemo {
		p.Status = ProductStatusFutureOpportunity
	}
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	p.AddDomainEvent(NewFutureDemandRecordedEvent(p))
}

// IsSellable reports whether offers may be attached to this product
func (p *Product) IsSellable() bool {
	return p.Status == ProductStatusActive
}

func normalizePartNumber(partNumber string) (string, error) {
	partNumber = strings.ToUpper(strings.TrimSpace(partNumber))
	if partNumber == "" {
		return "", shared.NewDomainError("INVALID_PART_NUMBER", "Part number is required")
	}
	if len(partNumber) > 100 {
		return "", shared.NewDomainError("INVALID_PART_NUMBER", "Part number cannot exceed 100 characters")
	}
	return partNumber, nil
}

func validateProductName(name string) error {
	if strings.TrimSpace(name) == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name is required")
	}
	if len(name) > 300 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 300 characters")
	}
	return nil
}
